// Package session keeps per-user conversation state. The store is owned by
// the single dispatcher goroutine and is never touched by the scheduler, so
// access needs no synchronization. State here is transient by design: losing
// it on restart only drops an in-progress flow, never durable data.
package session

// State is the dialogue stage a user is currently in.
type State int

const (
	StateIdle State = iota
	StateAwaitingCity
	StateAwaitingReminderText
	StateAwaitingReminderMinutes
	StateAwaitingMoodLabel
	StateAwaitingMoodNote
	StateAwaitingFoodName
	StateAwaitingFoodCalories
	StateAwaitingWikiQuery
	StateAwaitingTranslateText
	StateAwaitingTargetLanguage
	StateAwaitingFeedback
	StateAwaitingNumberGuess
)

var stateNames = map[State]string{
	StateIdle:                    "IDLE",
	StateAwaitingCity:            "AWAITING_CITY",
	StateAwaitingReminderText:    "AWAITING_REMINDER_TEXT",
	StateAwaitingReminderMinutes: "AWAITING_REMINDER_MINUTES",
	StateAwaitingMoodLabel:       "AWAITING_MOOD_LABEL",
	StateAwaitingMoodNote:        "AWAITING_MOOD_NOTE",
	StateAwaitingFoodName:        "AWAITING_FOOD_NAME",
	StateAwaitingFoodCalories:    "AWAITING_FOOD_CALORIES",
	StateAwaitingWikiQuery:       "AWAITING_WIKI_QUERY",
	StateAwaitingTranslateText:   "AWAITING_TRANSLATE_TEXT",
	StateAwaitingTargetLanguage:  "AWAITING_TARGET_LANGUAGE",
	StateAwaitingFeedback:        "AWAITING_FEEDBACK",
	StateAwaitingNumberGuess:     "AWAITING_NUMBER_GUESS",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether s is a member of the enumerated state set.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Scratch is the typed per-flow payload accumulated across turns. Each
// variant belongs to the states that may read it, so a missing field is a
// type error rather than a failed map lookup.
type Scratch interface{ scratch() }

type ReminderScratch struct{ Text string }

type MoodScratch struct{ Label string }

type FoodScratch struct{ Name string }

type TranslateScratch struct{ Text string }

func (ReminderScratch) scratch()  {}
func (MoodScratch) scratch()      {}
func (FoodScratch) scratch()      {}
func (TranslateScratch) scratch() {}

// Game is the active number-guess mini-game, at most one per user.
type Game struct {
	Target   int
	Attempts int
}

// Session is one user's conversation state.
type Session struct {
	State   State
	Scratch Scratch
	Game    *Game
}

// Reset returns the session to IDLE and drops flow fields. The record
// itself stays in the store.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Scratch = nil
	s.Game = nil
}

// Store maps user id to session, creating records lazily.
type Store struct {
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get returns the session for userID, creating an idle one on first
// reference.
func (st *Store) Get(userID string) *Session {
	if s, ok := st.sessions[userID]; ok {
		return s
	}
	s := &Session{State: StateIdle}
	st.sessions[userID] = s
	return s
}
