package store

import "time"

// Store is the narrow persistence contract the dialogue manager and the
// reminder scheduler depend on. Every call maps to its own transaction;
// callers never hold locks across calls, so the two execution contexts
// (dispatcher and scheduler) coordinate only through the store's own
// per-operation atomicity.
type Store interface {
	GetOrCreateUser(id, firstName, lastName, username string) (*User, error)
	IncrementMessageCount(userID string) error
	SetLanguagePreference(userID, language string) error
	GetLanguagePreference(userID string) (string, error)
	GetUserStats(userID string) (*UserStats, error)

	CreateReminder(userID, text string, dueAt time.Time) (*Reminder, error)
	FetchDueReminders(now time.Time) ([]Reminder, error)
	DeleteReminder(id string) error

	AppendHistory(userID, input, output, sentiment string) error
	AppendMoodEntry(userID, mood, note string) error
	GetMoodHistory(userID string, days int) ([]MoodEntry, error)
	AppendCalorieEntry(userID, food string, calories int) error
	SumCaloriesForDay(userID string, day time.Time) (int, error)
}
