package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botlab.dev/assistant-bot/internal/intent"
	"botlab.dev/assistant-bot/internal/nlp"
	"botlab.dev/assistant-bot/internal/session"
	"botlab.dev/assistant-bot/internal/store"
)

// fakeStore is an in-memory store.Store for dialogue tests.
type fakeStore struct {
	users     map[string]*store.User
	reminders []store.Reminder
	history   []store.HistoryEntry
	moods     []store.MoodEntry
	calories  []store.CalorieEntry

	failGetUser bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*store.User{}}
}

func (f *fakeStore) GetOrCreateUser(id, firstName, lastName, username string) (*store.User, error) {
	if f.failGetUser {
		return nil, errors.New("store unavailable")
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	u := &store.User{ID: id, FirstName: firstName, LastName: lastName, Username: username, Language: "ru", CreatedAt: time.Now()}
	f.users[id] = u
	return u, nil
}

func (f *fakeStore) IncrementMessageCount(userID string) error {
	if u, ok := f.users[userID]; ok {
		u.MessageCount++
	}
	return nil
}

func (f *fakeStore) SetLanguagePreference(userID, language string) error {
	u, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.Language = language
	return nil
}

func (f *fakeStore) GetLanguagePreference(userID string) (string, error) {
	if u, ok := f.users[userID]; ok {
		return u.Language, nil
	}
	return "", nil
}

func (f *fakeStore) GetUserStats(userID string) (*store.UserStats, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &store.UserStats{
		MessageCount: u.MessageCount,
		CurrentMood:  u.CurrentMood,
		Reminders:    len(f.reminders),
		HistoryCount: len(f.history),
		MemberSince:  u.CreatedAt,
	}, nil
}

func (f *fakeStore) CreateReminder(userID, text string, dueAt time.Time) (*store.Reminder, error) {
	r := store.Reminder{
		ID:        fmt.Sprintf("r%d", len(f.reminders)+1),
		UserID:    userID,
		Text:      text,
		DueAt:     dueAt,
		CreatedAt: time.Now(),
	}
	f.reminders = append(f.reminders, r)
	return &r, nil
}

func (f *fakeStore) FetchDueReminders(now time.Time) ([]store.Reminder, error) {
	var due []store.Reminder
	for _, r := range f.reminders {
		if !r.DueAt.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeStore) DeleteReminder(id string) error {
	kept := f.reminders[:0]
	for _, r := range f.reminders {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.reminders = kept
	return nil
}

func (f *fakeStore) AppendHistory(userID, input, output, sentiment string) error {
	f.history = append(f.history, store.HistoryEntry{UserID: userID, Input: input, Output: output, Sentiment: sentiment})
	return nil
}

func (f *fakeStore) AppendMoodEntry(userID, mood, note string) error {
	f.moods = append(f.moods, store.MoodEntry{UserID: userID, Mood: mood, Note: note})
	if u, ok := f.users[userID]; ok {
		u.CurrentMood = mood
	}
	return nil
}

func (f *fakeStore) GetMoodHistory(userID string, days int) ([]store.MoodEntry, error) {
	return f.moods, nil
}

func (f *fakeStore) AppendCalorieEntry(userID, food string, calories int) error {
	f.calories = append(f.calories, store.CalorieEntry{UserID: userID, Food: food, Calories: calories})
	return nil
}

func (f *fakeStore) SumCaloriesForDay(userID string, day time.Time) (int, error) {
	total := 0
	for _, e := range f.calories {
		total += e.Calories
	}
	return total, nil
}

type identityStemmer struct{}

func (identityStemmer) Stem(token string) string { return token }

func testClassifier() *intent.Classifier {
	index := &intent.Index{Intents: []intent.Intent{
		{Name: "greeting", Examples: []string{"привет бот"}, Responses: []string{"Привет!"}},
	}}
	return intent.NewClassifier(index, nlp.NewNormalizer(identityStemmer{}))
}

type fixture struct {
	manager  *DialogueManager
	store    *fakeStore
	sessions *session.Store
}

func newFixture(responders Responders) *fixture {
	fs := newFakeStore()
	sessions := session.NewStore()
	m := NewDialogueManager(fs, sessions, testClassifier(), responders)
	m.rng = rand.New(rand.NewSource(1))
	return &fixture{manager: m, store: fs, sessions: sessions}
}

func event(userID, text string) Event {
	return Event{UserID: userID, Profile: Profile{FirstName: "Тест"}, Command: DecodeText(text)}
}

func inlineEvent(userID, data string) Event {
	return Event{UserID: userID, Command: DecodeCallback(data)}
}

func TestWeatherFlowEndToEnd(t *testing.T) {
	var gotCity string
	fx := newFixture(Responders{
		Weather: func(ctx context.Context, city string) (string, error) {
			gotCity = city
			return "Солнечно, +20°C", nil
		},
	})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "🌤 Погода"))
	assert.Equal(t, session.StateAwaitingCity, fx.sessions.Get("1").State)

	replies := fx.manager.Handle(ctx, event("1", "Paris"))
	require.Len(t, replies, 1)
	assert.Equal(t, "Paris", gotCity)
	assert.Equal(t, "Солнечно, +20°C", replies[0].Text)
	assert.Equal(t, session.StateIdle, fx.sessions.Get("1").State)

	// Structured flow steps never land in message history.
	assert.Empty(t, fx.store.history)
}

func TestWeatherResponderFailure(t *testing.T) {
	fx := newFixture(Responders{
		Weather: func(ctx context.Context, city string) (string, error) {
			return "", errors.New("provider down")
		},
	})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "🌤 Погода"))
	replies := fx.manager.Handle(ctx, event("1", "Paris"))

	require.Len(t, replies, 1)
	assert.Equal(t, msgExternalFailure, replies[0].Text)
	assert.Equal(t, session.StateIdle, fx.sessions.Get("1").State)
}

func TestReminderFlowKeepsScratchOnBadMinutes(t *testing.T) {
	fx := newFixture(Responders{})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx.manager.now = func() time.Time { return now }
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "⏰ Напоминание"))
	fx.manager.Handle(ctx, event("1", "Call mom"))
	assert.Equal(t, session.StateAwaitingReminderMinutes, fx.sessions.Get("1").State)

	replies := fx.manager.Handle(ctx, event("1", "soon"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgBadMinutes, replies[0].Text)
	assert.Equal(t, session.StateAwaitingReminderMinutes, fx.sessions.Get("1").State)
	assert.Empty(t, fx.store.reminders)

	fx.manager.Handle(ctx, event("1", "30"))
	require.Len(t, fx.store.reminders, 1)
	assert.Equal(t, "Call mom", fx.store.reminders[0].Text)
	assert.Equal(t, now.Add(30*time.Minute), fx.store.reminders[0].DueAt)
	assert.Equal(t, session.StateIdle, fx.sessions.Get("1").State)
}

func TestIntentReplyRecordsHistory(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	replies := fx.manager.Handle(ctx, event("1", "привет бот"))

	require.Len(t, replies, 1)
	assert.Equal(t, "Привет!", replies[0].Text)
	require.Len(t, fx.store.history, 1)
	assert.Equal(t, "привет бот", fx.store.history[0].Input)
	assert.Equal(t, "Привет!", fx.store.history[0].Output)
}

func TestFallbackAppendsExactlyOneHistoryEntry(t *testing.T) {
	fx := newFixture(Responders{
		Complete: func(ctx context.Context, input string) (string, error) {
			return "сгенерированный ответ", nil
		},
	})
	ctx := context.Background()

	replies := fx.manager.Handle(ctx, event("1", "расскажи про квантовую хромодинамику"))

	require.Len(t, replies, 1)
	assert.Equal(t, "сгенерированный ответ", replies[0].Text)
	require.Len(t, fx.store.history, 1)
	assert.Equal(t, "расскажи про квантовую хромодинамику", fx.store.history[0].Input)
	assert.Equal(t, "сгенерированный ответ", fx.store.history[0].Output)
}

func TestFallbackErrorStillRecordsHistory(t *testing.T) {
	fx := newFixture(Responders{
		Complete: func(ctx context.Context, input string) (string, error) {
			return "", errors.New("model overloaded")
		},
	})
	ctx := context.Background()

	replies := fx.manager.Handle(ctx, event("1", "нечто неразборчивое"))

	require.Len(t, replies, 1)
	assert.Equal(t, msgExternalFailure, replies[0].Text)
	assert.Len(t, fx.store.history, 1)
}

func TestMoodFlowWithInlineChoice(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "😊 Настроение"))
	assert.Equal(t, session.StateAwaitingMoodLabel, fx.sessions.Get("1").State)

	fx.manager.Handle(ctx, inlineEvent("1", "mood:Хорошо"))
	assert.Equal(t, session.StateAwaitingMoodNote, fx.sessions.Get("1").State)

	replies := fx.manager.Handle(ctx, event("1", "день удался"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgMoodSaved, replies[0].Text)
	require.Len(t, fx.store.moods, 1)
	assert.Equal(t, "Хорошо", fx.store.moods[0].Mood)
	assert.Equal(t, "день удался", fx.store.moods[0].Note)
	assert.Equal(t, "Хорошо", fx.store.users["1"].CurrentMood)
	assert.Equal(t, session.StateIdle, fx.sessions.Get("1").State)
}

func TestCalorieFlowRejectsNonNumeric(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "🍏 Калории"))
	fx.manager.Handle(ctx, event("1", "овсянка"))

	replies := fx.manager.Handle(ctx, event("1", "немного"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgBadCalories, replies[0].Text)
	assert.Equal(t, session.StateAwaitingFoodCalories, fx.sessions.Get("1").State)

	replies = fx.manager.Handle(ctx, event("1", "300"))
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "овсянка")
	assert.Contains(t, replies[0].Text, "300")
	require.Len(t, fx.store.calories, 1)
	assert.Equal(t, 300, fx.store.calories[0].Calories)
}

func TestTranslateFlow(t *testing.T) {
	var gotText, gotTarget string
	fx := newFixture(Responders{
		Translate: func(ctx context.Context, text, target string) (string, error) {
			gotText, gotTarget = text, target
			return "hello world", nil
		},
	})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "🌍 Перевод"))
	fx.manager.Handle(ctx, event("1", "привет мир"))
	assert.Equal(t, session.StateAwaitingTargetLanguage, fx.sessions.Get("1").State)

	// Unknown language keeps the state and the scratch text.
	replies := fx.manager.Handle(ctx, event("1", "клингонский"))
	require.Len(t, replies, 1)
	assert.Equal(t, msgBadLanguage, replies[0].Text)
	assert.Equal(t, session.StateAwaitingTargetLanguage, fx.sessions.Get("1").State)

	replies = fx.manager.Handle(ctx, event("1", "английский"))
	require.Len(t, replies, 1)
	assert.Equal(t, "hello world", replies[0].Text)
	assert.Equal(t, "привет мир", gotText)
	assert.Equal(t, "en", gotTarget)
	assert.Equal(t, session.StateIdle, fx.sessions.Get("1").State)
}

func TestLanguagePreferenceViaInline(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "🌐 Язык"))
	replies := fx.manager.Handle(ctx, inlineEvent("1", "lang:en"))

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "en")
	assert.Equal(t, "en", fx.store.users["1"].Language)
}

func TestCancelResetsFlow(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "⏰ Напоминание"))
	fx.manager.Handle(ctx, event("1", "Call mom"))
	fx.manager.Handle(ctx, event("1", "❌ Отмена"))

	sess := fx.sessions.Get("1")
	assert.Equal(t, session.StateIdle, sess.State)
	assert.Nil(t, sess.Scratch)
}

func TestStoreFailureIsUserVisible(t *testing.T) {
	fx := newFixture(Responders{})
	fx.store.failGetUser = true
	ctx := context.Background()

	replies := fx.manager.Handle(ctx, event("1", "привет"))

	require.Len(t, replies, 1)
	assert.Equal(t, msgStoreFailure, replies[0].Text)
}

func TestStateAlwaysInEnumeratedSet(t *testing.T) {
	fx := newFixture(Responders{
		Weather:  func(ctx context.Context, city string) (string, error) { return "ok", nil },
		Complete: func(ctx context.Context, input string) (string, error) { return "ok", nil },
	})
	ctx := context.Background()

	inputs := []string{
		"🌤 Погода", "Paris", "⏰ Напоминание", "Call mom", "soon", "30",
		"😊 Настроение", "норм", "заметка", "🍏 Калории", "борщ", "не знаю",
		"250", "🎲 Игра", "пятьдесят", "50", "❌ Отмена", "просто текст",
		"🌍 Перевод", "привет", "en", "/help", "/start",
	}
	for _, in := range inputs {
		fx.manager.Handle(ctx, event("1", in))
		assert.True(t, fx.sessions.Get("1").State.Valid(), "after input %q", in)
	}
}

func TestStatsReply(t *testing.T) {
	fx := newFixture(Responders{})
	ctx := context.Background()

	fx.manager.Handle(ctx, event("1", "привет бот"))
	replies := fx.manager.Handle(ctx, event("1", "📊 Статистика"))

	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Text, "Сообщений: 2")
}
