package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- channel-assigned user id
        first_name TEXT NOT NULL DEFAULT '',
        last_name TEXT NOT NULL DEFAULT '',
        username TEXT NOT NULL DEFAULT '',
        message_count INTEGER NOT NULL DEFAULT 0,
        current_mood TEXT NOT NULL DEFAULT '',
        language TEXT NOT NULL DEFAULT 'ru',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS reminders (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        text TEXT NOT NULL,
        due_at DATETIME NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS history (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        input TEXT NOT NULL,
        output TEXT NOT NULL,
        sentiment TEXT NOT NULL DEFAULT 'neutral',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS mood_entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        mood TEXT NOT NULL,
        note TEXT NOT NULL DEFAULT '',
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE TABLE IF NOT EXISTS calorie_entries (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        food TEXT NOT NULL,
        calories INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );

    CREATE INDEX IF NOT EXISTS idx_reminders_due_at ON reminders (due_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) GetOrCreateUser(id, firstName, lastName, username string) (*User, error) {
	user, err := s.getUserByID(id)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	now := time.Now()
	_, err = s.db.Exec(
		"INSERT INTO users (id, first_name, last_name, username, created_at) VALUES (?, ?, ?, ?, ?)",
		id, firstName, lastName, username, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id string) (*User, error) {
	var user User
	err := s.db.QueryRow(
		"SELECT id, first_name, last_name, username, message_count, current_mood, language, created_at FROM users WHERE id = ?", id).
		Scan(&user.ID, &user.FirstName, &user.LastName, &user.Username, &user.MessageCount, &user.CurrentMood, &user.Language, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) IncrementMessageCount(userID string) error {
	res, err := s.db.Exec("UPDATE users SET message_count = message_count + 1 WHERE id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to increment message count: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user %s not found, message count not updated", userID)
	}
	return nil
}

func (s *SQLiteStore) SetLanguagePreference(userID, language string) error {
	res, err := s.db.Exec("UPDATE users SET language = ? WHERE id = ?", language, userID)
	if err != nil {
		return fmt.Errorf("failed to set language preference: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("user %s not found, language not updated", userID)
	}
	return nil
}

func (s *SQLiteStore) GetLanguagePreference(userID string) (string, error) {
	var language string
	err := s.db.QueryRow("SELECT language FROM users WHERE id = ?", userID).Scan(&language)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to query language preference: %w", err)
	}
	return language, nil
}

func (s *SQLiteStore) GetUserStats(userID string) (*UserStats, error) {
	var stats UserStats
	err := s.db.QueryRow(`
        SELECT u.message_count, u.current_mood, u.created_at,
               (SELECT COUNT(*) FROM reminders r WHERE r.user_id = u.id),
               (SELECT COUNT(*) FROM history h WHERE h.user_id = u.id)
        FROM users u WHERE u.id = ?`, userID).
		Scan(&stats.MessageCount, &stats.CurrentMood, &stats.MemberSince, &stats.Reminders, &stats.HistoryCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s not found", userID)
		}
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	return &stats, nil
}

// Reminder methods

func (s *SQLiteStore) CreateReminder(userID, text string, dueAt time.Time) (*Reminder, error) {
	reminder := Reminder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		DueAt:     dueAt,
		CreatedAt: time.Now(),
	}

	stmt, err := s.db.Prepare("INSERT INTO reminders (id, user_id, text, due_at, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare reminder insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(reminder.ID, reminder.UserID, reminder.Text, reminder.DueAt, reminder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to execute reminder insert: %w", err)
	}
	return &reminder, nil
}

func (s *SQLiteStore) FetchDueReminders(now time.Time) ([]Reminder, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, text, due_at, created_at FROM reminders WHERE due_at <= ? ORDER BY due_at ASC", now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserID, &r.Text, &r.DueAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *SQLiteStore) DeleteReminder(id string) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}
	return nil
}

// History methods

func (s *SQLiteStore) AppendHistory(userID, input, output, sentiment string) error {
	stmt, err := s.db.Prepare("INSERT INTO history (id, user_id, input, output, sentiment, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(uuid.NewString(), userID, input, output, sentiment, time.Now())
	if err != nil {
		return fmt.Errorf("failed to execute history insert: %w", err)
	}
	return nil
}

// Mood methods

// AppendMoodEntry records a mood entry and updates the user's current mood
// label in the same transaction (last write wins).
func (s *SQLiteStore) AppendMoodEntry(userID, mood, note string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin mood transaction: %w", err)
	}
	defer tx.Rollback() // No-op after a successful commit

	_, err = tx.Exec("INSERT INTO mood_entries (user_id, mood, note, created_at) VALUES (?, ?, ?, ?)",
		userID, mood, note, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert mood entry: %w", err)
	}

	_, err = tx.Exec("UPDATE users SET current_mood = ? WHERE id = ?", mood, userID)
	if err != nil {
		return fmt.Errorf("failed to update current mood: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetMoodHistory(userID string, days int) ([]MoodEntry, error) {
	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.db.Query(
		"SELECT id, user_id, mood, note, created_at FROM mood_entries WHERE user_id = ? AND created_at >= ? ORDER BY created_at ASC",
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood history: %w", err)
	}
	defer rows.Close()

	var entries []MoodEntry
	for rows.Next() {
		var e MoodEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Mood, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood entry row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Calorie methods

func (s *SQLiteStore) AppendCalorieEntry(userID, food string, calories int) error {
	_, err := s.db.Exec("INSERT INTO calorie_entries (user_id, food, calories, created_at) VALUES (?, ?, ?, ?)",
		userID, food, calories, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert calorie entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SumCaloriesForDay(userID string, day time.Time) (int, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var total sql.NullInt64
	err := s.db.QueryRow(
		"SELECT SUM(calories) FROM calorie_entries WHERE user_id = ? AND created_at >= ? AND created_at < ?",
		userID, dayStart, dayEnd).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum calories: %w", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}
