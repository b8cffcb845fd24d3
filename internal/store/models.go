package store

import "time"

type User struct {
	ID           string    `json:"id"` // Channel-assigned user id
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	MessageCount int64     `json:"message_count"`
	CurrentMood  string    `json:"current_mood"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
}

type Reminder struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	DueAt     time.Time `json:"due_at"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryEntry struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Sentiment string    `json:"sentiment"`
	CreatedAt time.Time `json:"created_at"`
}

type MoodEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Mood      string    `json:"mood"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type CalorieEntry struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Food      string    `json:"food"`
	Calories  int       `json:"calories"`
	CreatedAt time.Time `json:"created_at"`
}

type UserStats struct {
	MessageCount int64     `json:"message_count"`
	CurrentMood  string    `json:"current_mood"`
	Reminders    int       `json:"reminders"`
	HistoryCount int       `json:"history_count"`
	MemberSince  time.Time `json:"member_since"`
}
