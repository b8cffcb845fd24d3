// Package scheduler delivers due reminders on a fixed tick, independent of
// live dialogue handling.
package scheduler

import (
	"context"
	"log"
	"time"

	"botlab.dev/assistant-bot/internal/channel"
	"botlab.dev/assistant-bot/internal/store"
)

// ReminderSource is the slice of the persisted store the scheduler needs.
type ReminderSource interface {
	FetchDueReminders(now time.Time) ([]store.Reminder, error)
	DeleteReminder(id string) error
}

// Scheduler polls for due reminders and dispatches them through the
// outbound channel. Delivery is at-least-once: the reminder is deleted
// after the send attempt, so a crash in between re-delivers on the next
// tick. A failed send still deletes the reminder — accepted data loss
// over an unbounded retry storm against an unreachable recipient.
type Scheduler struct {
	source   ReminderSource
	sender   channel.Sender
	interval time.Duration
	now      func() time.Time
}

func New(source ReminderSource, sender channel.Sender, interval time.Duration) *Scheduler {
	return &Scheduler{
		source:   source,
		sender:   sender,
		interval: interval,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled. Cancellation stops future ticks; a
// tick already in delivery runs to completion.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Reminder scheduler started (interval %s)", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick processes every reminder due at or before now. Failures are
// isolated per reminder so one bad record cannot stall the rest.
func (s *Scheduler) Tick(ctx context.Context) {
	due, err := s.source.FetchDueReminders(s.now())
	if err != nil {
		log.Printf("scheduler: fetch due reminders: %v", err)
		return
	}

	for _, r := range due {
		text := "⏰ Напоминание: " + r.Text
		if err := s.sender.SendMessage(ctx, r.UserID, text, nil); err != nil {
			log.Printf("scheduler: deliver reminder %s to %s: %v (dropping)", r.ID, r.UserID, err)
		}
		if err := s.source.DeleteReminder(r.ID); err != nil {
			log.Printf("scheduler: delete reminder %s: %v", r.ID, err)
		}
	}
}
