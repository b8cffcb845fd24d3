// Package bot runs the inbound event loop.
package bot

import (
	"context"
	"log"

	"botlab.dev/assistant-bot/internal/channel"
	"botlab.dev/assistant-bot/internal/core"
)

// Dispatcher drains inbound events on a single goroutine, which is what
// lets the dialogue manager and session store go without locks. Events
// for one user arrive and are processed in order; across users no order
// is promised.
type Dispatcher struct {
	events  chan core.Event
	manager *core.DialogueManager
	sender  channel.Sender
}

func NewDispatcher(manager *core.DialogueManager, sender channel.Sender, queueSize int) *Dispatcher {
	return &Dispatcher{
		events:  make(chan core.Event, queueSize),
		manager: manager,
		sender:  sender,
	}
}

// Enqueue hands an event to the loop. It drops the event when the queue
// is full so a slow loop cannot back-pressure the webhook into timeouts.
func (d *Dispatcher) Enqueue(ev core.Event) {
	select {
	case d.events <- ev:
	default:
		log.Printf("dispatcher: queue full, dropping event from %s", ev.UserID)
	}
}

// Run processes events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("Dispatcher stopped")
			return
		case ev := <-d.events:
			d.process(ctx, ev)
		}
	}
}

// process handles one event, recovering from panics so a single broken
// interaction cannot halt the loop.
func (d *Dispatcher) process(ctx context.Context, ev core.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatcher: panic handling event from %s: %v", ev.UserID, r)
		}
	}()

	for _, reply := range d.manager.Handle(ctx, ev) {
		if err := d.sender.SendMessage(ctx, ev.UserID, reply.Text, reply.Keyboard); err != nil {
			log.Printf("dispatcher: send to %s: %v", ev.UserID, err)
		}
	}
}
