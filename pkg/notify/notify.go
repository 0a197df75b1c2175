// Package notify delivers task lifecycle events to people. Callers decide
// who is told and when; implementations decide how.
package notify

import (
	"context"
	"log"

	"pvc/entities"
)

type Kind string

const (
	KindTaskCreated     Kind = "task_created"
	KindReworkRequested Kind = "rework_requested"
	KindReworkApproved  Kind = "rework_approved"
	KindTaskCompleted   Kind = "task_completed"
	KindUserPending     Kind = "user_pending"
)

// Event is one message for one recipient. Task is a snapshot taken after the
// change that caused the event; Subject is set for user events.
type Event struct {
	Kind        Kind
	RecipientID uint
	Task        *entities.Task
	Type        *entities.ConstructType
	Actor       *entities.User
	Subject     *entities.User
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Texter sends free text, used by the reminder jobs.
type Texter interface {
	SendText(ctx context.Context, userID uint, text string) error
}

// Sender is what the server wires: lifecycle events and reminder texts.
type Sender interface {
	Notifier
	Texter
}

// Dispatch sends every event. Failures are logged and never returned: a
// committed change must not be reported as failed because a message was lost.
func Dispatch(ctx context.Context, n Notifier, events []Event) {
	if n == nil {
		return
	}
	for _, ev := range events {
		if err := n.Notify(ctx, ev); err != nil {
			log.Printf("[notify] %s to user %d: %v", ev.Kind, ev.RecipientID, err)
		}
	}
}
