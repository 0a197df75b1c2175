package notify

import (
	"context"
	"log"
)

// Log writes events to the process log. It is used when no bot token is set.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (Log) Notify(_ context.Context, ev Event) error {
	taskID := uint(0)
	if ev.Task != nil {
		taskID = ev.Task.ID
	}
	log.Printf("[notify] %s -> user %d (task %d)", ev.Kind, ev.RecipientID, taskID)
	return nil
}

func (Log) SendText(_ context.Context, userID uint, text string) error {
	log.Printf("[notify] text -> user %d: %q", userID, text)
	return nil
}
