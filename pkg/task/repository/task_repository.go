package repository

import (
	"context"

	"pvc/entities"
)

// Query selects tasks. Zero fields do not filter. Day bounds are inclusive
// YYYY-MM-DD strings except PlannedBefore, which is exclusive.
type Query struct {
	IDs           []uint
	TeamID        *uint
	Unassigned    bool
	Statuses      []entities.TaskStatus
	TypeIDs       []uint
	AssigneeID    *uint
	PlannedFrom   string
	PlannedTo     string
	PlannedBefore string
	Batch         string
	Cell          string
}

type TaskRepository interface {
	Create(ctx context.Context, t *entities.Task) error
	FindByID(ctx context.Context, id uint) (*entities.Task, error)
	List(ctx context.Context, q Query) ([]entities.Task, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
	SetPlannedDate(ctx context.Context, ids []uint, day string) (int64, error)
	// CompareAndSwap writes fields only while the row still has status from
	// and the given version, and bumps the version. A miss is a Conflict.
	CompareAndSwap(ctx context.Context, id uint, from entities.TaskStatus, version int, fields map[string]any) error
}
