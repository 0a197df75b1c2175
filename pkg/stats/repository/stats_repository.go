package repository

import (
	"context"
	"time"

	"pvc/entities"
)

type StatsRepository interface {
	// WindowTasks returns tasks planned between the two days or finished
	// (or rework-finished) between the two instants. It may return more.
	WindowTasks(ctx context.Context, fromDay, toDay string, from, to time.Time) ([]entities.Task, error)
	ByStatus(ctx context.Context, statuses []entities.TaskStatus, plannedBefore string) ([]entities.Task, error)
	Workers(ctx context.Context, teamID *uint) ([]entities.User, error)
	Types(ctx context.Context) (map[uint]entities.ConstructType, error)
}
