package service

import (
	"context"
	"time"

	"pvc/entities"
	"pvc/pkg/nullable"
)

type CreateInput struct {
	Batch          string  `json:"batch"`
	Cell           string  `json:"cell"`
	TypeID         uint    `json:"type_id"`
	QtyItems       int     `json:"qty_items"`
	ImpostsPerItem int     `json:"imposts_per_item"`
	PlannedDate    string  `json:"planned_date"`
	Description    *string `json:"description"`
	PhotoURL       *string `json:"photo_url"`
	TeamID         *uint   `json:"team_id"` // nil: resolve from the type
}

// TaskPatch leaves nil fields alone. A set TeamID, null included, always wins
// over the type's team.
type TaskPatch struct {
	Batch          *string              `json:"batch"`
	Cell           *string              `json:"cell"`
	TypeID         *uint                `json:"type_id"`
	QtyItems       *int                 `json:"qty_items"`
	ImpostsPerItem *int                 `json:"imposts_per_item"`
	PlannedDate    *string              `json:"planned_date"`
	Description    *string              `json:"description"`
	PhotoURL       *string              `json:"photo_url"`
	TeamID         nullable.Field[uint] `json:"team_id"`
}

type Filter struct {
	TeamID   *uint
	Status   *entities.TaskStatus
	TypeID   *uint
	DateFrom string
	DateTo   string
	Overdue  bool
	Mine     bool
}

type TransitionRequest struct {
	Status        entities.TaskStatus `json:"status"`
	LateComment   *string             `json:"late_comment"`
	ReworkComment *string             `json:"rework_comment"`
}

// TaskView is a task with its derived fields.
type TaskView struct {
	entities.Task
	SP        int  `json:"sp"`
	IsOverdue bool `json:"is_overdue"`
}

type TaskService interface {
	Create(ctx context.Context, actor *entities.User, in CreateInput) (*entities.Task, error)
	Update(ctx context.Context, actor *entities.User, id uint, p TaskPatch) (*entities.Task, error)
	Get(ctx context.Context, actor *entities.User, id uint) (*entities.Task, error)
	List(ctx context.Context, actor *entities.User, f Filter) ([]entities.Task, error)
	Delete(ctx context.Context, actor *entities.User, id uint) error
	Transition(ctx context.Context, actor *entities.User, id uint, req TransitionRequest) (*entities.Task, error)
	Reschedule(ctx context.Context, actor *entities.User, ids []uint, plannedDate string) (int64, error)
	ListUnassigned(ctx context.Context, actor *entities.User) ([]entities.Task, error)
	AssignTeam(ctx context.Context, actor *entities.User, id uint, teamID *uint) (*entities.Task, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]entities.Task, error)
	// FindOpen returns the New or InProgress task at batch/cell, if any.
	FindOpen(ctx context.Context, batch, cell string) (*entities.Task, error)
	View(t entities.Task) TaskView
}
