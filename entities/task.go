package entities

import (
	"time"

	"pvc/pkg/effort"
)

type TaskStatus string

const (
	TaskNew        TaskStatus = "New"
	TaskInProgress TaskStatus = "InProgress"
	TaskRework     TaskStatus = "Rework"
	TaskDone       TaskStatus = "Done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNew, TaskInProgress, TaskRework, TaskDone:
		return true
	}
	return false
}

// OpenStatuses are every status except Done.
var OpenStatuses = []TaskStatus{TaskNew, TaskInProgress, TaskRework}

type Task struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Batch          string     `gorm:"index:idx_tasks_batch_cell;not null" json:"batch"`
	Cell           string     `gorm:"index:idx_tasks_batch_cell;not null" json:"cell"`
	TypeID         uint       `gorm:"index;not null" json:"type_id"`
	QtyItems       int        `gorm:"not null" json:"qty_items"`
	ImpostsPerItem int        `gorm:"not null;default:0" json:"imposts_per_item"`
	PlannedDate    string     `gorm:"index;size:10;not null" json:"planned_date"` // YYYY-MM-DD
	Status         TaskStatus `gorm:"index;size:16;not null;default:New" json:"status"`
	TeamID         *uint      `gorm:"index" json:"team_id"`
	AssigneeUserID *uint      `gorm:"index" json:"assignee_user_id"`
	Description    *string    `json:"description"`
	PhotoURL       *string    `json:"photo_url"`

	DoneAt            *time.Time `gorm:"index" json:"done_at"`
	ReworkRequestedAt *time.Time `json:"rework_requested_at"`
	ReworkApprovedAt  *time.Time `json:"rework_approved_at"`
	ReworkDoneAt      *time.Time `gorm:"index" json:"rework_done_at"`
	LateComment       *string    `json:"late_comment"`
	ReworkComment     *string    `json:"rework_comment"`

	// Version increments on every status transition; transitions are
	// conditional on it.
	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SP is the task's effort score.
func (t *Task) SP() int { return effort.Score(t.ImpostsPerItem, t.QtyItems) }
