package serviceImp

import (
	"strings"
	"time"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/effort"
	"pvc/pkg/task/service"
)

type move struct{ from, to entities.TaskStatus }

// transitions is the whole lifecycle. Done has no way out.
var transitions = map[move]bool{
	{entities.TaskNew, entities.TaskInProgress}:    true,
	{entities.TaskRework, entities.TaskInProgress}: true,
	{entities.TaskInProgress, entities.TaskDone}:   true,
	{entities.TaskInProgress, entities.TaskRework}: true,
}

func checkMove(from, to entities.TaskStatus) error {
	if !to.Valid() {
		return apperr.Validation("unknown status %q", to)
	}
	if !transitions[move{from, to}] {
		return apperr.InvalidTransition("cannot move task from %s to %s", from, to)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// requireInput checks the comments a move needs.
func requireInput(t *entities.Task, req service.TransitionRequest, loc *time.Location, now time.Time) error {
	switch {
	case t.Status == entities.TaskInProgress && req.Status == entities.TaskRework:
		if trimmed(req.ReworkComment) == "" {
			return apperr.Validation("rework_comment is required")
		}
	case t.Status == entities.TaskInProgress && req.Status == entities.TaskDone:
		if effort.IsOverdueDay(t.PlannedDate, loc, now) && trimmed(req.LateComment) == "" {
			return apperr.Validation("late_comment is required: task was due %s", t.PlannedDate)
		}
	}
	return nil
}

// stamp returns the columns a legal move writes.
func stamp(t *entities.Task, actor *entities.User, req service.TransitionRequest, now time.Time) map[string]any {
	f := map[string]any{"status": req.Status}
	switch (move{t.Status, req.Status}) {
	case move{entities.TaskNew, entities.TaskInProgress}:
		f["assignee_user_id"] = actor.ID
	case move{entities.TaskRework, entities.TaskInProgress}:
		f["rework_approved_at"] = now
	case move{entities.TaskInProgress, entities.TaskDone}:
		f["done_at"] = now
		if t.ReworkApprovedAt != nil {
			f["rework_done_at"] = now
		}
		if c := trimmed(req.LateComment); c != "" {
			f["late_comment"] = c
		}
	case move{entities.TaskInProgress, entities.TaskRework}:
		f["rework_comment"] = trimmed(req.ReworkComment)
		f["rework_requested_at"] = now
	}
	return f
}
