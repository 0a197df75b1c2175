package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/task/repository"
)

type taskRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.TaskRepository { return &taskRepo{db} }

func (r *taskRepo) Create(ctx context.Context, t *entities.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *taskRepo) FindByID(ctx context.Context, id uint) (*entities.Task, error) {
	var t entities.Task
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("task %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) List(ctx context.Context, q repository.Query) ([]entities.Task, error) {
	db := r.db.WithContext(ctx).Model(&entities.Task{})
	if len(q.IDs) > 0 {
		db = db.Where("id IN ?", q.IDs)
	}
	if q.Unassigned {
		db = db.Where("team_id IS NULL")
	} else if q.TeamID != nil {
		db = db.Where("team_id = ?", *q.TeamID)
	}
	if len(q.Statuses) > 0 {
		db = db.Where("status IN ?", q.Statuses)
	}
	if len(q.TypeIDs) > 0 {
		db = db.Where("type_id IN ?", q.TypeIDs)
	}
	if q.AssigneeID != nil {
		db = db.Where("assignee_user_id = ?", *q.AssigneeID)
	}
	if q.PlannedFrom != "" {
		db = db.Where("planned_date >= ?", q.PlannedFrom)
	}
	if q.PlannedTo != "" {
		db = db.Where("planned_date <= ?", q.PlannedTo)
	}
	if q.PlannedBefore != "" {
		db = db.Where("planned_date < ?", q.PlannedBefore)
	}
	if q.Batch != "" {
		db = db.Where("batch = ?", q.Batch)
	}
	if q.Cell != "" {
		db = db.Where("cell = ?", q.Cell)
	}
	var list []entities.Task
	return list, db.Order("planned_date asc, id asc").Find(&list).Error
}

func (r *taskRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&entities.Task{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("task %d not found", id)
	}
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&entities.Task{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("task %d not found", id)
	}
	return nil
}

func (r *taskRepo) SetPlannedDate(ctx context.Context, ids []uint, day string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&entities.Task{}).Where("id IN ?", ids).Update("planned_date", day)
	return res.RowsAffected, res.Error
}

func (r *taskRepo) CompareAndSwap(ctx context.Context, id uint, from entities.TaskStatus, version int, fields map[string]any) error {
	set := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set["version"] = gorm.Expr("version + 1")

	res := r.db.WithContext(ctx).Model(&entities.Task{}).
		Where("id = ? AND status = ? AND version = ?", id, from, version).
		Updates(set)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return apperr.Conflict("task %d is no longer %s", id, from)
	}
	return nil
}
