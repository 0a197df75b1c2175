package repositoryImp

import (
	"context"
	"time"

	"gorm.io/gorm"

	"pvc/entities"
	"pvc/pkg/stats/repository"
)

type statsRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.StatsRepository { return &statsRepo{db} }

func (r *statsRepo) WindowTasks(ctx context.Context, fromDay, toDay string, from, to time.Time) ([]entities.Task, error) {
	// stored instants are UTC; a day of slack on each side keeps the text
	// comparison safe, the aggregator trims precisely
	from = from.UTC().Add(-24 * time.Hour)
	to = to.UTC().Add(24 * time.Hour)

	var list []entities.Task
	err := r.db.WithContext(ctx).
		Where("planned_date BETWEEN ? AND ?", fromDay, toDay).
		Or("done_at BETWEEN ? AND ?", from, to).
		Or("rework_done_at BETWEEN ? AND ?", from, to).
		Order("id asc").
		Find(&list).Error
	return list, err
}

func (r *statsRepo) ByStatus(ctx context.Context, statuses []entities.TaskStatus, plannedBefore string) ([]entities.Task, error) {
	q := r.db.WithContext(ctx).Where("status IN ?", statuses)
	if plannedBefore != "" {
		q = q.Where("planned_date < ?", plannedBefore)
	}
	var list []entities.Task
	return list, q.Order("planned_date asc, id asc").Find(&list).Error
}

func (r *statsRepo) Workers(ctx context.Context, teamID *uint) ([]entities.User, error) {
	q := r.db.WithContext(ctx).Where("role = ?", entities.RoleWorker)
	if teamID != nil {
		q = q.Where("team_id = ?", *teamID)
	}
	var list []entities.User
	return list, q.Order("id asc").Find(&list).Error
}

func (r *statsRepo) Types(ctx context.Context) (map[uint]entities.ConstructType, error) {
	var list []entities.ConstructType
	if err := r.db.WithContext(ctx).Find(&list).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]entities.ConstructType, len(list))
	for _, t := range list {
		out[t.ID] = t
	}
	return out, nil
}
