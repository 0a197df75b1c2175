package repositoryImp

import (
	"context"

	"gorm.io/gorm"

	"pvc/entities"
	"pvc/pkg/competency/repository"
)

type competencyRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CompetencyRepository { return &competencyRepo{db} }

func (r *competencyRepo) TeamIDsForType(ctx context.Context, typeID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.TeamType{}).
		Where("type_id = ?", typeID).
		Order("team_id").
		Pluck("team_id", &ids).Error
	return ids, err
}

func (r *competencyRepo) UserHasType(ctx context.Context, userID, typeID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.UserCompetency{}).
		Where("user_id = ? AND type_id = ?", userID, typeID).
		Count(&n).Error
	return n > 0, err
}

func (r *competencyRepo) TypeIDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.UserCompetency{}).
		Where("user_id = ?", userID).
		Order("type_id").
		Pluck("type_id", &ids).Error
	return ids, err
}
