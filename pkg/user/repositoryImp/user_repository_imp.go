package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/user/repository"
)

type userRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.UserRepository { return &userRepo{db} }

func (r *userRepo) CreateWithFirstAdmin(ctx context.Context, u *entities.User, fallback entities.Role) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&entities.User{}).Count(&n).Error; err != nil {
			return err
		}
		u.Role = fallback
		if n == 0 {
			u.Role = entities.RoleAdmin
		}
		return tx.Create(u).Error
	})
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	var u entities.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user %d not found", id)
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByTelegramID(ctx context.Context, telegramID string) (*entities.User, error) {
	var u entities.User
	if err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user with telegram id %s not found", telegramID)
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []uint) ([]entities.User, error) {
	var list []entities.User
	if len(ids) == 0 {
		return list, nil
	}
	return list, r.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&list).Error
}

func (r *userRepo) List(ctx context.Context, role *entities.Role) ([]entities.User, error) {
	q := r.db.WithContext(ctx).Model(&entities.User{})
	if role != nil {
		q = q.Where("role = ?", *role)
	}
	var list []entities.User
	return list, q.Order("id asc").Find(&list).Error
}

func (r *userRepo) ListTeamMembers(ctx context.Context, teamID uint) ([]entities.User, error) {
	var list []entities.User
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND role IN ?", teamID, []entities.Role{entities.RoleWorker, entities.RoleAdmin}).
		Order("id asc").
		Find(&list).Error
	return list, err
}

func (r *userRepo) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %d not found", id)
	}
	return nil
}

func (r *userRepo) ReplaceCompetencies(ctx context.Context, userID uint, typeIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&entities.UserCompetency{}).Error; err != nil {
			return err
		}
		seen := map[uint]bool{}
		rows := make([]entities.UserCompetency, 0, len(typeIDs))
		for _, id := range typeIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, entities.UserCompetency{UserID: userID, TypeID: id})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

func (r *userRepo) Competencies(ctx context.Context, userIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []entities.UserCompetency
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("user_id, type_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.TypeID)
	}
	return out, nil
}
