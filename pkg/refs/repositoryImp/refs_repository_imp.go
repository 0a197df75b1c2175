package repositoryImp

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/refs/repository"
)

type refsRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.RefsRepository { return &refsRepo{db} }

func (r *refsRepo) ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error) {
	q := r.db.WithContext(ctx).Model(&entities.ConstructType{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []entities.ConstructType
	return list, q.Order("code asc").Find(&list).Error
}

func (r *refsRepo) FindType(ctx context.Context, id uint) (*entities.ConstructType, error) {
	var t entities.ConstructType
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("construct type %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *refsRepo) FindTypeByCode(ctx context.Context, code string) (*entities.ConstructType, error) {
	var t entities.ConstructType
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("construct type %q not found", code)
		}
		return nil, err
	}
	return &t, nil
}

func (r *refsRepo) CreateType(ctx context.Context, t *entities.ConstructType) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *refsRepo) UpdateType(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&entities.ConstructType{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("construct type %d not found", id)
	}
	return nil
}

func (r *refsRepo) ListTeams(ctx context.Context) ([]entities.Team, error) {
	var list []entities.Team
	return list, r.db.WithContext(ctx).Order("name asc").Find(&list).Error
}

func (r *refsRepo) FindTeam(ctx context.Context, id uint) (*entities.Team, error) {
	var t entities.Team
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("team %d not found", id)
		}
		return nil, err
	}
	return &t, nil
}

func (r *refsRepo) FindTeamByName(ctx context.Context, name string) (*entities.Team, error) {
	var t entities.Team
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("team %q not found", name)
		}
		return nil, err
	}
	return &t, nil
}

func (r *refsRepo) CreateTeam(ctx context.Context, t *entities.Team, typeIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		return insertTeamTypes(tx, t.ID, typeIDs)
	})
}

func (r *refsRepo) RenameTeam(ctx context.Context, id uint, name string) error {
	res := r.db.WithContext(ctx).Model(&entities.Team{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("team %d not found", id)
	}
	return nil
}

func (r *refsRepo) ReplaceTeamTypes(ctx context.Context, teamID uint, typeIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", teamID).Delete(&entities.TeamType{}).Error; err != nil {
			return err
		}
		return insertTeamTypes(tx, teamID, typeIDs)
	})
}

func insertTeamTypes(tx *gorm.DB, teamID uint, typeIDs []uint) error {
	seen := map[uint]bool{}
	rows := make([]entities.TeamType, 0, len(typeIDs))
	for _, id := range typeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, entities.TeamType{TeamID: teamID, TypeID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func (r *refsRepo) TeamTypeIDs(ctx context.Context, teamIDs []uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}
	var rows []entities.TeamType
	if err := r.db.WithContext(ctx).Where("team_id IN ?", teamIDs).Order("team_id, type_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TeamID] = append(out[row.TeamID], row.TypeID)
	}
	return out, nil
}

func (r *refsRepo) TeamsForType(ctx context.Context, typeID uint) ([]entities.Team, error) {
	var list []entities.Team
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&entities.TeamType{}).Select("team_id").Where("type_id = ?", typeID)).
		Order("name asc").
		Find(&list).Error
	return list, err
}
