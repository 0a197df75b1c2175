package service

import (
	"context"

	"pvc/entities"
)

type TypeInput struct {
	Code     *string `json:"code"`
	Label    *string `json:"label"`
	IsActive *bool   `json:"is_active"`
}

type TeamInput struct {
	Name    *string `json:"name"`
	TypeIDs *[]uint `json:"type_ids"`
}

type TeamView struct {
	entities.Team
	TypeIDs []uint `json:"type_ids"`
}

type RefsService interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error)
	CreateType(ctx context.Context, actor *entities.User, in TypeInput) (*entities.ConstructType, error)
	UpdateType(ctx context.Context, actor *entities.User, id uint, in TypeInput) (*entities.ConstructType, error)

	ListTeams(ctx context.Context) ([]TeamView, error)
	CreateTeam(ctx context.Context, actor *entities.User, in TeamInput) (*TeamView, error)
	UpdateTeam(ctx context.Context, actor *entities.User, id uint, in TeamInput) (*TeamView, error)
	TeamsForType(ctx context.Context, typeID uint) ([]entities.Team, error)
}
