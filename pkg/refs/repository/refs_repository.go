package repository

import (
	"context"

	"pvc/entities"
)

type RefsRepository interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error)
	FindType(ctx context.Context, id uint) (*entities.ConstructType, error)
	FindTypeByCode(ctx context.Context, code string) (*entities.ConstructType, error)
	CreateType(ctx context.Context, t *entities.ConstructType) error
	UpdateType(ctx context.Context, id uint, fields map[string]any) error

	ListTeams(ctx context.Context) ([]entities.Team, error)
	FindTeam(ctx context.Context, id uint) (*entities.Team, error)
	FindTeamByName(ctx context.Context, name string) (*entities.Team, error)
	CreateTeam(ctx context.Context, t *entities.Team, typeIDs []uint) error
	RenameTeam(ctx context.Context, id uint, name string) error
	ReplaceTeamTypes(ctx context.Context, teamID uint, typeIDs []uint) error
	TeamTypeIDs(ctx context.Context, teamIDs []uint) (map[uint][]uint, error)
	TeamsForType(ctx context.Context, typeID uint) ([]entities.Team, error)
}
