package repository

import (
	"context"

	"pvc/entities"
)

type UserRepository interface {
	// CreateWithFirstAdmin inserts u as admin when no user exists yet and as
	// fallback otherwise, in one transaction.
	CreateWithFirstAdmin(ctx context.Context, u *entities.User, fallback entities.Role) error
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByTelegramID(ctx context.Context, telegramID string) (*entities.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entities.User, error)
	List(ctx context.Context, role *entities.Role) ([]entities.User, error)
	ListTeamMembers(ctx context.Context, teamID uint) ([]entities.User, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	ReplaceCompetencies(ctx context.Context, userID uint, typeIDs []uint) error
	Competencies(ctx context.Context, userIDs []uint) (map[uint][]uint, error)
}
