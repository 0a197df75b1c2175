package repository

import "context"

type CompetencyRepository interface {
	TeamIDsForType(ctx context.Context, typeID uint) ([]uint, error)
	UserHasType(ctx context.Context, userID, typeID uint) (bool, error)
	TypeIDsForUser(ctx context.Context, userID uint) ([]uint, error)
}
