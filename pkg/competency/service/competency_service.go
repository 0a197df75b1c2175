package service

import "context"

// Resolver routes construction types to teams and gates personal execution.
type Resolver interface {
	// ResolveTeamForType returns the only team able to do typeID, or nil
	// when zero or several teams can.
	ResolveTeamForType(ctx context.Context, typeID uint) (*uint, error)
	HasCompetency(ctx context.Context, userID, typeID uint) (bool, error)
	UserTypeIDs(ctx context.Context, userID uint) ([]uint, error)
}
