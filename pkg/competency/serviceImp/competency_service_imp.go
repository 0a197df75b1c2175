package serviceImp

import (
	"context"
	"fmt"

	repo "pvc/pkg/competency/repository"
	"pvc/pkg/competency/service"
)

type resolver struct{ r repo.CompetencyRepository }

func NewResolver(r repo.CompetencyRepository) service.Resolver { return &resolver{r} }

func (s *resolver) ResolveTeamForType(ctx context.Context, typeID uint) (*uint, error) {
	ids, err := s.r.TeamIDsForType(ctx, typeID)
	if err != nil {
		return nil, fmt.Errorf("teams for type %d: %w", typeID, err)
	}
	if len(ids) != 1 {
		return nil, nil
	}
	id := ids[0]
	return &id, nil
}

func (s *resolver) HasCompetency(ctx context.Context, userID, typeID uint) (bool, error) {
	ok, err := s.r.UserHasType(ctx, userID, typeID)
	if err != nil {
		return false, fmt.Errorf("competency of user %d: %w", userID, err)
	}
	return ok, nil
}

func (s *resolver) UserTypeIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.r.TypeIDsForUser(ctx, userID)
}
