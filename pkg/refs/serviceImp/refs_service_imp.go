package serviceImp

import (
	"context"
	"strings"

	"pvc/entities"
	"pvc/pkg/apperr"
	repo "pvc/pkg/refs/repository"
	"pvc/pkg/refs/service"
)

type refsSvc struct{ r repo.RefsRepository }

func NewRefsService(r repo.RefsRepository) service.RefsService { return &refsSvc{r} }

func normCode(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func (s *refsSvc) ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error) {
	return s.r.ListTypes(ctx, activeOnly)
}

func (s *refsSvc) CreateType(ctx context.Context, actor *entities.User, in service.TypeInput) (*entities.ConstructType, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if in.Code == nil || normCode(*in.Code) == "" {
		return nil, apperr.Validation("code is required")
	}
	if in.Label == nil || strings.TrimSpace(*in.Label) == "" {
		return nil, apperr.Validation("label is required")
	}
	code := normCode(*in.Code)
	if err := s.codeFree(ctx, code, 0); err != nil {
		return nil, err
	}
	t := &entities.ConstructType{Code: code, Label: strings.TrimSpace(*in.Label), IsActive: true}
	if in.IsActive != nil {
		t.IsActive = *in.IsActive
	}
	if err := s.r.CreateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *refsSvc) UpdateType(ctx context.Context, actor *entities.User, id uint, in service.TypeInput) (*entities.ConstructType, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if _, err := s.r.FindType(ctx, id); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.Code != nil {
		code := normCode(*in.Code)
		if code == "" {
			return nil, apperr.Validation("code must not be empty")
		}
		if err := s.codeFree(ctx, code, id); err != nil {
			return nil, err
		}
		fields["code"] = code
	}
	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, apperr.Validation("label must not be empty")
		}
		fields["label"] = label
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if err := s.r.UpdateType(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.r.FindType(ctx, id)
}

func (s *refsSvc) codeFree(ctx context.Context, code string, self uint) error {
	other, err := s.r.FindTypeByCode(ctx, code)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return apperr.Validation("type code %q already exists", code)
	}
	return nil
}

func (s *refsSvc) ListTeams(ctx context.Context) ([]service.TeamView, error) {
	teams, err := s.r.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, teams)
}

func (s *refsSvc) CreateTeam(ctx context.Context, actor *entities.User, in service.TeamInput) (*service.TeamView, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	name := strings.TrimSpace(*in.Name)
	if err := s.nameFree(ctx, name, 0); err != nil {
		return nil, err
	}
	var typeIDs []uint
	if in.TypeIDs != nil {
		typeIDs = *in.TypeIDs
	}
	if err := s.checkTypes(ctx, typeIDs); err != nil {
		return nil, err
	}
	t := &entities.Team{Name: name}
	if err := s.r.CreateTeam(ctx, t, typeIDs); err != nil {
		return nil, err
	}
	return s.view(ctx, t.ID)
}

func (s *refsSvc) UpdateTeam(ctx context.Context, actor *entities.User, id uint, in service.TeamInput) (*service.TeamView, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if _, err := s.r.FindTeam(ctx, id); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		if err := s.nameFree(ctx, name, id); err != nil {
			return nil, err
		}
		if err := s.r.RenameTeam(ctx, id, name); err != nil {
			return nil, err
		}
	}
	if in.TypeIDs != nil {
		if err := s.checkTypes(ctx, *in.TypeIDs); err != nil {
			return nil, err
		}
		if err := s.r.ReplaceTeamTypes(ctx, id, *in.TypeIDs); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, id)
}

func (s *refsSvc) TeamsForType(ctx context.Context, typeID uint) ([]entities.Team, error) {
	if _, err := s.r.FindType(ctx, typeID); err != nil {
		return nil, err
	}
	return s.r.TeamsForType(ctx, typeID)
}

func (s *refsSvc) nameFree(ctx context.Context, name string, self uint) error {
	other, err := s.r.FindTeamByName(ctx, name)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != self:
		return apperr.Validation("team %q already exists", name)
	}
	return nil
}

func (s *refsSvc) checkTypes(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		if _, err := s.r.FindType(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *refsSvc) view(ctx context.Context, id uint) (*service.TeamView, error) {
	t, err := s.r.FindTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []entities.Team{*t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *refsSvc) views(ctx context.Context, teams []entities.Team) ([]service.TeamView, error) {
	ids := make([]uint, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	types, err := s.r.TeamTypeIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]service.TeamView, len(teams))
	for i, t := range teams {
		tids := types[t.ID]
		if tids == nil {
			tids = []uint{}
		}
		out[i] = service.TeamView{Team: t, TypeIDs: tids}
	}
	return out, nil
}
