package serviceImp

import (
	"context"
	"log"
	"strings"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/notify"
	repo "pvc/pkg/user/repository"
	"pvc/pkg/user/service"
)

// RefLookup checks the team and type ids a user update points at.
type RefLookup interface {
	FindTeam(ctx context.Context, id uint) (*entities.Team, error)
	FindType(ctx context.Context, id uint) (*entities.ConstructType, error)
}

type userSvc struct {
	r        repo.UserRepository
	refs     RefLookup
	notifier notify.Notifier
}

func NewUserService(r repo.UserRepository, refs RefLookup, n notify.Notifier) service.UserService {
	return &userSvc{r: r, refs: refs, notifier: n}
}

func (s *userSvc) Register(ctx context.Context, in service.RegisterInput) (*entities.User, bool, error) {
	in.TelegramID = strings.TrimSpace(in.TelegramID)
	if in.TelegramID == "" {
		return nil, false, apperr.Validation("telegram_id is required")
	}
	if u, err := s.r.FindByTelegramID(ctx, in.TelegramID); err == nil {
		return u, false, nil
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, false, err
	}

	u := &entities.User{
		TelegramID: in.TelegramID,
		Username:   in.Username,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
	}
	if err := s.r.CreateWithFirstAdmin(ctx, u, entities.RolePending); err != nil {
		return nil, false, err
	}
	log.Printf("[user] registered %s as %s", u.TelegramID, u.Role)

	if u.Role == entities.RolePending {
		admin := entities.RoleAdmin
		admins, err := s.r.List(ctx, &admin)
		if err != nil {
			log.Printf("[user] list admins: %v", err)
		}
		events := make([]notify.Event, 0, len(admins))
		for _, a := range admins {
			events = append(events, notify.Event{Kind: notify.KindUserPending, RecipientID: a.ID, Subject: u})
		}
		notify.Dispatch(ctx, s.notifier, events)
	}
	return u, true, nil
}

func (s *userSvc) Me(ctx context.Context, actor *entities.User) (*service.UserView, error) {
	if actor == nil {
		return nil, apperr.Forbidden("not signed in")
	}
	views, err := s.views(ctx, []entities.User{*actor})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *userSvc) List(ctx context.Context, actor *entities.User, role *entities.Role) ([]service.UserView, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if role != nil && !role.Valid() {
		return nil, apperr.Validation("unknown role %q", *role)
	}
	list, err := s.r.List(ctx, role)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

func (s *userSvc) Update(ctx context.Context, actor *entities.User, id uint, p service.UserPatch) (*service.UserView, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("admin only")
	}
	if _, err := s.r.FindByID(ctx, id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, apperr.Validation("unknown role %q", *p.Role)
		}
		fields["role"] = *p.Role
	}
	if p.TeamID.Set {
		if p.TeamID.Value != nil {
			if _, err := s.refs.FindTeam(ctx, *p.TeamID.Value); err != nil {
				return nil, err
			}
		}
		fields["team_id"] = p.TeamID.Value
	}
	if p.TypeIDs != nil {
		for _, tid := range *p.TypeIDs {
			if _, err := s.refs.FindType(ctx, tid); err != nil {
				return nil, err
			}
		}
	}

	if err := s.r.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	if p.TypeIDs != nil {
		if err := s.r.ReplaceCompetencies(ctx, id, *p.TypeIDs); err != nil {
			return nil, err
		}
	}

	u, err := s.r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []entities.User{*u})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *userSvc) views(ctx context.Context, users []entities.User) ([]service.UserView, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	comps, err := s.r.Competencies(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]service.UserView, len(users))
	for i, u := range users {
		types := comps[u.ID]
		if types == nil {
			types = []uint{}
		}
		out[i] = service.UserView{User: u, TypeIDs: types}
	}
	return out, nil
}
