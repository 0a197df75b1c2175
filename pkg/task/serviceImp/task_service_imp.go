package serviceImp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pvc/entities"
	"pvc/pkg/apperr"
	competency "pvc/pkg/competency/service"
	"pvc/pkg/effort"
	"pvc/pkg/notify"
	repo "pvc/pkg/task/repository"
	"pvc/pkg/task/service"
)

// RefLookup resolves the type and team ids a task points at.
type RefLookup interface {
	FindType(ctx context.Context, id uint) (*entities.ConstructType, error)
	FindTeam(ctx context.Context, id uint) (*entities.Team, error)
}

// Directory lists notification recipients.
type Directory interface {
	List(ctx context.Context, role *entities.Role) ([]entities.User, error)
	ListTeamMembers(ctx context.Context, teamID uint) ([]entities.User, error)
}

type Option func(*taskSvc)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *taskSvc) { s.now = now } }

type taskSvc struct {
	r        repo.TaskRepository
	refs     RefLookup
	resolver competency.Resolver
	users    Directory
	notifier notify.Notifier
	loc      *time.Location
	now      func() time.Time
}

func NewTaskService(r repo.TaskRepository, refs RefLookup, resolver competency.Resolver, users Directory, n notify.Notifier, loc *time.Location, opts ...Option) service.TaskService {
	if loc == nil {
		loc = time.UTC
	}
	s := &taskSvc{r: r, refs: refs, resolver: resolver, users: users, notifier: n, loc: loc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func requireAdmin(actor *entities.User) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin only")
	}
	return nil
}

func (s *taskSvc) View(t entities.Task) service.TaskView {
	return service.TaskView{
		Task:      t,
		SP:        t.SP(),
		IsOverdue: t.Status != entities.TaskDone && effort.IsOverdueDay(t.PlannedDate, s.loc, s.now()),
	}
}

func (s *taskSvc) Create(ctx context.Context, actor *entities.User, in service.CreateInput) (*entities.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	t := &entities.Task{
		Batch:          strings.TrimSpace(in.Batch),
		Cell:           strings.TrimSpace(in.Cell),
		TypeID:         in.TypeID,
		QtyItems:       in.QtyItems,
		ImpostsPerItem: in.ImpostsPerItem,
		Description:    in.Description,
		PhotoURL:       in.PhotoURL,
		Status:         entities.TaskNew,
	}
	day, err := effort.NormalizeDay(strings.TrimSpace(in.PlannedDate))
	if err != nil {
		return nil, apperr.Validation("planned_date: %v", err)
	}
	t.PlannedDate = day
	if err := validateFields(t); err != nil {
		return nil, err
	}
	typ, err := s.refs.FindType(ctx, t.TypeID)
	if err != nil {
		return nil, err
	}

	if in.TeamID != nil {
		if _, err := s.refs.FindTeam(ctx, *in.TeamID); err != nil {
			return nil, err
		}
		t.TeamID = in.TeamID
	} else {
		if t.TeamID, err = s.resolver.ResolveTeamForType(ctx, t.TypeID); err != nil {
			return nil, err
		}
	}

	if err := s.r.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	log.Printf("[task] #%d created %s/%s type=%s team=%v", t.ID, t.Batch, t.Cell, typ.Code, fmtTeam(t.TeamID))

	if t.TeamID != nil {
		members, err := s.users.ListTeamMembers(ctx, *t.TeamID)
		if err != nil {
			log.Printf("[task] #%d team members: %v", t.ID, err)
		}
		var events []notify.Event
		for _, m := range members {
			if m.ID == actor.ID {
				continue
			}
			events = append(events, notify.Event{Kind: notify.KindTaskCreated, RecipientID: m.ID, Task: t, Type: typ, Actor: actor})
		}
		notify.Dispatch(ctx, s.notifier, events)
	}
	return t, nil
}

func fmtTeam(id *uint) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}

func validateFields(t *entities.Task) error {
	switch {
	case t.Batch == "":
		return apperr.Validation("batch is required")
	case t.Cell == "":
		return apperr.Validation("cell is required")
	case t.TypeID == 0:
		return apperr.Validation("type_id is required")
	case t.QtyItems < 1:
		return apperr.Validation("qty_items must be at least 1")
	case t.ImpostsPerItem < 0:
		return apperr.Validation("imposts_per_item must not be negative")
	}
	return nil
}

func (s *taskSvc) Update(ctx context.Context, actor *entities.User, id uint, p service.TaskPatch) (*entities.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	cur, err := s.r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	fields := map[string]any{}
	if p.Batch != nil {
		next.Batch = strings.TrimSpace(*p.Batch)
		fields["batch"] = next.Batch
	}
	if p.Cell != nil {
		next.Cell = strings.TrimSpace(*p.Cell)
		fields["cell"] = next.Cell
	}
	if p.QtyItems != nil {
		next.QtyItems = *p.QtyItems
		fields["qty_items"] = next.QtyItems
	}
	if p.ImpostsPerItem != nil {
		next.ImpostsPerItem = *p.ImpostsPerItem
		fields["imposts_per_item"] = next.ImpostsPerItem
	}
	if p.PlannedDate != nil {
		day, err := effort.NormalizeDay(strings.TrimSpace(*p.PlannedDate))
		if err != nil {
			return nil, apperr.Validation("planned_date: %v", err)
		}
		fields["planned_date"] = day
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.PhotoURL != nil {
		fields["photo_url"] = *p.PhotoURL
	}

	typeChanged := false
	if p.TypeID != nil && *p.TypeID != cur.TypeID {
		if _, err := s.refs.FindType(ctx, *p.TypeID); err != nil {
			return nil, err
		}
		next.TypeID = *p.TypeID
		fields["type_id"] = next.TypeID
		typeChanged = true
	}
	if err := validateFields(&next); err != nil {
		return nil, err
	}

	switch {
	case p.TeamID.Set:
		if p.TeamID.Value != nil {
			if _, err := s.refs.FindTeam(ctx, *p.TeamID.Value); err != nil {
				return nil, err
			}
		}
		fields["team_id"] = p.TeamID.Value
	case typeChanged:
		team, err := s.resolver.ResolveTeamForType(ctx, next.TypeID)
		if err != nil {
			return nil, err
		}
		fields["team_id"] = team
	}

	if err := s.r.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.r.FindByID(ctx, id)
}

func (s *taskSvc) Get(ctx context.Context, actor *entities.User, id uint) (*entities.Task, error) {
	if actor == nil {
		return nil, apperr.Forbidden("not signed in")
	}
	return s.r.FindByID(ctx, id)
}

func (s *taskSvc) List(ctx context.Context, actor *entities.User, f service.Filter) ([]entities.Task, error) {
	if actor == nil {
		return nil, apperr.Forbidden("not signed in")
	}
	var q repo.Query
	if f.TypeID != nil {
		q.TypeIDs = []uint{*f.TypeID}
	}
	if f.Status != nil {
		if !f.Status.Valid() {
			return nil, apperr.Validation("unknown status %q", *f.Status)
		}
		q.Statuses = []entities.TaskStatus{*f.Status}
	}
	var err error
	if q.PlannedFrom, err = optionalDay(f.DateFrom); err != nil {
		return nil, apperr.Validation("date_from: %v", err)
	}
	if q.PlannedTo, err = optionalDay(f.DateTo); err != nil {
		return nil, apperr.Validation("date_to: %v", err)
	}
	if f.Overdue {
		q.PlannedFrom, q.PlannedTo = "", ""
		q.PlannedBefore = effort.DayKey(s.now(), s.loc)
		q.Statuses = entities.OpenStatuses
	}

	switch actor.Role {
	case entities.RoleAdmin:
		q.TeamID = f.TeamID
		if f.Mine {
			q.AssigneeID = &actor.ID
		}
	case entities.RoleWorker:
		if f.Mine {
			q.AssigneeID = &actor.ID
			break
		}
		// the pool: own team, narrowed to the worker's own types
		if actor.TeamID == nil {
			return []entities.Task{}, nil
		}
		q.TeamID = actor.TeamID
		types, err := s.resolver.UserTypeIDs(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if len(types) > 0 {
			if f.TypeID != nil && !containsID(types, *f.TypeID) {
				return []entities.Task{}, nil
			}
			if f.TypeID == nil {
				q.TypeIDs = types
			}
		}
	case entities.RoleBanned, entities.RolePending:
		return nil, apperr.Forbidden("user is not active")
	default:
		return nil, apperr.Forbidden("unknown role %q", actor.Role)
	}
	return s.r.List(ctx, q)
}

func containsID(ids []uint, id uint) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func optionalDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	return effort.NormalizeDay(s)
}

func (s *taskSvc) Delete(ctx context.Context, actor *entities.User, id uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.r.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[task] #%d deleted by user %d", id, actor.ID)
	return nil
}

func (s *taskSvc) Transition(ctx context.Context, actor *entities.User, id uint, req service.TransitionRequest) (*entities.Task, error) {
	if actor == nil {
		return nil, apperr.Forbidden("not signed in")
	}
	t, err := s.r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkMove(t.Status, req.Status); err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, t, actor, req.Status); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := requireInput(t, req, s.loc, now); err != nil {
		return nil, err
	}

	if err := s.r.CompareAndSwap(ctx, t.ID, t.Status, t.Version, stamp(t, actor, req, now)); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			if latest, ferr := s.r.FindByID(ctx, id); ferr == nil {
				return nil, apperr.InvalidTransition("task %d is already %s", id, latest.Status)
			}
			return nil, apperr.InvalidTransition("task %d was changed concurrently", id)
		}
		return nil, fmt.Errorf("transition task %d: %w", id, err)
	}
	from := t.Status
	if t, err = s.r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	log.Printf("[task] #%d %s -> %s by user %d", t.ID, from, t.Status, actor.ID)

	s.notifyTransition(ctx, from, t, actor)
	return t, nil
}

// authorize is the role gate of a legal move.
func (s *taskSvc) authorize(ctx context.Context, t *entities.Task, actor *entities.User, to entities.TaskStatus) error {
	switch actor.Role {
	case entities.RoleAdmin:
		return nil
	case entities.RoleWorker:
		switch t.Status {
		case entities.TaskNew:
			ok, err := s.resolver.HasCompetency(ctx, actor.ID, t.TypeID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.Forbidden("task type is outside your competencies")
			}
			return nil
		case entities.TaskRework:
			return apperr.Forbidden("only an admin can approve rework")
		case entities.TaskInProgress:
			if t.AssigneeUserID == nil || *t.AssigneeUserID != actor.ID {
				return apperr.Forbidden("not your task")
			}
			return nil
		case entities.TaskDone:
			return apperr.InvalidTransition("task is done")
		}
		return apperr.InvalidTransition("unknown status %q", t.Status)
	case entities.RoleBanned, entities.RolePending:
		return apperr.Forbidden("user is not active")
	}
	return apperr.Forbidden("unknown role %q", actor.Role)
}

func (s *taskSvc) notifyTransition(ctx context.Context, from entities.TaskStatus, t *entities.Task, actor *entities.User) {
	var (
		kind       notify.Kind
		recipients []uint
	)
	switch (move{from, t.Status}) {
	case move{entities.TaskRework, entities.TaskInProgress}:
		if t.AssigneeUserID == nil {
			return
		}
		kind, recipients = notify.KindReworkApproved, []uint{*t.AssigneeUserID}
	case move{entities.TaskInProgress, entities.TaskDone}:
		kind, recipients = notify.KindTaskCompleted, s.adminIDs(ctx)
	case move{entities.TaskInProgress, entities.TaskRework}:
		kind, recipients = notify.KindReworkRequested, s.adminIDs(ctx)
	default:
		return
	}

	typ, err := s.refs.FindType(ctx, t.TypeID)
	if err != nil {
		log.Printf("[task] #%d type for notification: %v", t.ID, err)
		typ = nil
	}
	events := make([]notify.Event, 0, len(recipients))
	for _, id := range recipients {
		events = append(events, notify.Event{Kind: kind, RecipientID: id, Task: t, Type: typ, Actor: actor})
	}
	notify.Dispatch(ctx, s.notifier, events)
}

func (s *taskSvc) adminIDs(ctx context.Context) []uint {
	role := entities.RoleAdmin
	admins, err := s.users.List(ctx, &role)
	if err != nil {
		log.Printf("[task] list admins: %v", err)
		return nil
	}
	ids := make([]uint, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}
	return ids
}

func (s *taskSvc) Reschedule(ctx context.Context, actor *entities.User, ids []uint, plannedDate string) (int64, error) {
	if err := requireAdmin(actor); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, apperr.Validation("ids are required")
	}
	day, err := effort.NormalizeDay(strings.TrimSpace(plannedDate))
	if err != nil {
		return 0, apperr.Validation("planned_date: %v", err)
	}
	n, err := s.r.SetPlannedDate(ctx, ids, day)
	if err != nil {
		return 0, fmt.Errorf("reschedule: %w", err)
	}
	log.Printf("[task] %d task(s) moved to %s by user %d", n, day, actor.ID)
	return n, nil
}

func (s *taskSvc) ListUnassigned(ctx context.Context, actor *entities.User) ([]entities.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.r.List(ctx, repo.Query{Unassigned: true, Statuses: entities.OpenStatuses})
}

func (s *taskSvc) AssignTeam(ctx context.Context, actor *entities.User, id uint, teamID *uint) (*entities.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if teamID != nil {
		if _, err := s.refs.FindTeam(ctx, *teamID); err != nil {
			return nil, err
		}
	}
	if err := s.r.Update(ctx, id, map[string]any{"team_id": teamID}); err != nil {
		return nil, err
	}
	return s.r.FindByID(ctx, id)
}

func (s *taskSvc) ListOverdue(ctx context.Context, asOf time.Time) ([]entities.Task, error) {
	return s.r.List(ctx, repo.Query{
		Statuses:      entities.OpenStatuses,
		PlannedBefore: effort.DayKey(asOf, s.loc),
	})
}

func (s *taskSvc) FindOpen(ctx context.Context, batch, cell string) (*entities.Task, error) {
	list, err := s.r.List(ctx, repo.Query{
		Batch:    strings.TrimSpace(batch),
		Cell:     strings.TrimSpace(cell),
		Statuses: []entities.TaskStatus{entities.TaskNew, entities.TaskInProgress},
	})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperr.NotFound("no open task at %s/%s", batch, cell)
	}
	return &list[0], nil
}
