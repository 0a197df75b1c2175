package serviceImp

import (
	"context"
	"math"
	"strings"
	"time"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/effort"
	"pvc/pkg/stats/aggregate"
	repo "pvc/pkg/stats/repository"
	"pvc/pkg/stats/service"
)

// DefaultDays is the report window when no dates are given.
const DefaultDays = 7

// briefLimit caps the task lists of a summary.
const briefLimit = 5

type Option func(*statsSvc)

func WithClock(now func() time.Time) Option { return func(s *statsSvc) { s.now = now } }

type statsSvc struct {
	r   repo.StatsRepository
	loc *time.Location
	now func() time.Time
}

func NewStatsService(r repo.StatsRepository, loc *time.Location, opts ...Option) service.StatsService {
	if loc == nil {
		loc = time.UTC
	}
	s := &statsSvc{r: r, loc: loc, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *statsSvc) window(q service.Query) (aggregate.Window, error) {
	today := effort.StartOfDay(s.now().In(s.loc))
	w := aggregate.Window{
		From:   today.AddDate(0, 0, -DefaultDays).Format(effort.DayLayout),
		To:     today.Format(effort.DayLayout),
		TeamID: q.TeamID,
	}
	if v := strings.TrimSpace(q.DateFrom); v != "" {
		day, err := effort.NormalizeDay(v)
		if err != nil {
			return w, apperr.Validation("date_from: %v", err)
		}
		w.From = day
	}
	if v := strings.TrimSpace(q.DateTo); v != "" {
		day, err := effort.NormalizeDay(v)
		if err != nil {
			return w, apperr.Validation("date_to: %v", err)
		}
		w.To = day
	}
	if w.From > w.To {
		return w, apperr.Validation("date_from %s is after date_to %s", w.From, w.To)
	}
	return w, nil
}

func (s *statsSvc) load(ctx context.Context, w aggregate.Window) ([]entities.Task, error) {
	from, err := effort.ParseDay(w.From, s.loc)
	if err != nil {
		return nil, err
	}
	to, err := effort.ParseDay(w.To, s.loc)
	if err != nil {
		return nil, err
	}
	return s.r.WindowTasks(ctx, w.From, w.To, from, effort.EndOfDay(to))
}

func active(actor *entities.User) error {
	if actor == nil {
		return apperr.Forbidden("not signed in")
	}
	switch actor.Role {
	case entities.RoleAdmin, entities.RoleWorker:
		return nil
	case entities.RoleBanned, entities.RolePending:
		return apperr.Forbidden("user is not active")
	}
	return apperr.Forbidden("unknown role %q", actor.Role)
}

func (s *statsSvc) Report(ctx context.Context, actor *entities.User, q service.Query) (*service.Report, error) {
	if err := active(actor); err != nil {
		return nil, err
	}
	w, err := s.window(q)
	if err != nil {
		return nil, err
	}
	w.WorkerID = q.UserID
	if actor.Role == entities.RoleWorker {
		// a worker's own numbers unless asked otherwise
		if w.WorkerID == nil {
			w.WorkerID = &actor.ID
		}
		if w.TeamID == nil {
			w.TeamID = actor.TeamID
		}
	}

	tasks, err := s.load(ctx, w)
	if err != nil {
		return nil, err
	}
	types, err := s.r.Types(ctx)
	if err != nil {
		return nil, err
	}
	plan := aggregate.PlanSet(tasks, w)
	fact := aggregate.FactSet(tasks, w, s.loc)
	return &service.Report{
		From:      w.From,
		To:        w.To,
		Daily:     aggregate.Daily(plan, fact, s.loc),
		ByType:    aggregate.ByType(fact, types),
		TotalPlan: aggregate.Totals(plan),
		TotalFact: aggregate.Totals(fact),
	}, nil
}

func (s *statsSvc) Workers(ctx context.Context, actor *entities.User, q service.Query) ([]aggregate.WorkerRow, error) {
	if err := active(actor); err != nil {
		return nil, err
	}
	w, err := s.window(q)
	if err != nil {
		return nil, err
	}
	workers, err := s.r.Workers(ctx, w.TeamID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.load(ctx, w)
	if err != nil {
		return nil, err
	}
	return aggregate.Workers(workers, tasks, w, s.loc), nil
}

func (s *statsSvc) Summary(ctx context.Context, day time.Time) (*service.Summary, error) {
	key := effort.DayKey(day, s.loc)
	w := aggregate.Window{From: key, To: key}
	tasks, err := s.load(ctx, w)
	if err != nil {
		return nil, err
	}
	types, err := s.r.Types(ctx)
	if err != nil {
		return nil, err
	}
	plan := aggregate.PlanSet(tasks, w)
	fact := aggregate.FactSet(tasks, w, s.loc)

	out := &service.Summary{
		Date:      key,
		PlanCount: len(plan),
		PlanSP:    aggregate.Totals(plan),
		DoneCount: len(fact),
		DoneSP:    aggregate.Totals(fact),
	}
	if out.PlanSP > 0 {
		out.Percent = int(math.Floor(float64(out.DoneSP)/float64(out.PlanSP)*100 + 0.5))
	}

	rework, err := s.r.ByStatus(ctx, []entities.TaskStatus{entities.TaskRework}, "")
	if err != nil {
		return nil, err
	}
	overdue, err := s.r.ByStatus(ctx, []entities.TaskStatus{entities.TaskNew, entities.TaskInProgress}, key)
	if err != nil {
		return nil, err
	}
	out.ReworkCount, out.OverdueCount = len(rework), len(overdue)
	out.Rework = briefs(rework, types)
	out.Overdue = briefs(overdue, types)
	return out, nil
}

func briefs(list []entities.Task, types map[uint]entities.ConstructType) []service.TaskBrief {
	out := []service.TaskBrief{}
	for i, t := range list {
		if i == briefLimit {
			break
		}
		out = append(out, service.TaskBrief{
			ID: t.ID, Batch: t.Batch, Cell: t.Cell, TypeCode: types[t.TypeID].Code, Status: string(t.Status),
		})
	}
	return out
}
