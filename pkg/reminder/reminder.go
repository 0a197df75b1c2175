// Package reminder runs the periodic messages: the plan/fact report to admins
// and the morning overdue digest.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"pvc/entities"
	"pvc/pkg/notify"
	statsSvc "pvc/pkg/stats/service"
)

const (
	ReportSpec  = "0 8,11,14,17,20 * * *"
	OverdueSpec = "0 10 * * *"
)

type Summaries interface {
	Summary(ctx context.Context, day time.Time) (*statsSvc.Summary, error)
}

type OverdueLister interface {
	ListOverdue(ctx context.Context, asOf time.Time) ([]entities.Task, error)
}

type People interface {
	List(ctx context.Context, role *entities.Role) ([]entities.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entities.User, error)
}

type TypeLister interface {
	ListTypes(ctx context.Context, activeOnly bool) ([]entities.ConstructType, error)
}

type Option func(*Reminder)

func WithClock(now func() time.Time) Option { return func(r *Reminder) { r.now = now } }

// WithWindow limits sends to the times inWindow accepts.
func WithWindow(inWindow func(time.Time) bool) Option {
	return func(r *Reminder) { r.inWindow = inWindow }
}

type Reminder struct {
	stats    Summaries
	tasks    OverdueLister
	users    People
	types    TypeLister
	out      notify.Texter
	loc      *time.Location
	now      func() time.Time
	inWindow func(time.Time) bool
	cron     *cron.Cron
}

func New(stats Summaries, tasks OverdueLister, users People, types TypeLister, out notify.Texter, loc *time.Location, opts ...Option) *Reminder {
	if loc == nil {
		loc = time.UTC
	}
	r := &Reminder{
		stats: stats, tasks: tasks, users: users, types: types, out: out, loc: loc,
		now:      time.Now,
		inWindow: func(time.Time) bool { return true },
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start schedules both jobs in the reference timezone.
func (r *Reminder) Start() error {
	c := cron.New(cron.WithLocation(r.loc))
	jobs := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{ReportSpec, "report", r.SendReport},
		{OverdueSpec, "overdue", r.SendOverdue},
	}
	for _, j := range jobs {
		if _, err := c.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := j.run(ctx); err != nil {
				log.Printf("[cron] %s: %v", j.name, err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	c.Start()
	r.cron = c
	log.Printf("[cron] started in %s: report %q, overdue %q", r.loc, ReportSpec, OverdueSpec)
	return nil
}

// Stop waits for running jobs.
func (r *Reminder) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reminder) admins(ctx context.Context) ([]entities.User, error) {
	role := entities.RoleAdmin
	return r.users.List(ctx, &role)
}

func (r *Reminder) send(ctx context.Context, userID uint, text string) {
	if err := r.out.SendText(ctx, userID, text); err != nil {
		log.Printf("[cron] send to user %d: %v", userID, err)
	}
}

// SendReport sends today's plan/fact summary to every admin.
func (r *Reminder) SendReport(ctx context.Context) error {
	now := r.now()
	if !r.inWindow(now) {
		log.Printf("[cron] report skipped outside the notification window")
		return nil
	}
	sum, err := r.stats.Summary(ctx, now)
	if err != nil {
		return err
	}
	admins, err := r.admins(ctx)
	if err != nil {
		return err
	}
	text := FormatReport(sum)
	for _, a := range admins {
		r.send(ctx, a.ID, text)
	}
	return nil
}

// SendOverdue tells each assignee about their overdue tasks and gives admins
// the full list, unassigned tasks included.
func (r *Reminder) SendOverdue(ctx context.Context) error {
	now := r.now()
	if !r.inWindow(now) {
		log.Printf("[cron] overdue digest skipped outside the notification window")
		return nil
	}
	tasks, err := r.tasks.ListOverdue(ctx, now)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return nil
	}
	types, err := r.typeIndex(ctx)
	if err != nil {
		return err
	}

	var order []uint
	byUser := map[uint][]entities.Task{}
	for _, t := range tasks {
		if t.AssigneeUserID == nil {
			continue
		}
		id := *t.AssigneeUserID
		if byUser[id] == nil {
			order = append(order, id)
		}
		byUser[id] = append(byUser[id], t)
	}
	for _, id := range order {
		r.send(ctx, id, FormatAssigneeDigest(byUser[id], types))
	}

	assignees, err := r.users.FindByIDs(ctx, order)
	if err != nil {
		return err
	}
	names := make(map[uint]string, len(assignees))
	for _, u := range assignees {
		names[u.ID] = u.DisplayName()
	}
	admins, err := r.admins(ctx)
	if err != nil {
		return err
	}
	text := FormatAdminDigest(tasks, names)
	for _, a := range admins {
		r.send(ctx, a.ID, text)
	}
	log.Printf("[cron] overdue digest: %d tasks, %d assignees", len(tasks), len(order))
	return nil
}

func (r *Reminder) typeIndex(ctx context.Context) (map[uint]entities.ConstructType, error) {
	list, err := r.types.ListTypes(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]entities.ConstructType, len(list))
	for _, t := range list {
		out[t.ID] = t
	}
	return out, nil
}
