package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"pvc/entities"
	"pvc/pkg/notify"
	statsSvc "pvc/pkg/stats/service"
)

type fakeStats struct{ day time.Time }

func (f *fakeStats) Summary(_ context.Context, day time.Time) (*statsSvc.Summary, error) {
	f.day = day
	return &statsSvc.Summary{
		Date: "2024-05-10", PlanCount: 2, PlanSP: 8, DoneCount: 1, DoneSP: 4, Percent: 50,
		ReworkCount: 1, Rework: []statsSvc.TaskBrief{{ID: 4, Batch: "B", Cell: "4", TypeCode: "G", Status: "Rework"}},
	}, nil
}

type fakeTasks struct{ list []entities.Task }

func (f fakeTasks) ListOverdue(context.Context, time.Time) ([]entities.Task, error) { return f.list, nil }

type fakePeople struct{ users []entities.User }

func (f fakePeople) List(_ context.Context, role *entities.Role) ([]entities.User, error) {
	var out []entities.User
	for _, u := range f.users {
		if role == nil || u.Role == *role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f fakePeople) FindByIDs(_ context.Context, ids []uint) ([]entities.User, error) {
	var out []entities.User
	for _, u := range f.users {
		for _, id := range ids {
			if u.ID == id {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

type fakeTypes struct{}

func (fakeTypes) ListTypes(context.Context, bool) ([]entities.ConstructType, error) {
	return []entities.ConstructType{{ID: 1, Code: "K", Label: "Trapeze"}}, nil
}

func uptr(v uint) *uint { return &v }

func name(s string) *string { return &s }

var people = fakePeople{users: []entities.User{
	{ID: 1, TelegramID: "1", Role: entities.RoleAdmin},
	{ID: 2, TelegramID: "2", Role: entities.RoleWorker, FirstName: name("Taras")},
	{ID: 3, TelegramID: "3", Role: entities.RoleWorker, Username: name("ivan")},
}}

var kyiv = time.FixedZone("EET", 2*60*60)

func TestSendReport(t *testing.T) {
	rec := notify.NewRecorder()
	stats := &fakeStats{}
	at := time.Date(2024, 5, 10, 14, 0, 0, 0, kyiv)
	r := New(stats, fakeTasks{}, people, fakeTypes{}, rec, kyiv, WithClock(func() time.Time { return at }))

	if err := r.SendReport(context.Background()); err != nil {
		t.Fatalf("SendReport: %v", err)
	}
	if !stats.day.Equal(at) {
		t.Errorf("summary day = %v", stats.day)
	}
	texts := rec.Texts(1)
	if len(texts) != 1 || len(rec.Texts(2)) != 0 {
		t.Fatalf("texts: admin %d, worker %d", len(texts), len(rec.Texts(2)))
	}
	for _, want := range []string{"Звіт на 10.05.2024", "План: <b>2</b> задач · <b>8</b> СП", "<b>50%</b>", "Переробка (1)", "#4 B/4 · G"} {
		if !strings.Contains(texts[0], want) {
			t.Errorf("report lacks %q:\n%s", want, texts[0])
		}
	}
	if strings.Contains(texts[0], "Прострочено") {
		t.Errorf("empty overdue section rendered:\n%s", texts[0])
	}
}

func TestSendOverdue(t *testing.T) {
	rec := notify.NewRecorder()
	tasks := fakeTasks{list: []entities.Task{
		{ID: 10, Batch: "P", Cell: "1", TypeID: 1, Status: entities.TaskInProgress, AssigneeUserID: uptr(2)},
		{ID: 11, Batch: "P", Cell: "2", TypeID: 1, Status: entities.TaskRework, AssigneeUserID: uptr(2)},
		{ID: 12, Batch: "P", Cell: "3", TypeID: 1, Status: entities.TaskNew},
		{ID: 13, Batch: "P", Cell: "<4>", TypeID: 1, Status: entities.TaskInProgress, AssigneeUserID: uptr(3)},
	}}
	r := New(&fakeStats{}, tasks, people, fakeTypes{}, rec, kyiv)

	if err := r.SendOverdue(context.Background()); err != nil {
		t.Fatalf("SendOverdue: %v", err)
	}
	taras := rec.Texts(2)
	if len(taras) != 1 || !strings.Contains(taras[0], "Прострочені задачі (2)") || !strings.Contains(taras[0], "• #11 P/2 (Trapeze)") {
		t.Errorf("assignee digest = %q", taras)
	}
	if ivan := rec.Texts(3); len(ivan) != 1 || !strings.Contains(ivan[0], "P/&lt;4&gt;") {
		t.Errorf("escaped digest = %q", ivan)
	}
	admin := rec.Texts(1)
	if len(admin) != 1 {
		t.Fatalf("admin texts = %q", admin)
	}
	for _, want := range []string{"Прострочені задачі: 4", "#10 P/1 — InProgress (Taras)", "#12 P/3 — New (не призначено)", "(ivan)"} {
		if !strings.Contains(admin[0], want) {
			t.Errorf("admin digest lacks %q:\n%s", want, admin[0])
		}
	}
}

func TestWindowSkipsSends(t *testing.T) {
	rec := notify.NewRecorder()
	tasks := fakeTasks{list: []entities.Task{{ID: 1, AssigneeUserID: uptr(2)}}}
	r := New(&fakeStats{}, tasks, people, fakeTypes{}, rec, kyiv,
		WithClock(func() time.Time { return time.Date(2024, 5, 10, 22, 0, 0, 0, kyiv) }),
		WithWindow(func(t time.Time) bool { return t.Hour() < 21 }))

	if err := r.SendReport(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.SendOverdue(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.Texts(1)) != 0 || len(rec.Texts(2)) != 0 {
		t.Errorf("sent outside the window")
	}
}

func TestStartSchedulesJobs(t *testing.T) {
	r := New(&fakeStats{}, fakeTasks{}, people, fakeTypes{}, notify.NewRecorder(), kyiv)
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()
	if n := len(r.cron.Entries()); n != 2 {
		t.Errorf("entries = %d", n)
	}
}
