package serviceImp

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"pvc/database"
	"pvc/entities"
	"pvc/pkg/apperr"
	compRepo "pvc/pkg/competency/repositoryImp"
	compSvc "pvc/pkg/competency/serviceImp"
	"pvc/pkg/notify"
	"pvc/pkg/nullable"
	refsRepo "pvc/pkg/refs/repositoryImp"
	"pvc/pkg/task/repositoryImp"
	"pvc/pkg/task/service"
	userRepo "pvc/pkg/user/repositoryImp"
)

var kyiv = time.FixedZone("EET", 2*60*60)

type fixture struct {
	db  *gorm.DB
	svc service.TaskService
	rec *notify.Recorder
	now time.Time

	admin, w1, w2 *entities.User
	typeK, typeR  entities.ConstructType
	teamK, teamD  entities.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	fx := &fixture{db: db, rec: notify.NewRecorder(), now: time.Date(2024, 5, 10, 9, 0, 0, 0, kyiv)}

	fx.typeK = entities.ConstructType{Code: "K", Label: "Trapeze", IsActive: true}
	fx.typeR = entities.ConstructType{Code: "R", Label: "Round", IsActive: true}
	mustCreate(t, db, &fx.typeK)
	mustCreate(t, db, &fx.typeR)
	fx.teamK = entities.Team{Name: "Team K"}
	fx.teamD = entities.Team{Name: "Team D"}
	mustCreate(t, db, &fx.teamK)
	mustCreate(t, db, &fx.teamD)
	mustCreate(t, db, &[]entities.TeamType{
		{TeamID: fx.teamK.ID, TypeID: fx.typeK.ID},
		{TeamID: fx.teamK.ID, TypeID: fx.typeR.ID},
		{TeamID: fx.teamD.ID, TypeID: fx.typeR.ID},
	})

	fx.admin = &entities.User{TelegramID: "100", Role: entities.RoleAdmin, TeamID: &fx.teamK.ID}
	fx.w1 = &entities.User{TelegramID: "201", Role: entities.RoleWorker, TeamID: &fx.teamK.ID}
	fx.w2 = &entities.User{TelegramID: "202", Role: entities.RoleWorker, TeamID: &fx.teamK.ID}
	mustCreate(t, db, fx.admin)
	mustCreate(t, db, fx.w1)
	mustCreate(t, db, fx.w2)
	mustCreate(t, db, &entities.UserCompetency{UserID: fx.w1.ID, TypeID: fx.typeK.ID})
	mustCreate(t, db, &entities.UserCompetency{UserID: fx.w2.ID, TypeID: fx.typeR.ID})

	resolver := compSvc.NewResolver(compRepo.New(db))
	fx.svc = NewTaskService(repositoryImp.New(db), refsRepo.New(db), resolver, userRepo.New(db), fx.rec, kyiv,
		WithClock(func() time.Time { return fx.now }))
	return fx
}

func mustCreate(t *testing.T, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func (fx *fixture) create(t *testing.T, typeID uint, day string) *entities.Task {
	t.Helper()
	task, err := fx.svc.Create(context.Background(), fx.admin, service.CreateInput{
		Batch: "B-1", Cell: "C-7", TypeID: typeID, QtyItems: 3, ImpostsPerItem: 2, PlannedDate: day,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func strp(s string) *string { return &s }

func TestReworkCycle(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	task := fx.create(t, fx.typeK.ID, "2024-05-10")
	fx.rec.Reset()

	// 1. W claims the task
	got, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskInProgress})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got.Status != entities.TaskInProgress || got.AssigneeUserID == nil || *got.AssigneeUserID != fx.w1.ID {
		t.Fatalf("after claim: status=%s assignee=%v", got.Status, got.AssigneeUserID)
	}
	if n := len(fx.rec.Events()); n != 0 {
		t.Errorf("claim sent %d notifications, want 0", n)
	}

	// 2. W asks for rework
	got, err = fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskRework, ReworkComment: strp("bad cut")})
	if err != nil {
		t.Fatalf("rework: %v", err)
	}
	if got.Status != entities.TaskRework || got.ReworkComment == nil || *got.ReworkComment != "bad cut" || got.ReworkRequestedAt == nil {
		t.Fatalf("after rework: %+v", got)
	}
	if evs := fx.rec.Of(notify.KindReworkRequested); len(evs) != 1 || evs[0].RecipientID != fx.admin.ID {
		t.Errorf("rework_requested events = %+v", evs)
	}

	// 3. admin approves
	got, err = fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskInProgress})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != entities.TaskInProgress || got.ReworkApprovedAt == nil || *got.AssigneeUserID != fx.w1.ID {
		t.Fatalf("after approve: status=%s approved=%v assignee=%v", got.Status, got.ReworkApprovedAt, *got.AssigneeUserID)
	}
	if evs := fx.rec.Of(notify.KindReworkApproved); len(evs) != 1 || evs[0].RecipientID != fx.w1.ID {
		t.Errorf("rework_approved events = %+v", evs)
	}

	// 4. next day: finishing without a late comment is refused
	fx.now = time.Date(2024, 5, 11, 0, 0, 1, 0, kyiv)
	_, err = fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskDone})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("done without late comment: err=%v, want validation", err)
	}
	if cur, _ := fx.svc.Get(ctx, fx.w1, task.ID); cur.Status != entities.TaskInProgress || cur.DoneAt != nil {
		t.Fatalf("rejected done changed the task: %+v", cur)
	}

	// 5. with the comment it goes through
	got, err = fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskDone, LateComment: strp("delay")})
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	if got.Status != entities.TaskDone || got.DoneAt == nil || got.ReworkDoneAt == nil {
		t.Fatalf("after done: %+v", got)
	}
	if got.LateComment == nil || *got.LateComment != "delay" {
		t.Errorf("late comment = %v", got.LateComment)
	}
	if evs := fx.rec.Of(notify.KindTaskCompleted); len(evs) != 1 || evs[0].RecipientID != fx.admin.ID {
		t.Errorf("task_completed events = %+v", evs)
	}
	if v := fx.svc.View(*got); v.SP != 9 || v.IsOverdue {
		t.Errorf("view = sp %d overdue %v, want 9 false", v.SP, v.IsOverdue)
	}
}

func TestDoneOnTimeNeedsNoComment(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	task := fx.create(t, fx.typeK.ID, "2024-05-10")

	if _, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskInProgress}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	fx.now = time.Date(2024, 5, 10, 23, 59, 59, 0, kyiv)
	got, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskDone})
	if err != nil {
		t.Fatalf("done: %v", err)
	}
	if got.ReworkDoneAt != nil || got.LateComment != nil {
		t.Errorf("plain done stamped rework/late fields: %+v", got)
	}
}

func TestCreateResolvesTeam(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// K belongs to team K only
	k := fx.create(t, fx.typeK.ID, "2024-05-12")
	if k.TeamID == nil || *k.TeamID != fx.teamK.ID {
		t.Fatalf("K task team = %v, want %d", k.TeamID, fx.teamK.ID)
	}
	evs := fx.rec.Of(notify.KindTaskCreated)
	if len(evs) != 2 {
		t.Fatalf("task_created events = %d, want 2 (both workers, not the creator)", len(evs))
	}
	for _, ev := range evs {
		if ev.RecipientID == fx.admin.ID {
			t.Errorf("creator was notified")
		}
	}

	// R is shared by two teams: unassigned
	fx.rec.Reset()
	r := fx.create(t, fx.typeR.ID, "2024-05-12")
	if r.TeamID != nil {
		t.Fatalf("R task team = %d, want nil", *r.TeamID)
	}
	if n := len(fx.rec.Events()); n != 0 {
		t.Errorf("unassigned task sent %d notifications", n)
	}

	// explicit team wins
	d, err := fx.svc.Create(ctx, fx.admin, service.CreateInput{Batch: "B", Cell: "C", TypeID: fx.typeK.ID, QtyItems: 1, PlannedDate: "12.05.2024", TeamID: &fx.teamD.ID})
	if err != nil {
		t.Fatalf("create with team: %v", err)
	}
	if d.TeamID == nil || *d.TeamID != fx.teamD.ID || d.PlannedDate != "2024-05-12" {
		t.Errorf("explicit team task = team %v day %s", d.TeamID, d.PlannedDate)
	}

	unassigned, err := fx.svc.ListUnassigned(ctx, fx.admin)
	if err != nil {
		t.Fatalf("ListUnassigned: %v", err)
	}
	if len(unassigned) != 1 || unassigned[0].ID != r.ID {
		t.Errorf("unassigned = %+v, want task %d", unassigned, r.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	base := service.CreateInput{Batch: "B", Cell: "C", TypeID: fx.typeK.ID, QtyItems: 1, PlannedDate: "2024-05-12"}

	cases := []struct {
		name  string
		actor *entities.User
		edit  func(*service.CreateInput)
		kind  apperr.Kind
	}{
		{"worker", fx.w1, func(*service.CreateInput) {}, apperr.KindForbidden},
		{"zero qty", fx.admin, func(in *service.CreateInput) { in.QtyItems = 0 }, apperr.KindValidation},
		{"negative imposts", fx.admin, func(in *service.CreateInput) { in.ImpostsPerItem = -1 }, apperr.KindValidation},
		{"no batch", fx.admin, func(in *service.CreateInput) { in.Batch = " " }, apperr.KindValidation},
		{"bad date", fx.admin, func(in *service.CreateInput) { in.PlannedDate = "tomorrow" }, apperr.KindValidation},
		{"unknown type", fx.admin, func(in *service.CreateInput) { in.TypeID = 999 }, apperr.KindNotFound},
		{"unknown team", fx.admin, func(in *service.CreateInput) { id := uint(999); in.TeamID = &id }, apperr.KindNotFound},
	}
	for _, tc := range cases {
		in := base
		tc.edit(&in)
		if _, err := fx.svc.Create(ctx, tc.actor, in); !apperr.Is(err, tc.kind) {
			t.Errorf("%s: err = %v, want %s", tc.name, err, tc.kind)
		}
	}
}

func TestUpdateReResolvesTeamOnTypeChange(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	task := fx.create(t, fx.typeK.ID, "2024-05-12")

	// 1. manual override survives unrelated edits
	if _, err := fx.svc.AssignTeam(ctx, fx.admin, task.ID, &fx.teamD.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	qty := 5
	got, err := fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{QtyItems: &qty, TypeID: &fx.typeK.ID})
	if err != nil {
		t.Fatalf("update qty: %v", err)
	}
	if got.TeamID == nil || *got.TeamID != fx.teamD.ID || got.QtyItems != 5 {
		t.Fatalf("after qty edit: team %v qty %d", got.TeamID, got.QtyItems)
	}

	// 2. a type change re-runs the resolver
	got, err = fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{TypeID: &fx.typeR.ID})
	if err != nil {
		t.Fatalf("update type: %v", err)
	}
	if got.TeamID != nil {
		t.Fatalf("type R should leave the task unassigned, got team %d", *got.TeamID)
	}

	// 3. an explicit team, even null, wins over the resolver
	got, err = fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{TypeID: &fx.typeK.ID, TeamID: nullable.Null[uint]()})
	if err != nil {
		t.Fatalf("update type with null team: %v", err)
	}
	if got.TeamID != nil {
		t.Fatalf("explicit null team was overridden: %d", *got.TeamID)
	}

	// 4. and the plain edit of a type routes again
	got, err = fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{TypeID: &fx.typeR.ID})
	if err != nil {
		t.Fatal(err)
	}
	got, err = fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{TypeID: &fx.typeK.ID})
	if err != nil {
		t.Fatal(err)
	}
	if got.TeamID == nil || *got.TeamID != fx.teamK.ID {
		t.Fatalf("type K should route to team K, got %v", got.TeamID)
	}

	if _, err := fx.svc.Update(ctx, fx.w1, task.ID, service.TaskPatch{QtyItems: &qty}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("worker update: err = %v, want forbidden", err)
	}
	zero := 0
	if _, err := fx.svc.Update(ctx, fx.admin, task.ID, service.TaskPatch{QtyItems: &zero}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("zero qty update: err = %v, want validation", err)
	}
}

func TestInvalidTransitionIsRejectedTheSameWayTwice(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	task := fx.create(t, fx.typeK.ID, "2024-05-12")

	for i := 0; i < 2; i++ {
		_, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskDone})
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("attempt %d: err = %v, want invalid_transition", i+1, err)
		}
	}
	var cur entities.Task
	if err := fx.db.First(&cur, task.ID).Error; err != nil {
		t.Fatal(err)
	}
	if cur.Status != entities.TaskNew || cur.Version != 0 || cur.DoneAt != nil {
		t.Errorf("task changed: %+v", cur)
	}

	if _, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: "Paused"}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unknown status: err = %v, want validation", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.admin, 999, service.TransitionRequest{Status: entities.TaskInProgress}); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing task: err = %v, want not_found", err)
	}
}

func TestTransitionAuthorization(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	task := fx.create(t, fx.typeK.ID, "2024-05-12")

	// w2 holds only R
	if _, err := fx.svc.Transition(ctx, fx.w2, task.ID, service.TransitionRequest{Status: entities.TaskInProgress}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("incompetent claim: err = %v, want forbidden", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskInProgress}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.w2, task.ID, service.TransitionRequest{Status: entities.TaskDone}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("foreign done: err = %v, want forbidden", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskRework, ReworkComment: strp("  ")}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank rework comment: err = %v, want validation", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskRework, ReworkComment: strp("chipped")}); err != nil {
		t.Fatalf("rework: %v", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.w1, task.ID, service.TransitionRequest{Status: entities.TaskInProgress}); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("worker approving rework: err = %v, want forbidden", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskDone}); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Errorf("rework -> done: err = %v, want invalid_transition", err)
	}

	// an admin may finish a task they did not claim
	if _, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskInProgress}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskDone}); err != nil {
		t.Fatalf("admin done: %v", err)
	}
	if _, err := fx.svc.Transition(ctx, fx.admin, task.ID, service.TransitionRequest{Status: entities.TaskRework, ReworkComment: strp("x")}); !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Errorf("done -> rework: err = %v, want invalid_transition", err)
	}
}

func TestConcurrentClaimHasOneWinner(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	mustCreate(t, fx.db, &entities.UserCompetency{UserID: fx.w2.ID, TypeID: fx.typeK.ID})

	for round := 0; round < 5; round++ {
		task := fx.create(t, fx.typeK.ID, "2024-05-12")

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 2)
		)
		for i, w := range []*entities.User{fx.w1, fx.w2} {
			wg.Add(1)
			go func(i int, w *entities.User) {
				defer wg.Done()
				<-start
				_, errs[i] = fx.svc.Transition(ctx, w, task.ID, service.TransitionRequest{Status: entities.TaskInProgress})
			}(i, w)
		}
		close(start)
		wg.Wait()

		winner := -1
		for i, err := range errs {
			switch {
			case err == nil:
				if winner != -1 {
					t.Fatalf("round %d: both claims succeeded", round)
				}
				winner = i
			case !apperr.Is(err, apperr.KindInvalidTransition):
				t.Fatalf("round %d: loser got %v, want invalid_transition", round, err)
			}
		}
		if winner == -1 {
			t.Fatalf("round %d: both claims failed: %v", round, errs)
		}

		cur, err := fx.svc.Get(ctx, fx.admin, task.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := []*entities.User{fx.w1, fx.w2}[winner].ID
		if cur.AssigneeUserID == nil || *cur.AssigneeUserID != want {
			t.Errorf("round %d: assignee = %v, want winner %d", round, cur.AssigneeUserID, want)
		}
	}
}

func TestListPoolOverdueAndReschedule(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	past := fx.create(t, fx.typeK.ID, "2024-05-08")
	today := fx.create(t, fx.typeK.ID, "2024-05-10")
	shared := fx.create(t, fx.typeR.ID, "2024-05-10")
	teamD, err := fx.svc.Create(ctx, fx.admin, service.CreateInput{Batch: "B", Cell: "D", TypeID: fx.typeR.ID, QtyItems: 1, PlannedDate: "2024-05-10", TeamID: &fx.teamD.ID})
	if err != nil {
		t.Fatal(err)
	}

	// w1's pool: own team, own types
	pool, err := fx.svc.List(ctx, fx.w1, service.Filter{})
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if len(pool) != 2 || pool[0].ID != past.ID || pool[1].ID != today.ID {
		t.Errorf("w1 pool = %v, want [%d %d]", ids(pool), past.ID, today.ID)
	}
	if _, err := fx.svc.Transition(ctx, fx.w1, today.ID, service.TransitionRequest{Status: entities.TaskInProgress}); err != nil {
		t.Fatal(err)
	}
	mine, err := fx.svc.List(ctx, fx.w1, service.Filter{Mine: true})
	if err != nil || len(mine) != 1 || mine[0].ID != today.ID {
		t.Errorf("w1 mine = %v, %v", ids(mine), err)
	}

	overdue, err := fx.svc.ListOverdue(ctx, fx.now)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != past.ID {
		t.Errorf("overdue = %v, want [%d]", ids(overdue), past.ID)
	}
	flagged, err := fx.svc.List(ctx, fx.admin, service.Filter{Overdue: true})
	if err != nil || len(flagged) != 1 {
		t.Errorf("overdue filter = %v, %v", ids(flagged), err)
	}
	if v := fx.svc.View(*past); !v.IsOverdue {
		t.Errorf("past task not flagged overdue")
	}

	byTeam, err := fx.svc.List(ctx, fx.admin, service.Filter{TeamID: &fx.teamD.ID})
	if err != nil || len(byTeam) != 1 || byTeam[0].ID != teamD.ID {
		t.Errorf("team D list = %v, %v", ids(byTeam), err)
	}

	n, err := fx.svc.Reschedule(ctx, fx.admin, []uint{past.ID, shared.ID}, "2024-05-20")
	if err != nil || n != 2 {
		t.Fatalf("Reschedule = %d, %v", n, err)
	}
	if overdue, _ := fx.svc.ListOverdue(ctx, fx.now); len(overdue) != 0 {
		t.Errorf("rescheduled task still overdue: %v", ids(overdue))
	}
	if _, err := fx.svc.Reschedule(ctx, fx.admin, nil, "2024-05-20"); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("empty reschedule: %v", err)
	}

	// earliest open task at the location wins
	open, err := fx.svc.FindOpen(ctx, "B-1", "C-7")
	if err != nil || open.ID != today.ID {
		t.Errorf("FindOpen = %v, %v", open, err)
	}

	if err := fx.svc.Delete(ctx, fx.w1, past.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("worker delete: %v", err)
	}
	if err := fx.svc.Delete(ctx, fx.admin, past.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fx.svc.Get(ctx, fx.admin, past.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("deleted task still readable: %v", err)
	}
}

func ids(list []entities.Task) []uint {
	out := make([]uint, len(list))
	for i, t := range list {
		out[i] = t.ID
	}
	return out
}
