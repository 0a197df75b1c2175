package controllerImp

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"pvc/database"
	"pvc/entities"
	"pvc/pkg/middleware"
	"pvc/pkg/refs/repositoryImp"
	"pvc/pkg/refs/serviceImp"
	userRepo "pvc/pkg/user/repositoryImp"
)

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	for _, u := range []*entities.User{
		{TelegramID: "1", Role: entities.RoleAdmin},
		{TelegramID: "2", Role: entities.RoleWorker},
	} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}
	ctrl := New(serviceImp.NewRefsService(repositoryImp.New(db)))

	e := echo.New()
	g := e.Group("/api/refs", middleware.TelegramAuth(userRepo.New(db)))
	g.GET("/types", ctrl.ListTypes)
	g.GET("/types/all", ctrl.ListAllTypes)
	g.POST("/types", ctrl.CreateType)
	g.PUT("/types/:id", ctrl.UpdateType)
	g.GET("/teams", ctrl.ListTeams)
	g.POST("/teams", ctrl.CreateTeam)
	g.PUT("/teams/:id", ctrl.UpdateTeam)
	g.GET("/teams/for-type/:typeId", ctrl.TeamsForType)
	return e
}

func do(e *echo.Echo, method, path, tg, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderTelegramID, tg)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRefsEndpoints(t *testing.T) {
	e := newServer(t)

	steps := []struct {
		method, path, tg, body string
		want                   int
		contains               string
	}{
		{http.MethodPost, "/api/refs/types", "1", `{"code":"k","label":"Trapeze"}`, http.StatusCreated, `"code":"K"`},
		{http.MethodPost, "/api/refs/types", "1", `{"code":"Q","label":"Quad","is_active":false}`, http.StatusCreated, `"is_active":false`},
		{http.MethodPost, "/api/refs/types", "1", `{"code":"K","label":"Dup"}`, http.StatusBadRequest, `"kind":"validation"`},
		{http.MethodPost, "/api/refs/types", "2", `{"code":"G","label":"Arch"}`, http.StatusForbidden, ""},
		{http.MethodPost, "/api/refs/types", "1", `{"code":`, http.StatusBadRequest, "invalid json"},
		{http.MethodGet, "/api/refs/types", "2", "", http.StatusOK, `"code":"K"`},
		{http.MethodPut, "/api/refs/types/2", "1", `{"is_active":true}`, http.StatusOK, `"is_active":true`},
		{http.MethodPut, "/api/refs/types/9", "1", `{"label":"x"}`, http.StatusNotFound, ""},
		{http.MethodPost, "/api/refs/teams", "1", `{"name":"Team K","type_ids":[1]}`, http.StatusCreated, `"type_ids":[1]`},
		{http.MethodPut, "/api/refs/teams/1", "1", `{"type_ids":[1,2]}`, http.StatusOK, `"type_ids":[1,2]`},
		{http.MethodGet, "/api/refs/teams", "2", "", http.StatusOK, `"name":"Team K"`},
		{http.MethodGet, "/api/refs/teams/for-type/2", "2", "", http.StatusOK, `"name":"Team K"`},
		{http.MethodGet, "/api/refs/teams/for-type/x", "2", "", http.StatusBadRequest, ""},
	}
	for i, s := range steps {
		rec := do(e, s.method, s.path, s.tg, s.body)
		if rec.Code != s.want || !strings.Contains(rec.Body.String(), s.contains) {
			t.Errorf("step %d %s %s: %d %s", i, s.method, s.path, rec.Code, rec.Body.String())
		}
	}

	rec := do(e, http.MethodGet, "/api/refs/types/all", "1", "")
	if !strings.Contains(rec.Body.String(), `"code":"Q"`) {
		t.Errorf("all types: %s", rec.Body.String())
	}
}
