package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"pvc/entities"
	"pvc/pkg/apperr"
)

type users map[string]*entities.User

func (u users) FindByTelegramID(_ context.Context, id string) (*entities.User, error) {
	if x, ok := u[id]; ok {
		return x, nil
	}
	return nil, apperr.NotFound("no user %s", id)
}

func TestTelegramAuth(t *testing.T) {
	e := echo.New()
	lookup := users{
		"1": {ID: 1, TelegramID: "1", Role: entities.RoleAdmin},
		"2": {ID: 2, TelegramID: "2", Role: entities.RoleWorker},
		"3": {ID: 3, TelegramID: "3", Role: entities.RoleBanned},
		"4": {ID: 4, TelegramID: "4", Role: entities.RolePending},
	}
	g := e.Group("/api", TelegramAuth(lookup))
	g.GET("/me", func(c echo.Context) error { return c.String(http.StatusOK, Actor(c).TelegramID) })
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, RequireAdmin())

	cases := []struct {
		path, tg string
		want     int
	}{
		{"/api/me", "", http.StatusUnauthorized},
		{"/api/me", "99", http.StatusUnauthorized},
		{"/api/me", "1", http.StatusOK},
		{"/api/me", "2", http.StatusOK},
		{"/api/me", "3", http.StatusForbidden},
		{"/api/me", "4", http.StatusForbidden},
		{"/api/admin", "1", http.StatusNoContent},
		{"/api/admin", "2", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.tg != "" {
			req.Header.Set(HeaderTelegramID, tc.tg)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s as %q: status %d, want %d", tc.path, tc.tg, rec.Code, tc.want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/me?telegram_id=2", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "2" {
		t.Errorf("query fallback: %d %q", rec.Code, rec.Body.String())
	}
}
