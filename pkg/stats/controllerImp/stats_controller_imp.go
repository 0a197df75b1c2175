package controllerImp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"pvc/pkg/apperr"
	"pvc/pkg/effort"
	"pvc/pkg/middleware"
	"pvc/pkg/stats/controller"
	"pvc/pkg/stats/service"
)

type StatsCtrl struct {
	s   service.StatsService
	loc *time.Location
}

func New(s service.StatsService, loc *time.Location) controller.StatsController {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsCtrl{s: s, loc: loc}
}

func optUint(c echo.Context, name string) (*uint, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid %s %q", name, v)
	}
	u := uint(n)
	return &u, nil
}

func query(c echo.Context) (q service.Query, err error) {
	q.DateFrom = c.QueryParam("date_from")
	q.DateTo = c.QueryParam("date_to")
	if q.TeamID, err = optUint(c, "team_id"); err != nil {
		return q, err
	}
	q.UserID, err = optUint(c, "user_id")
	return q, err
}

// GET /api/stats?date_from&date_to&team_id&user_id
func (h *StatsCtrl) Report(c echo.Context) error {
	q, err := query(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	rep, err := h.s.Report(c.Request().Context(), middleware.Actor(c), q)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// GET /api/stats/workers?date_from&date_to&team_id
func (h *StatsCtrl) Workers(c echo.Context) error {
	q, err := query(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	rows, err := h.s.Workers(c.Request().Context(), middleware.Actor(c), q)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /api/stats/summary?date, admin only. Defaults to today.
func (h *StatsCtrl) Summary(c echo.Context) error {
	day := time.Now().In(h.loc)
	if v := c.QueryParam("date"); v != "" {
		key, err := effort.NormalizeDay(v)
		if err != nil {
			return apperr.Respond(c, apperr.Validation("date: %v", err))
		}
		day, _ = effort.ParseDay(key, h.loc)
	}
	sum, err := h.s.Summary(c.Request().Context(), day)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
