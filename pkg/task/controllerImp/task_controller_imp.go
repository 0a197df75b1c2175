package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/middleware"
	"pvc/pkg/task/controller"
	"pvc/pkg/task/service"
)

type TaskCtrl struct{ s service.TaskService }

func New(s service.TaskService) controller.TaskController { return &TaskCtrl{s} }

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
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

func (h *TaskCtrl) views(list []entities.Task) []service.TaskView {
	out := make([]service.TaskView, len(list))
	for i, t := range list {
		out[i] = h.s.View(t)
	}
	return out
}

func (h *TaskCtrl) List(c echo.Context) error {
	var (
		f   service.Filter
		err error
	)
	if f.TeamID, err = optUint(c, "team_id"); err != nil {
		return apperr.Respond(c, err)
	}
	if f.TypeID, err = optUint(c, "type_id"); err != nil {
		return apperr.Respond(c, err)
	}
	if v := c.QueryParam("status"); v != "" {
		st := entities.TaskStatus(v)
		f.Status = &st
	}
	f.DateFrom = c.QueryParam("date_from")
	f.DateTo = c.QueryParam("date_to")
	f.Overdue = c.QueryParam("overdue") == "true"
	f.Mine = c.QueryParam("mine") == "true"

	list, err := h.s.List(c.Request().Context(), middleware.Actor(c), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.views(list))
}

func (h *TaskCtrl) ListUnassigned(c echo.Context) error {
	list, err := h.s.ListUnassigned(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.views(list))
}

func (h *TaskCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	t, err := h.s.Get(c.Request().Context(), middleware.Actor(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.s.View(*t))
}

func (h *TaskCtrl) Create(c echo.Context) error {
	var in service.CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	t, err := h.s.Create(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, h.s.View(*t))
}

func (h *TaskCtrl) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var p service.TaskPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	t, err := h.s.Update(c.Request().Context(), middleware.Actor(c), id, p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.s.View(*t))
}

func (h *TaskCtrl) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.s.Delete(c.Request().Context(), middleware.Actor(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *TaskCtrl) Transition(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req service.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	t, err := h.s.Transition(c.Request().Context(), middleware.Actor(c), id, req)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.s.View(*t))
}

func (h *TaskCtrl) AssignTeam(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in struct {
		TeamID *uint `json:"team_id"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	t, err := h.s.AssignTeam(c.Request().Context(), middleware.Actor(c), id, in.TeamID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, h.s.View(*t))
}

func (h *TaskCtrl) Reschedule(c echo.Context) error {
	var in struct {
		IDs         []uint `json:"ids"`
		PlannedDate string `json:"planned_date"`
	}
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	n, err := h.s.Reschedule(c.Request().Context(), middleware.Actor(c), in.IDs, in.PlannedDate)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
