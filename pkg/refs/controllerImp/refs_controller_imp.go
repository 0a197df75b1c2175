package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pvc/pkg/apperr"
	"pvc/pkg/middleware"
	"pvc/pkg/refs/controller"
	"pvc/pkg/refs/service"
)

type RefsCtrl struct{ s service.RefsService }

func New(s service.RefsService) controller.RefsController { return &RefsCtrl{s} }

func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s %q", name, c.Param(name))
	}
	return uint(id), nil
}

func badJSON(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
}

// GET /api/refs/types lists the active types shown in pickers.
func (h *RefsCtrl) ListTypes(c echo.Context) error {
	list, err := h.s.ListTypes(c.Request().Context(), true)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *RefsCtrl) ListAllTypes(c echo.Context) error {
	list, err := h.s.ListTypes(c.Request().Context(), false)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *RefsCtrl) CreateType(c echo.Context) error {
	var in service.TypeInput
	if err := c.Bind(&in); err != nil {
		return badJSON(c)
	}
	t, err := h.s.CreateType(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *RefsCtrl) UpdateType(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.TypeInput
	if err := c.Bind(&in); err != nil {
		return badJSON(c)
	}
	t, err := h.s.UpdateType(c.Request().Context(), middleware.Actor(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *RefsCtrl) ListTeams(c echo.Context) error {
	list, err := h.s.ListTeams(c.Request().Context())
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *RefsCtrl) CreateTeam(c echo.Context) error {
	var in service.TeamInput
	if err := c.Bind(&in); err != nil {
		return badJSON(c)
	}
	t, err := h.s.CreateTeam(c.Request().Context(), middleware.Actor(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *RefsCtrl) UpdateTeam(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.TeamInput
	if err := c.Bind(&in); err != nil {
		return badJSON(c)
	}
	t, err := h.s.UpdateTeam(c.Request().Context(), middleware.Actor(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// GET /api/refs/teams/for-type/:typeId
func (h *RefsCtrl) TeamsForType(c echo.Context) error {
	id, err := pathID(c, "typeId")
	if err != nil {
		return apperr.Respond(c, err)
	}
	list, err := h.s.TeamsForType(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}
