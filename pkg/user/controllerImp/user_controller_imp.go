package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pvc/entities"
	"pvc/pkg/apperr"
	"pvc/pkg/middleware"
	"pvc/pkg/user/controller"
	"pvc/pkg/user/service"
)

type UserCtrl struct{ s service.UserService }

func New(s service.UserService) controller.UserController { return &UserCtrl{s} }

// POST /api/users/register, called by the bot and the web app before any
// authenticated request. 201 for a new user, 200 for a known one.
func (h *UserCtrl) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	if in.TelegramID == "" {
		in.TelegramID = c.Request().Header.Get(middleware.HeaderTelegramID)
	}
	u, created, err := h.s.Register(c.Request().Context(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if created {
		return c.JSON(http.StatusCreated, u)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserCtrl) Me(c echo.Context) error {
	v, err := h.s.Me(c.Request().Context(), middleware.Actor(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// GET /api/users?role=pending
func (h *UserCtrl) List(c echo.Context) error {
	var role *entities.Role
	if v := c.QueryParam("role"); v != "" {
		r := entities.Role(v)
		role = &r
	}
	list, err := h.s.List(c.Request().Context(), middleware.Actor(c), role)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// PUT /api/users/:id {"role","team_id","type_ids"}; team_id:null clears the team.
func (h *UserCtrl) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return apperr.Respond(c, apperr.Validation("invalid id %q", c.Param("id")))
	}
	var p service.UserPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json", "kind": apperr.KindValidation})
	}
	v, err := h.s.Update(c.Request().Context(), middleware.Actor(c), uint(id), p)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
