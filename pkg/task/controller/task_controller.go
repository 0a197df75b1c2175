package controller

import "github.com/labstack/echo/v4"

type TaskController interface {
	List(c echo.Context) error
	ListUnassigned(c echo.Context) error
	Get(c echo.Context) error
	Create(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
	Transition(c echo.Context) error
	AssignTeam(c echo.Context) error
	Reschedule(c echo.Context) error
}
