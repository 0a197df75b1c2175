package controller

import "github.com/labstack/echo/v4"

type RefsController interface {
	ListTypes(c echo.Context) error
	ListAllTypes(c echo.Context) error
	CreateType(c echo.Context) error
	UpdateType(c echo.Context) error
	ListTeams(c echo.Context) error
	CreateTeam(c echo.Context) error
	UpdateTeam(c echo.Context) error
	TeamsForType(c echo.Context) error
}
