package controller

import "github.com/labstack/echo/v4"

type StatsController interface {
	Report(c echo.Context) error
	Workers(c echo.Context) error
	Summary(c echo.Context) error
}
