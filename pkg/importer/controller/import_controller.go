package controller

import "github.com/labstack/echo/v4"

type ImportController interface {
	Preview(c echo.Context) error
	Execute(c echo.Context) error
}
