package controller

import "github.com/labstack/echo/v4"

type UserController interface {
	Register(c echo.Context) error
	Me(c echo.Context) error
	List(c echo.Context) error
	Update(c echo.Context) error
}
