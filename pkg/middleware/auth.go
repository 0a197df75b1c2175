package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pvc/entities"
	"pvc/pkg/apperr"
)

const (
	HeaderTelegramID = "X-Telegram-Id"
	actorKey         = "actor"
)

type UserLookup interface {
	FindByTelegramID(ctx context.Context, telegramID string) (*entities.User, error)
}

// TelegramAuth loads the caller from the X-Telegram-Id header (or the
// telegram_id query parameter for links opened from the bot).
// Unknown callers get 401, banned and pending ones 403.
func TelegramAuth(users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tgID := strings.TrimSpace(c.Request().Header.Get(HeaderTelegramID))
			if tgID == "" {
				tgID = strings.TrimSpace(c.QueryParam("telegram_id"))
			}
			if tgID == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing " + HeaderTelegramID})
			}
			u, err := users.FindByTelegramID(c.Request().Context(), tgID)
			if err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return apperr.Respond(c, err)
			}
			switch u.Role {
			case entities.RoleAdmin, entities.RoleWorker:
			case entities.RoleBanned:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "user is banned", "kind": apperr.KindForbidden})
			case entities.RolePending:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "user is awaiting approval", "kind": apperr.KindForbidden})
			default:
				return c.JSON(http.StatusForbidden, echo.Map{"error": "unknown role", "kind": apperr.KindForbidden})
			}
			c.Set(actorKey, u)
			return next(c)
		}
	}
}

// RequireAdmin must run after TelegramAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !Actor(c).IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin only", "kind": apperr.KindForbidden})
			}
			return next(c)
		}
	}
}

// Actor returns the authenticated user, or nil outside TelegramAuth.
func Actor(c echo.Context) *entities.User {
	u, _ := c.Get(actorKey).(*entities.User)
	return u
}

// SetActor is used by tests that call handlers directly.
func SetActor(c echo.Context, u *entities.User) { c.Set(actorKey, u) }
