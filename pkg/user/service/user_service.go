package service

import (
	"context"

	"pvc/entities"
	"pvc/pkg/nullable"
)

type RegisterInput struct {
	TelegramID string  `json:"telegram_id"`
	Username   *string `json:"username"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
}

// UserPatch leaves nil fields alone. TypeIDs replaces the competency set.
type UserPatch struct {
	Role    *entities.Role       `json:"role"`
	TeamID  nullable.Field[uint] `json:"team_id"`
	TypeIDs *[]uint              `json:"type_ids"`
}

type UserView struct {
	entities.User
	TypeIDs []uint `json:"type_ids"`
}

type UserService interface {
	// Register returns the existing user for a known telegram id, created=false.
	Register(ctx context.Context, in RegisterInput) (u *entities.User, created bool, err error)
	Me(ctx context.Context, actor *entities.User) (*UserView, error)
	List(ctx context.Context, actor *entities.User, role *entities.Role) ([]UserView, error)
	Update(ctx context.Context, actor *entities.User, id uint, p UserPatch) (*UserView, error)
}
