package entities

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleWorker  Role = "worker"
	RoleBanned  Role = "banned"
	RolePending Role = "pending"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleWorker, RoleBanned, RolePending:
		return true
	}
	return false
}

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID string    `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Username   *string   `json:"username"`
	FirstName  *string   `json:"first_name"`
	LastName   *string   `json:"last_name"`
	Role       Role      `gorm:"index;size:16;not null;default:pending" json:"role"`
	TeamID     *uint     `gorm:"index" json:"team_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayName picks the first non-empty of first name, username, telegram id.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	return u.TelegramID
}

// UserCompetency says a user may personally execute tasks of a type.
type UserCompetency struct {
	UserID uint `gorm:"primaryKey" json:"user_id"`
	TypeID uint `gorm:"primaryKey;index" json:"type_id"`
}

// IsAdmin is the admin gate used by every admin-only operation.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleWorker, RoleBanned, RolePending:
		return false
	}
	return false
}
