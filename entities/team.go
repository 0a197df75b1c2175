package entities

import "time"

type ConstructType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Label     string    `gorm:"not null" json:"label"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamType says a team is able to perform a construction type.
type TeamType struct {
	TeamID uint `gorm:"primaryKey" json:"team_id"`
	TypeID uint `gorm:"primaryKey;index" json:"type_id"`
}
