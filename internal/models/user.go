package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the authorization role of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User represents a user of the store.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password     string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	FirstName    string    `json:"firstName" gorm:"type:varchar(50);not null"`
	LastName     string    `json:"lastName" gorm:"type:varchar(50);not null"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null"`
	IsActive     bool      `json:"isActive" gorm:"not null"`
	TokenVersion int       `json:"-" gorm:"not null;default:0"` // bumped on login, older tokens are rejected
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns a UUID when none was provided.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
