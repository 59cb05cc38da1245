package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products; categories may nest through ParentID.
type Category struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null"`
	Slug        string     `json:"slug" gorm:"uniqueIndex;type:varchar(100);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:varchar(500)"`
	ParentID    *string    `json:"parentId,omitempty" gorm:"type:varchar(36);index"`
	IsActive    bool       `json:"isActive" gorm:"not null"`
	Children    []Category `json:"children,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}
