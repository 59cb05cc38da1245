package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store. Stock is the authoritative
// available quantity and may never drop below zero; the CHECK constraint
// backs up the conditional updates done by the repositories.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(200);not null"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;type:varchar(200);not null"`
	Description *string         `json:"description,omitempty" gorm:"type:varchar(2000)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;check:chk_products_stock_non_negative,stock >= 0"`
	IsActive    bool            `json:"isActive" gorm:"not null;index"`
	CategoryID  string          `json:"categoryId" gorm:"type:varchar(36);not null;index"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
