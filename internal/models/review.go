package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a product rating left by a user who received the product.
// At most one review exists per (user, product) pair.
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `json:"userId" gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_user_product"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_reviews_user_product;index"`
	Rating    int       `json:"rating" gorm:"not null;check:chk_reviews_rating_range,rating >= 1 AND rating <= 5"`
	Comment   *string   `json:"comment,omitempty" gorm:"type:varchar(1000)"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
