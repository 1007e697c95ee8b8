package models

import (
	"github.com/Skotchmaster/shop_api/internal/permission"
)

type User struct {
	ID               uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string         `gorm:"uniqueIndex;not null"     json:"email"`
	Name             string         `json:"name"`
	PasswordHash     string         `gorm:"not null"                 json:"-"`
	Permissions      permission.Set `gorm:"type:text;not null"       json:"permissions"`
	ResetToken       *string        `gorm:"index"                    json:"-"`
	ResetTokenExpiry *int64         `json:"-"`
}

type Item struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string  `gorm:"not null"                 json:"title"`
	Description string  `gorm:"not null"                 json:"description"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Image       string  `json:"image"`
	UserID      uint    `gorm:"index;not null"           json:"user_id"`
}

// CartItem is unique per (user, item); adding the same item again bumps the
// quantity instead of creating a second line.
type CartItem struct {
	ID       uint `gorm:"primaryKey"                                    json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_cart_user_item"       json:"user_id"`
	ItemID   uint `gorm:"not null;uniqueIndex:idx_cart_user_item"       json:"item_id"`
	Quantity uint `gorm:"default:1;check:quantity>0"                    json:"quantity"`
}

type Order struct {
	ID        uint    `gorm:"primaryKey"     json:"id"`
	UserID    uint    `gorm:"index;not null" json:"user_id"`
	Total     float64 `gorm:"not null"       json:"total"`
	Status    string  `gorm:"not null"       json:"status"`
	CreatedAt int64   `gorm:"not null"       json:"created_at"`
}

type OrderItem struct {
	ID       uint    `gorm:"primaryKey"     json:"id"`
	OrderID  uint    `gorm:"index;not null" json:"order_id"`
	UserID   uint    `gorm:"index;not null" json:"user_id"`
	ItemID   uint    `gorm:"not null"       json:"item_id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity uint    `json:"quantity"`
}
