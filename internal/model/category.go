package model

import "time"

// Category is a user-defined label attached to tasks (many-to-many).
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index:idx_user_category_name,unique"`
	Name      string `gorm:"index:idx_user_category_name,unique"`
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
