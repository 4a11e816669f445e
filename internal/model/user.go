package model

import "time"

// User stores Telegram user metadata. Email links the user to collaborator
// invitations made by address.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	Email      string `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
