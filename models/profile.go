package models

import (
	"time"
)

// UserProfile holds the HR attributes of a user. Manager is the manager's
// email address and may be empty.
type UserProfile struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Manager   string     `gorm:"index;size:254" json:"manager"`
	Country   string     `gorm:"size:100" json:"country"`
	City      string     `gorm:"size:100" json:"city"`
	StartDate *time.Time `gorm:"type:date" json:"start_date"`
}
