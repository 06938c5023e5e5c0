package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Username     string       `gorm:"uniqueIndex;not null;size:150" json:"username"`
	Email        string       `gorm:"index;size:254" json:"email"`
	FirstName    string       `gorm:"size:150" json:"first_name"`
	LastName     string       `gorm:"size:150" json:"last_name"`
	PasswordHash string       `gorm:"not null" json:"-"`
	IsStaff      bool         `gorm:"default:false" json:"is_staff"`
	IsSuperuser  bool         `gorm:"default:false" json:"is_superuser"`
	Profile      *UserProfile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// FullName is "First Last", trimmed. It is empty when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the username when the user has no name.
func (u *User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

func (u *User) IsPrivileged() bool {
	return u.IsStaff || u.IsSuperuser
}

// CanManageEntriesOf reports whether u may view or allocate hours on
// entries owned by userID.
func (u *User) CanManageEntriesOf(userID uint) bool {
	if u.IsPrivileged() {
		return true
	}
	return u.ID == userID
}
