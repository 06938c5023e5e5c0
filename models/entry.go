package models

import (
	"time"
)

// Entry is one PTO request or corrective ledger record. TotalHours is nil
// until hours have been allocated.
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Start      time.Time `gorm:"column:start_date;not null;type:date;index" json:"start"`
	End        time.Time `gorm:"column:end_date;not null;type:date;index" json:"end"`
	TotalHours *int      `json:"total_hours"`
	Details    string    `gorm:"size:200" json:"details"`
	AddDate    time.Time `gorm:"not null;index" json:"add_date"`
}

func (Entry) TableName() string {
	return "entries"
}

// Days is the number of calendar days covered, weekends included.
func (e *Entry) Days() int {
	return int(e.End.Sub(e.Start).Hours()/24) + 1
}

func (e *Entry) IsFinished() bool {
	return e.TotalHours != nil
}

// Hours is one day's allocation on an entry. Corrective rows carry
// negative hours.
type Hours struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	EntryID   uint      `gorm:"not null;index" json:"entry_id"`
	Entry     *Entry    `gorm:"foreignKey:EntryID;constraint:OnDelete:CASCADE" json:"entry,omitempty"`
	Date      time.Time `gorm:"not null;type:date;index" json:"date"`
	Hours     int       `gorm:"not null" json:"hours"`
	Birthday  bool      `gorm:"default:false" json:"birthday"`
}

func (Hours) TableName() string {
	return "hours"
}

// PendingSubmission carries what the request step collected for the hours
// step of the same entry.
type PendingSubmission struct {
	EntryID     uint      `gorm:"primaryKey;autoIncrement:false" json:"entry_id"`
	CreatedAt   time.Time `json:"created_at"`
	NotifyExtra string    `gorm:"type:text" json:"notify_extra"`
}

func (PendingSubmission) TableName() string {
	return "pending_submissions"
}
