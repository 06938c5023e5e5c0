package ledger

import (
	"context"
	"time"

	"pto/models"
)

// Store is the persistence the ledger runs on. WithinTx runs fn against a
// Store bound to a single transaction; fn's error rolls everything back.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	FindUserByLogin(ctx context.Context, login string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetProfile returns the user's profile, or an empty unsaved profile
	// when none exists.
	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	// ListProfiles returns every profile with its User loaded.
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)

	CreateEntry(ctx context.Context, entry *models.Entry) error
	// GetEntry loads an entry with its User.
	GetEntry(ctx context.Context, id uint) (*models.Entry, error)
	SetEntryTotal(ctx context.Context, id uint, total int) error
	// DeleteUnfinishedEntries removes the user's entries with no total
	// hours, except keepID, along with their pending submissions.
	DeleteUnfinishedEntries(ctx context.Context, userID, keepID uint) (int64, error)
	FindEntries(ctx context.Context, q EntryQuery) ([]models.Entry, error)

	CreateHours(ctx context.Context, hours *models.Hours) error
	// LatestUserHours returns the most recently created Hours row of any
	// entry owned by userID on date, with its Entry loaded, or nil.
	LatestUserHours(ctx context.Context, userID uint, date time.Time) (*models.Hours, error)
	EntryHours(ctx context.Context, entryID uint) ([]models.Hours, error)
	HasBirthday(ctx context.Context, entryID uint) (bool, error)

	SavePending(ctx context.Context, pending *models.PendingSubmission) error
	// GetPending returns the pending submission of entryID, or nil.
	GetPending(ctx context.Context, entryID uint) (*models.PendingSubmission, error)
	// TakePending returns and deletes the pending submission of entryID,
	// or nil when there is none.
	TakePending(ctx context.Context, entryID uint) (*models.PendingSubmission, error)

	// ListRows runs the ledger filter. Unfinished entries never appear.
	ListRows(ctx context.Context, f Filter) ([]Row, error)
	// FilingBounds returns the earliest start, latest end and earliest
	// filing date over all entries. ok is false when the ledger is empty.
	FilingBounds(ctx context.Context) (first, last, firstFiled time.Time, ok bool, err error)
}

// EntryQuery selects finished entries for read-side views. Zero fields do
// not filter. Results are ordered by owner first name, last name, username,
// then start date.
type EntryQuery struct {
	UserIDs []uint
	// OverlapFrom/OverlapTo keep entries with end >= from and start <= to.
	OverlapFrom *time.Time
	OverlapTo   *time.Time
	// StartAfter/StartBefore are exclusive bounds on the start date.
	StartAfter  *time.Time
	StartBefore *time.Time
	NonNegative bool
}
