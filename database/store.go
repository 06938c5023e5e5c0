package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pto/ledger"
	"pto/models"
)

// LedgerStore is the PostgreSQL ledger.Store.
type LedgerStore struct {
	db *gorm.DB
}

func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.ErrNotFound
	}
	return err
}

func (s *LedgerStore) WithinTx(ctx context.Context, fn func(tx ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerStore{db: tx})
	})
}

func (s *LedgerStore) CreateUser(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ledger.ErrDuplicateUser
	}
	return err
}

func (s *LedgerStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *LedgerStore) FindUserByLogin(ctx context.Context, login string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var u models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR (email <> '' AND LOWER(email) = LOWER(?))", login, login).
		Order("id").
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *LedgerStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Where("email <> '' AND LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		Order("id").
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *LedgerStore) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profiles []models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&profiles).Error; err != nil {
		return nil, err
	}
	if len(profiles) == 1 {
		return &profiles[0], nil
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return &models.UserProfile{UserID: userID}, nil
}

func (s *LedgerStore) SaveProfile(ctx context.Context, profile *models.UserProfile) error {
	db := s.db.WithContext(ctx).Omit(clause.Associations)
	if profile.ID == 0 {
		return db.Create(profile).Error
	}
	return db.Save(profile).Error
}

func (s *LedgerStore) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	var profiles []models.UserProfile
	err := s.db.WithContext(ctx).Preload("User").Order("user_id").Find(&profiles).Error
	return profiles, err
}

func (s *LedgerStore) CreateEntry(ctx context.Context, entry *models.Entry) error {
	if entry.AddDate.IsZero() {
		entry.AddDate = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

func (s *LedgerStore) GetEntry(ctx context.Context, id uint) (*models.Entry, error) {
	var e models.Entry
	if err := s.db.WithContext(ctx).Preload("User").First(&e, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (s *LedgerStore) SetEntryTotal(ctx context.Context, id uint, total int) error {
	res := s.db.WithContext(ctx).Model(&models.Entry{}).Where("id = ?", id).Update("total_hours", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *LedgerStore) DeleteUnfinishedEntries(ctx context.Context, userID, keepID uint) (int64, error) {
	db := s.db.WithContext(ctx)

	var ids []uint
	err := db.Model(&models.Entry{}).
		Where("user_id = ? AND id <> ? AND total_hours IS NULL", userID, keepID).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := db.Where("entry_id IN ?", ids).Delete(&models.PendingSubmission{}).Error; err != nil {
		return 0, fmt.Errorf("delete pending submissions: %w", err)
	}
	if err := db.Where("entry_id IN ?", ids).Delete(&models.Hours{}).Error; err != nil {
		return 0, fmt.Errorf("delete hours: %w", err)
	}
	res := db.Where("id IN ?", ids).Delete(&models.Entry{})
	return res.RowsAffected, res.Error
}

// entryQueryScope narrows a query on entries joined with users.
func entryQueryScope(q ledger.EntryQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("entries.total_hours IS NOT NULL")
		if len(q.UserIDs) > 0 {
			db = db.Where("entries.user_id IN ?", q.UserIDs)
		}
		if q.NonNegative {
			db = db.Where("entries.total_hours >= 0")
		}
		if q.OverlapFrom != nil {
			db = db.Where("entries.end_date >= ?", *q.OverlapFrom)
		}
		if q.OverlapTo != nil {
			db = db.Where("entries.start_date <= ?", *q.OverlapTo)
		}
		if q.StartAfter != nil {
			db = db.Where("entries.start_date > ?", *q.StartAfter)
		}
		if q.StartBefore != nil {
			db = db.Where("entries.start_date < ?", *q.StartBefore)
		}
		return db
	}
}

const joinUsers = "JOIN users ON users.id = entries.user_id"

func (s *LedgerStore) FindEntries(ctx context.Context, q ledger.EntryQuery) ([]models.Entry, error) {
	var entries []models.Entry
	err := s.db.WithContext(ctx).
		Joins(joinUsers).
		Preload("User").
		Scopes(entryQueryScope(q)).
		Order("users.first_name, users.last_name, users.username, entries.start_date, entries.id").
		Find(&entries).Error
	return entries, err
}

func (s *LedgerStore) CreateHours(ctx context.Context, hours *models.Hours) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(hours).Error
}

func (s *LedgerStore) LatestUserHours(ctx context.Context, userID uint, date time.Time) (*models.Hours, error) {
	var rows []models.Hours
	err := s.db.WithContext(ctx).
		Joins("JOIN entries ON entries.id = hours.entry_id").
		Where("entries.user_id = ? AND hours.date = ?", userID, date).
		Preload("Entry").
		Order("hours.id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *LedgerStore) EntryHours(ctx context.Context, entryID uint) ([]models.Hours, error) {
	var rows []models.Hours
	err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).Order("id").Find(&rows).Error
	return rows, err
}

func (s *LedgerStore) HasBirthday(ctx context.Context, entryID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Hours{}).
		Where("entry_id = ? AND birthday", entryID).
		Count(&n).Error
	return n > 0, err
}

func (s *LedgerStore) SavePending(ctx context.Context, pending *models.PendingSubmission) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entry_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"notify_extra"}),
		}).
		Create(pending).Error
}

func (s *LedgerStore) GetPending(ctx context.Context, entryID uint) (*models.PendingSubmission, error) {
	var rows []models.PendingSubmission
	if err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *LedgerStore) TakePending(ctx context.Context, entryID uint) (*models.PendingSubmission, error) {
	p, err := s.GetPending(ctx, entryID)
	if err != nil || p == nil {
		return p, err
	}
	if err := s.db.WithContext(ctx).Where("entry_id = ?", entryID).Delete(&models.PendingSubmission{}).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// escapeLike quotes LIKE wildcards with PostgreSQL's default escape
// character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// filterScope applies a ledger filter to entries joined with users.
func filterScope(f ledger.Filter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("entries.total_hours IS NOT NULL")
		if m, ok := f.MatchName(); ok {
			if m.Email != "" {
				db = db.Where("LOWER(users.email) = ?", m.Email)
			} else {
				db = db.Where("(LOWER(users.first_name) LIKE ? OR LOWER(users.last_name) LIKE ?)",
					escapeLike(m.FirstPrefix)+"%", "%"+escapeLike(m.LastSuffix))
			}
		}
		if f.DateFrom != nil {
			db = db.Where("entries.end_date >= ?", *f.DateFrom)
		}
		if f.DateTo != nil {
			db = db.Where("entries.start_date <= ?", *f.DateTo)
		}
		if f.DateFiledFrom != nil {
			db = db.Where("entries.add_date >= ?", *f.DateFiledFrom)
		}
		if before := f.FiledBefore(); before != nil {
			db = db.Where("entries.add_date < ?", *before)
		}
		return db
	}
}

func (s *LedgerStore) ListRows(ctx context.Context, f ledger.Filter) ([]ledger.Row, error) {
	var entries []models.Entry
	err := s.db.WithContext(ctx).
		Joins(joinUsers).
		Preload("User.Profile").
		Scopes(filterScope(f)).
		Order("entries.id").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	rows := make([]ledger.Row, 0, len(entries))
	for i := range entries {
		rows = append(rows, ledger.NewRow(&entries[i], entries[i].User.Profile))
	}
	return rows, nil
}

func (s *LedgerStore) FilingBounds(ctx context.Context) (first, last, firstFiled time.Time, ok bool, err error) {
	var b struct {
		First      *time.Time
		Last       *time.Time
		FirstFiled *time.Time
	}
	err = s.db.WithContext(ctx).Model(&models.Entry{}).
		Select("MIN(start_date) AS first, MAX(end_date) AS last, MIN(add_date) AS first_filed").
		Scan(&b).Error
	if err != nil || b.First == nil {
		return first, last, firstFiled, false, err
	}
	if b.Last != nil {
		last = *b.Last
	}
	if b.FirstFiled != nil {
		firstFiled = *b.FirstFiled
	}
	return *b.First, last, firstFiled, true, nil
}

var _ ledger.Store = (*LedgerStore)(nil)
