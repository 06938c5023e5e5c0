package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pto/dates"
	"pto/directory"
	"pto/models"
	"pto/notify"
)

var ErrInvalidCredentials = errors.New("ledger: invalid credentials")

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const defaultWorkDay = 8

// Settings are the knobs of the PTO workflow.
type Settings struct {
	WorkDay        int
	Week           dates.WorkWeek
	EmailBlacklist []string
	Notify         notify.Policy
}

type Service struct {
	store    Store
	dir      directory.Directory
	mailer   notify.Mailer
	clock    Clock
	settings Settings
	logger   *log.Logger
}

// NewService wires the ledger workflow. A nil clock uses the wall clock,
// a nil directory finds nobody and a nil logger writes to the standard
// logger.
func NewService(store Store, dir directory.Directory, mailer notify.Mailer, clock Clock, settings Settings, logger *log.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if dir == nil {
		dir = directory.Static{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if settings.WorkDay <= 0 {
		settings.WorkDay = defaultWorkDay
	}
	if settings.Week == 0 {
		settings.Week = dates.DefaultWorkWeek
	}
	settings.Notify.WorkDay = settings.WorkDay
	return &Service{
		store:    store,
		dir:      dir,
		mailer:   mailer,
		clock:    clock,
		settings: settings,
		logger:   logger,
	}
}

func (s *Service) Settings() Settings {
	return s.settings
}

func (s *Service) Today() time.Time {
	return dates.Day(s.clock.Now())
}

// entryFor loads an entry the actor may work on.
func (s *Service) entryFor(ctx context.Context, actor *models.User, entryID uint) (*models.Entry, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageEntriesOf(entry.UserID) {
		return nil, ErrForbidden
	}
	return entry, nil
}

// Authenticate checks a username or email against the stored hash.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.store.FindUserByLogin(ctx, login)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateUser adds an account. Only privileged users may do so.
func (s *Service) CreateUser(ctx context.Context, actor *models.User, form *UserForm) (*models.User, error) {
	if !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ledger: hash password: %w", err)
	}
	user := &models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: string(hash),
		IsStaff:      form.IsStaff,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// NotifyPage is what the request step shows before submission.
type NotifyPage struct {
	Start      *time.Time         `json:"start,omitempty"`
	End        *time.Time         `json:"end,omitempty"`
	Manager    *directory.Record  `json:"manager,omitempty"`
	HRManagers []directory.Record `json:"hr_managers"`
}

// NotifyDefaults prefills the request step. start and end are optional
// epoch seconds; unparsable values are ignored.
func (s *Service) NotifyDefaults(ctx context.Context, actor *models.User, start, end string) (*NotifyPage, error) {
	page := &NotifyPage{}
	if t, err := dates.ParseDatetime(start); err == nil {
		d := dates.Day(t)
		page.Start = &d
	}
	if t, err := dates.ParseDatetime(end); err == nil {
		d := dates.Day(t)
		page.End = &d
	}

	profile, err := s.store.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if profile.Manager != "" {
		page.Manager = s.lookup(ctx, profile.Manager)
	}
	for _, addr := range s.settings.Notify.HRManagers {
		if rec := s.lookup(ctx, addr); rec != nil {
			page.HRManagers = append(page.HRManagers, *rec)
		}
	}
	return page, nil
}

// lookup treats directory failures as a miss.
func (s *Service) lookup(ctx context.Context, email string) *directory.Record {
	rec, err := s.dir.Lookup(ctx, email)
	if err != nil {
		s.logger.Printf("directory lookup %s: %v", email, err)
		return nil
	}
	return rec
}

// Notify records a new request. The user's earlier unfinished requests
// are swept in the same transaction.
func (s *Service) Notify(ctx context.Context, actor *models.User, form *RequestForm) (*models.Entry, error) {
	entry := &models.Entry{
		UserID:  actor.ID,
		Start:   form.Start,
		End:     form.End,
		Details: form.Details,
	}

	err := s.store.WithinTx(ctx, func(tx Store) error {
		if err := tx.CreateEntry(ctx, entry); err != nil {
			return fmt.Errorf("ledger: create entry: %w", err)
		}
		swept, err := CleanUnfinishedEntries(ctx, tx, entry)
		if err != nil {
			return err
		}
		if swept > 0 {
			s.logger.Printf("swept %d unfinished entries of user %d", swept, actor.ID)
		}
		pending := &models.PendingSubmission{EntryID: entry.ID, NotifyExtra: JoinNotifyList(form.Notify)}
		if err := tx.SavePending(ctx, pending); err != nil {
			return fmt.Errorf("ledger: save pending submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	entry.User = *actor
	return entry, nil
}

// HoursDay is one row of the hours step.
type HoursDay struct {
	Date  time.Time `json:"date"`
	Field string    `json:"field"`
	Value int       `json:"value"`
}

type HoursPage struct {
	Entry      *models.Entry `json:"entry"`
	Days       []HoursDay    `json:"days"`
	TotalHours int           `json:"total_hours"`
	Notify     []string      `json:"notify"`
}

// HoursForm prefills the hours step. Each day starts at the user's
// current hours on it, or a full work day.
func (s *Service) HoursForm(ctx context.Context, actor *models.User, entryID uint) (*HoursPage, error) {
	entry, err := s.entryFor(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}

	own, err := s.store.EntryHours(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	ownByDay := make(map[time.Time]int, len(own))
	for _, h := range own {
		ownByDay[dates.Day(h.Date)] = h.Hours
	}

	page := &HoursPage{Entry: entry}
	estimate := 0
	for d := range dates.WeekdayDates(entry.Start, entry.End, s.settings.Week) {
		value := s.settings.WorkDay
		latest, err := s.store.LatestUserHours(ctx, entry.UserID, d)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			value = latest.Hours
		}
		page.Days = append(page.Days, HoursDay{Date: d, Field: HoursFieldName(d), Value: value})

		if h, ok := ownByDay[d]; ok {
			estimate += h
		} else {
			estimate += s.settings.WorkDay
		}
	}

	if entry.TotalHours != nil && *entry.TotalHours != 0 {
		page.TotalHours = *entry.TotalHours
	} else {
		page.TotalHours = estimate
	}

	pending, err := s.store.GetPending(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		page.Notify = SplitNotifyList(pending.NotifyExtra)
	}
	return page, nil
}

// SaveResult is the outcome of the hours step.
type SaveResult struct {
	Entry      *models.Entry
	TotalHours int
	IsEdit     bool
	Recipients []string
	// Corrections are the corrective entries the allocation created.
	Corrections []models.Entry
}

// SaveHours allocates the submitted hours and notifies. A failed email is
// logged; the allocation stays committed.
func (s *Service) SaveHours(ctx context.Context, actor *models.User, entryID uint, values url.Values) (*SaveResult, error) {
	entry, err := s.entryFor(ctx, actor, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsFinished() {
		return nil, ErrAlreadyAllocated
	}
	sub, err := ParseHoursForm(entry, values, s.settings.WorkDay, s.settings.Week)
	if err != nil {
		return nil, err
	}

	var (
		alloc   *Allocation
		pending *models.PendingSubmission
	)
	err = s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		if alloc, err = Allocate(ctx, tx, entry, sub, s.settings.WorkDay, s.settings.Week); err != nil {
			return err
		}
		if pending, err = tx.TakePending(ctx, entry.ID); err != nil {
			return fmt.Errorf("ledger: take pending submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var extra []string
	if pending != nil {
		extra = SplitNotifyList(pending.NotifyExtra)
	}

	result := &SaveResult{
		Entry:       entry,
		TotalHours:  alloc.TotalHours,
		IsEdit:      alloc.IsEdit,
		Corrections: alloc.Corrections,
	}
	result.Recipients, err = s.sendNotification(ctx, entry, extra, alloc.IsEdit)
	if err != nil {
		s.logger.Printf("notify entry %d: %v", entry.ID, err)
	}
	return result, nil
}

func (s *Service) sendNotification(ctx context.Context, entry *models.Entry, extra []string, isEdit bool) ([]string, error) {
	profile, err := s.store.GetProfile(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}
	var managerMail string
	if profile.Manager != "" {
		if rec := s.lookup(ctx, profile.Manager); rec != nil {
			managerMail = rec.Mail
		}
	}
	birthday, err := s.store.HasBirthday(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	msg, err := notify.Compose(s.settings.Notify, notify.Submission{
		Entry:       entry,
		ManagerMail: managerMail,
		Extra:       extra,
		IsEdit:      isEdit,
		Birthday:    birthday,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if s.mailer == nil {
		return msg.To, nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return msg.To, err
	}
	return msg.To, nil
}

// EmailedUser is one recipient on the confirmation page. Record is nil
// when the directory does not know the address.
type EmailedUser struct {
	Email  string            `json:"email"`
	Record *directory.Record `json:"record,omitempty"`
}

func (s *Service) EmailsSent(ctx context.Context, actor *models.User, entryID uint, emails []string) ([]EmailedUser, error) {
	if _, err := s.entryFor(ctx, actor, entryID); err != nil {
		return nil, err
	}
	out := make([]EmailedUser, 0, len(emails))
	for _, email := range emails {
		out = append(out, EmailedUser{Email: email, Record: s.lookup(ctx, email)})
	}
	return out, nil
}

// UpdateProfile changes targetID's profile. Users edit their own; the
// manager and other users' profiles need a privileged actor.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, targetID uint, form *ProfileForm) (*models.UserProfile, error) {
	if targetID != actor.ID && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if form.Manager != nil && !actor.IsPrivileged() {
		return nil, ErrForbidden
	}
	if form.StartDate != nil && form.StartDate.After(s.Today()) {
		var verr ValidationError
		verr.Add("start_date", "Can't be in future")
		return nil, &verr
	}

	var profile *models.UserProfile
	err := s.store.WithinTx(ctx, func(tx Store) error {
		var err error
		if profile, err = tx.GetProfile(ctx, targetID); err != nil {
			return err
		}
		profile.StartDate = form.StartDate
		profile.Country = form.Country
		profile.City = form.City
		if form.Manager != nil {
			profile.Manager = *form.Manager
		}
		return tx.SaveProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Service) Profile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

// User loads an account by id.
func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
