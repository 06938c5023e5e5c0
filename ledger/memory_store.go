package ledger

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"pto/dates"
	"pto/models"
)

// MemoryStore is an in-memory Store. Transactions work on a copy of the
// state that replaces the live one only when fn succeeds.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memState
	inTx  bool
	now   func() time.Time
}

type memState struct {
	users    map[uint]models.User
	profiles map[uint]models.UserProfile // by user id
	entries  map[uint]models.Entry
	hours    []models.Hours // in creation order
	pending  map[uint]models.PendingSubmission
	nextID   uint
}

func (s *memState) clone() *memState {
	c := &memState{
		users:    make(map[uint]models.User, len(s.users)),
		profiles: make(map[uint]models.UserProfile, len(s.profiles)),
		entries:  make(map[uint]models.Entry, len(s.entries)),
		hours:    slices.Clone(s.hours),
		pending:  make(map[uint]models.PendingSubmission, len(s.pending)),
		nextID:   s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.pending {
		c.pending[k] = v
	}
	return c
}

func (s *memState) id() uint {
	s.nextID++
	return s.nextID
}

// NewMemoryStore returns an empty store. now stamps created rows; nil
// means time.Now in UTC.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &MemoryStore{
		mu: &sync.Mutex{},
		state: &memState{
			users:    make(map[uint]models.User),
			profiles: make(map[uint]models.UserProfile),
			entries:  make(map[uint]models.Entry),
			pending:  make(map[uint]models.PendingSubmission),
		},
		now: now,
	}
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if m.inTx {
		return fn(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &MemoryStore{mu: m.mu, state: m.state.clone(), inTx: true, now: m.now}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	defer m.lock()()
	for _, u := range m.state.users {
		if strings.EqualFold(u.Username, user.Username) {
			return ErrDuplicateUser
		}
	}
	user.ID = m.state.id()
	user.CreatedAt = m.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Profile = nil
	m.state.users[user.ID] = stored
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	defer m.lock()()
	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryStore) FindUserByLogin(_ context.Context, login string) (*models.User, error) {
	defer m.lock()()
	login = strings.TrimSpace(login)
	for _, id := range m.sortedUserIDs() {
		u := m.state.users[id]
		if u.Username == login || (u.Email != "" && strings.EqualFold(u.Email, login)) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	defer m.lock()()
	for _, id := range m.sortedUserIDs() {
		u := m.state.users[id]
		if u.Email != "" && strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) sortedUserIDs() []uint {
	ids := make([]uint, 0, len(m.state.users))
	for id := range m.state.users {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m *MemoryStore) GetProfile(_ context.Context, userID uint) (*models.UserProfile, error) {
	defer m.lock()()
	if _, ok := m.state.users[userID]; !ok {
		return nil, ErrNotFound
	}
	p, ok := m.state.profiles[userID]
	if !ok {
		return &models.UserProfile{UserID: userID}, nil
	}
	return &p, nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile *models.UserProfile) error {
	defer m.lock()()
	if _, ok := m.state.users[profile.UserID]; !ok {
		return ErrNotFound
	}
	if existing, ok := m.state.profiles[profile.UserID]; ok {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.ID = m.state.id()
		profile.CreatedAt = m.now()
	}
	profile.UpdatedAt = m.now()
	stored := *profile
	stored.User = nil
	m.state.profiles[profile.UserID] = stored
	return nil
}

func (m *MemoryStore) ListProfiles(_ context.Context) ([]models.UserProfile, error) {
	defer m.lock()()
	var out []models.UserProfile
	for _, id := range m.sortedUserIDs() {
		p, ok := m.state.profiles[id]
		if !ok {
			continue
		}
		u := m.state.users[id]
		p.User = &u
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryStore) CreateEntry(_ context.Context, entry *models.Entry) error {
	defer m.lock()()
	if _, ok := m.state.users[entry.UserID]; !ok {
		return ErrNotFound
	}
	entry.ID = m.state.id()
	if entry.AddDate.IsZero() {
		entry.AddDate = m.now()
	}
	entry.Start, entry.End = dates.Day(entry.Start), dates.Day(entry.End)
	stored := *entry
	stored.User = models.User{}
	if entry.TotalHours != nil {
		total := *entry.TotalHours
		stored.TotalHours = &total
	}
	m.state.entries[entry.ID] = stored
	return nil
}

func (m *MemoryStore) entryWithUser(e models.Entry) models.Entry {
	e.User = m.state.users[e.UserID]
	if e.TotalHours != nil {
		total := *e.TotalHours
		e.TotalHours = &total
	}
	return e
}

func (m *MemoryStore) GetEntry(_ context.Context, id uint) (*models.Entry, error) {
	defer m.lock()()
	e, ok := m.state.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	e = m.entryWithUser(e)
	return &e, nil
}

func (m *MemoryStore) SetEntryTotal(_ context.Context, id uint, total int) error {
	defer m.lock()()
	e, ok := m.state.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.TotalHours = &total
	m.state.entries[id] = e
	return nil
}

func (m *MemoryStore) DeleteUnfinishedEntries(_ context.Context, userID, keepID uint) (int64, error) {
	defer m.lock()()
	var n int64
	for id, e := range m.state.entries {
		if e.UserID != userID || e.ID == keepID || e.TotalHours != nil {
			continue
		}
		delete(m.state.entries, id)
		delete(m.state.pending, id)
		m.state.hours = slices.DeleteFunc(m.state.hours, func(h models.Hours) bool {
			return h.EntryID == id
		})
		n++
	}
	return n, nil
}

func (m *MemoryStore) FindEntries(_ context.Context, q EntryQuery) ([]models.Entry, error) {
	defer m.lock()()
	var users map[uint]bool
	if len(q.UserIDs) > 0 {
		users = make(map[uint]bool, len(q.UserIDs))
		for _, id := range q.UserIDs {
			users[id] = true
		}
	}

	var out []models.Entry
	for _, e := range m.state.entries {
		if e.TotalHours == nil {
			continue
		}
		if users != nil && !users[e.UserID] {
			continue
		}
		if q.NonNegative && *e.TotalHours < 0 {
			continue
		}
		if q.OverlapFrom != nil && e.End.Before(*q.OverlapFrom) {
			continue
		}
		if q.OverlapTo != nil && e.Start.After(*q.OverlapTo) {
			continue
		}
		if q.StartAfter != nil && !e.Start.After(*q.StartAfter) {
			continue
		}
		if q.StartBefore != nil && !e.Start.Before(*q.StartBefore) {
			continue
		}
		out = append(out, m.entryWithUser(e))
	}

	slices.SortFunc(out, func(a, b models.Entry) int {
		if c := strings.Compare(a.User.FirstName, b.User.FirstName); c != 0 {
			return c
		}
		if c := strings.Compare(a.User.LastName, b.User.LastName); c != 0 {
			return c
		}
		if c := strings.Compare(a.User.Username, b.User.Username); c != 0 {
			return c
		}
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

func compareIDs(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (m *MemoryStore) CreateHours(_ context.Context, hours *models.Hours) error {
	defer m.lock()()
	if _, ok := m.state.entries[hours.EntryID]; !ok {
		return ErrNotFound
	}
	hours.ID = m.state.id()
	hours.CreatedAt = m.now()
	hours.Date = dates.Day(hours.Date)
	stored := *hours
	stored.Entry = nil
	m.state.hours = append(m.state.hours, stored)
	return nil
}

func (m *MemoryStore) LatestUserHours(_ context.Context, userID uint, date time.Time) (*models.Hours, error) {
	defer m.lock()()
	day := dates.Day(date)
	for i := len(m.state.hours) - 1; i >= 0; i-- {
		h := m.state.hours[i]
		if !h.Date.Equal(day) {
			continue
		}
		e, ok := m.state.entries[h.EntryID]
		if !ok || e.UserID != userID {
			continue
		}
		e = m.entryWithUser(e)
		h.Entry = &e
		return &h, nil
	}
	return nil, nil
}

func (m *MemoryStore) EntryHours(_ context.Context, entryID uint) ([]models.Hours, error) {
	defer m.lock()()
	var out []models.Hours
	for _, h := range m.state.hours {
		if h.EntryID == entryID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *MemoryStore) HasBirthday(_ context.Context, entryID uint) (bool, error) {
	defer m.lock()()
	for _, h := range m.state.hours {
		if h.EntryID == entryID && h.Birthday {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) SavePending(_ context.Context, pending *models.PendingSubmission) error {
	defer m.lock()()
	if _, ok := m.state.entries[pending.EntryID]; !ok {
		return ErrNotFound
	}
	pending.CreatedAt = m.now()
	m.state.pending[pending.EntryID] = *pending
	return nil
}

func (m *MemoryStore) GetPending(_ context.Context, entryID uint) (*models.PendingSubmission, error) {
	defer m.lock()()
	p, ok := m.state.pending[entryID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryStore) TakePending(_ context.Context, entryID uint) (*models.PendingSubmission, error) {
	defer m.lock()()
	p, ok := m.state.pending[entryID]
	if !ok {
		return nil, nil
	}
	delete(m.state.pending, entryID)
	return &p, nil
}

func (m *MemoryStore) ListRows(_ context.Context, f Filter) ([]Row, error) {
	defer m.lock()()
	ids := make([]uint, 0, len(m.state.entries))
	for id := range m.state.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var rows []Row
	for _, id := range ids {
		e := m.entryWithUser(m.state.entries[id])
		if !f.Matches(&e) {
			continue
		}
		var profile *models.UserProfile
		if p, ok := m.state.profiles[e.UserID]; ok {
			profile = &p
		}
		rows = append(rows, NewRow(&e, profile))
	}
	return rows, nil
}

func (m *MemoryStore) FilingBounds(_ context.Context) (first, last, firstFiled time.Time, ok bool, err error) {
	defer m.lock()()
	for _, e := range m.state.entries {
		if !ok {
			first, last, firstFiled, ok = e.Start, e.End, e.AddDate, true
			continue
		}
		if e.Start.Before(first) {
			first = e.Start
		}
		if e.End.After(last) {
			last = e.End
		}
		if e.AddDate.Before(firstFiled) {
			firstFiled = e.AddDate
		}
	}
	return first, last, firstFiled, ok, nil
}

var _ Store = (*MemoryStore)(nil)
