package ledger

import (
	"context"
	"testing"
	"time"

	"pto/models"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func mustUser(t *testing.T, store Store, username, email, first, last string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, FirstName: first, LastName: last}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) error = %v", username, err)
	}
	return u
}

func mustEntry(t *testing.T, store Store, user *models.User, start, end time.Time, details string) *models.Entry {
	t.Helper()
	e := &models.Entry{UserID: user.ID, Start: start, End: end, Details: details}
	if err := store.CreateEntry(context.Background(), e); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	e.User = *user
	return e
}

func mustProfile(t *testing.T, store Store, user *models.User, manager string) {
	t.Helper()
	p, err := store.GetProfile(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	p.Manager = manager
	if err := store.SaveProfile(context.Background(), p); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
}

// userLedger sums the totals of every finished entry the user owns that
// touches date.
func userLedger(t *testing.T, store Store, userID uint, date time.Time) int {
	t.Helper()
	entries, err := store.FindEntries(context.Background(), EntryQuery{
		UserIDs:     []uint{userID},
		OverlapFrom: &date,
		OverlapTo:   &date,
	})
	if err != nil {
		t.Fatalf("FindEntries() error = %v", err)
	}
	sum := 0
	for _, e := range entries {
		sum += *e.TotalHours
	}
	return sum
}
