package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"pto/dates"
	"pto/models"
)

func TestAllocate_FreshEntry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "peter@example.com", "Peter", "B")
	// Monday to Wednesday.
	entry := mustEntry(t, store, user, day(2011, 7, 4), day(2011, 7, 6), "")

	alloc, err := Allocate(ctx, store, entry, Submission{
		day(2011, 7, 4): 8,
		day(2011, 7, 5): 0,
		day(2011, 7, 6): 4,
	}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	if alloc.TotalHours != 12 || alloc.IsEdit {
		t.Errorf("Allocate() = (%d, %v), want (12, false)", alloc.TotalHours, alloc.IsEdit)
	}
	if len(alloc.Corrections) != 0 {
		t.Errorf("Corrections = %d, want 0", len(alloc.Corrections))
	}
	rows, _ := store.EntryHours(ctx, entry.ID)
	if len(rows) != 3 {
		t.Errorf("hours rows = %d, want 3", len(rows))
	}
	stored, _ := store.GetEntry(ctx, entry.ID)
	if stored.TotalHours == nil || *stored.TotalHours != 12 {
		t.Errorf("stored total = %v, want 12", stored.TotalHours)
	}
}

func TestAllocate_ReallocationAppendsCorrection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "peter@example.com", "Peter", "B")
	monday := day(2011, 7, 4)

	first := mustEntry(t, store, user, monday, monday, "Dentist")
	if _, err := Allocate(ctx, store, first, Submission{monday: 8}, 8, dates.DefaultWorkWeek); err != nil {
		t.Fatalf("first Allocate() error = %v", err)
	}

	second := mustEntry(t, store, user, monday, monday, "")
	alloc, err := Allocate(ctx, store, second, Submission{monday: 4}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatalf("second Allocate() error = %v", err)
	}

	if len(alloc.Corrections) != 1 {
		t.Fatalf("Corrections = %d, want 1", len(alloc.Corrections))
	}
	c := alloc.Corrections[0]
	if *c.TotalHours != -8 || !c.Start.Equal(monday) || !c.End.Equal(monday) || c.Details != "Dentist" || c.UserID != user.ID {
		t.Errorf("correction = %+v", c)
	}
	if got := userLedger(t, store, user.ID, monday); got != 4 {
		t.Errorf("ledger sum = %d, want 4", got)
	}

	// The first entry is untouched.
	orig, _ := store.GetEntry(ctx, first.ID)
	if *orig.TotalHours != 8 {
		t.Errorf("first total = %d, want 8", *orig.TotalHours)
	}
	rows, _ := store.EntryHours(ctx, first.ID)
	if len(rows) != 1 || rows[0].Hours != 8 {
		t.Errorf("first hours rows = %+v", rows)
	}
}

func TestAllocate_ZeroPriorNeedsNoCorrection(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	monday := day(2011, 7, 4)

	first := mustEntry(t, store, user, monday, monday, "")
	if _, err := Allocate(ctx, store, first, Submission{monday: BirthdaySentinel}, 8, dates.DefaultWorkWeek); err != nil {
		t.Fatal(err)
	}
	second := mustEntry(t, store, user, monday, monday, "")
	alloc, err := Allocate(ctx, store, second, Submission{monday: 8}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatal(err)
	}
	if len(alloc.Corrections) != 0 {
		t.Errorf("Corrections = %d, want 0 for a zero-hour prior row", len(alloc.Corrections))
	}
}

func TestAllocate_Birthday(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	friday := day(2011, 7, 1)
	entry := mustEntry(t, store, user, friday, friday, "")

	alloc, err := Allocate(ctx, store, entry, Submission{friday: BirthdaySentinel}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if alloc.TotalHours != 0 {
		t.Errorf("TotalHours = %d, want 0", alloc.TotalHours)
	}
	rows, _ := store.EntryHours(ctx, entry.ID)
	if len(rows) != 1 || rows[0].Hours != 0 || !rows[0].Birthday {
		t.Errorf("rows = %+v, want one zero-hour birthday row", rows)
	}
	if ok, _ := store.HasBirthday(ctx, entry.ID); !ok {
		t.Error("HasBirthday() = false")
	}
}

func TestAllocate_IsEdit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	friday := day(2011, 7, 1)
	entry := mustEntry(t, store, user, friday, friday, "")

	if _, err := Allocate(ctx, store, entry, Submission{friday: 8}, 8, dates.DefaultWorkWeek); err != nil {
		t.Fatal(err)
	}
	alloc, err := Allocate(ctx, store, entry, Submission{friday: 4}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatal(err)
	}
	if !alloc.IsEdit || alloc.TotalHours != 4 {
		t.Errorf("Allocate() = (%d, %v), want (4, true)", alloc.TotalHours, alloc.IsEdit)
	}
}

func TestAllocate_InvalidValueWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	entry := mustEntry(t, store, user, day(2011, 7, 4), day(2011, 7, 5), "")

	for _, bad := range []int{9, -2} {
		_, err := Allocate(ctx, store, entry, Submission{
			day(2011, 7, 4): 8,
			day(2011, 7, 5): bad,
		}, 8, dates.DefaultWorkWeek)
		if !IsValidation(err) {
			t.Fatalf("Allocate(%d) error = %v, want validation error", bad, err)
		}
	}

	rows, _ := store.EntryHours(ctx, entry.ID)
	if len(rows) != 0 {
		t.Errorf("hours rows = %d, want 0", len(rows))
	}
	stored, _ := store.GetEntry(ctx, entry.ID)
	if stored.TotalHours != nil {
		t.Errorf("total = %d, want nil", *stored.TotalHours)
	}
}

func TestAllocate_MissingDay(t *testing.T) {
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	entry := mustEntry(t, store, user, day(2011, 7, 4), day(2011, 7, 5), "")

	_, err := Allocate(context.Background(), store, entry, Submission{day(2011, 7, 4): 8}, 8, dates.DefaultWorkWeek)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if _, ok := verr.Fields["d-20110705"]; !ok {
		t.Errorf("fields = %v, want d-20110705", verr.Fields)
	}
}

// failingStore fails CreateHours after a number of successful calls.
type failingStore struct {
	Store
	left *int
}

func (f *failingStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return f.Store.WithinTx(ctx, func(tx Store) error {
		return fn(&failingStore{Store: tx, left: f.left})
	})
}

func (f *failingStore) CreateHours(ctx context.Context, h *models.Hours) error {
	if *f.left == 0 {
		return errors.New("disk full")
	}
	*f.left--
	return f.Store.CreateHours(ctx, h)
}

func TestAllocate_StoreFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore(nil)
	user := mustUser(t, mem, "peter", "", "", "")
	monday, tuesday := day(2011, 7, 4), day(2011, 7, 5)

	first := mustEntry(t, mem, user, monday, monday, "")
	if _, err := Allocate(ctx, mem, first, Submission{monday: 8}, 8, dates.DefaultWorkWeek); err != nil {
		t.Fatal(err)
	}

	entry := mustEntry(t, mem, user, monday, tuesday, "")
	// The correction and Monday's row succeed, Tuesday's fails.
	left := 2
	_, err := Allocate(ctx, &failingStore{Store: mem, left: &left}, entry, Submission{monday: 4, tuesday: 8}, 8, dates.DefaultWorkWeek)
	if err == nil {
		t.Fatal("Allocate() expected error")
	}

	if got := userLedger(t, mem, user.ID, monday); got != 8 {
		t.Errorf("ledger sum after rollback = %d, want 8", got)
	}
	rows, _ := mem.EntryHours(ctx, entry.ID)
	if len(rows) != 0 {
		t.Errorf("hours rows = %d, want 0", len(rows))
	}
}

func TestAllocate_SkipsWeekends(t *testing.T) {
	store := NewMemoryStore(nil)
	user := mustUser(t, store, "peter", "", "", "")
	// Friday to Monday.
	entry := mustEntry(t, store, user, day(2011, 7, 1), day(2011, 7, 4), "")

	alloc, err := Allocate(context.Background(), store, entry, Submission{
		day(2011, 7, 1): 8,
		day(2011, 7, 4): 8,
	}, 8, dates.DefaultWorkWeek)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if alloc.TotalHours != 16 {
		t.Errorf("TotalHours = %d, want 16", alloc.TotalHours)
	}
}

func TestHoursFieldName(t *testing.T) {
	if got := HoursFieldName(time.Date(2011, 7, 1, 0, 0, 0, 0, time.UTC)); got != "d-20110701" {
		t.Errorf("HoursFieldName() = %q", got)
	}
}
