package ledger

import (
	"context"
	"fmt"
	"time"

	"pto/dates"
	"pto/models"
)

// BirthdaySentinel is the submitted value for a zero-hour birthday day.
const BirthdaySentinel = -1

// Submission maps a business day (midnight UTC) to its submitted value.
type Submission map[time.Time]int

// Allocation is the outcome of an allocation pass.
type Allocation struct {
	TotalHours int
	// IsEdit is true when the entry already had a total before the pass.
	IsEdit bool
	// Corrections are the corrective entries created by the pass.
	Corrections []models.Entry
}

type allocatedDay struct {
	date     time.Time
	hours    int
	birthday bool
}

// normalize maps a submitted value to hours and the birthday flag.
func normalize(value, workDay int) (hours int, birthday bool, ok bool) {
	if value == BirthdaySentinel {
		return 0, true, true
	}
	if value < 0 || value > workDay {
		return 0, false, false
	}
	return value, false, true
}

// Allocate records one Hours row per business day of entry and sets the
// entry's total. A prior positive allocation by the same user on a day is
// cancelled by a corrective entry with the negated hours; nothing is
// updated in place or deleted. All values are checked before the first
// write and the pass runs in a single transaction.
func Allocate(ctx context.Context, store Store, entry *models.Entry, submitted Submission, workDay int, week dates.WorkWeek) (*Allocation, error) {
	var (
		days []allocatedDay
		verr ValidationError
	)
	for d := range dates.WeekdayDates(entry.Start, entry.End, week) {
		value, ok := submitted[d]
		if !ok {
			verr.Add(HoursFieldName(d), "This field is required.")
			continue
		}
		hours, birthday, ok := normalize(value, workDay)
		if !ok {
			verr.Add(HoursFieldName(d), fmt.Sprintf("Value %d is not between %d and %d.", value, BirthdaySentinel, workDay))
			continue
		}
		days = append(days, allocatedDay{date: d, hours: hours, birthday: birthday})
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	result := &Allocation{IsEdit: entry.TotalHours != nil}

	err := store.WithinTx(ctx, func(tx Store) error {
		total := 0
		for _, day := range days {
			prior, err := tx.LatestUserHours(ctx, entry.UserID, day.date)
			if err != nil {
				return fmt.Errorf("ledger: latest hours on %s: %w", dates.Format(day.date), err)
			}
			if prior != nil && prior.Hours > 0 {
				correction, err := reverse(ctx, tx, prior, day.date)
				if err != nil {
					return err
				}
				result.Corrections = append(result.Corrections, *correction)
			}

			row := &models.Hours{
				EntryID:  entry.ID,
				Date:     day.date,
				Hours:    day.hours,
				Birthday: day.birthday,
			}
			if err := tx.CreateHours(ctx, row); err != nil {
				return fmt.Errorf("ledger: create hours: %w", err)
			}
			total += day.hours
		}

		if err := tx.SetEntryTotal(ctx, entry.ID, total); err != nil {
			return fmt.Errorf("ledger: set total: %w", err)
		}
		result.TotalHours = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := result.TotalHours
	entry.TotalHours = &total
	return result, nil
}

// reverse inserts the corrective entry and hours row cancelling prior.
func reverse(ctx context.Context, tx Store, prior *models.Hours, date time.Time) (*models.Entry, error) {
	owner := prior.Entry
	if owner == nil {
		var err error
		if owner, err = tx.GetEntry(ctx, prior.EntryID); err != nil {
			return nil, fmt.Errorf("ledger: load corrected entry %d: %w", prior.EntryID, err)
		}
	}

	negated := -prior.Hours
	correction := &models.Entry{
		UserID:     owner.UserID,
		Start:      date,
		End:        date,
		Details:    owner.Details,
		TotalHours: &negated,
	}
	if err := tx.CreateEntry(ctx, correction); err != nil {
		return nil, fmt.Errorf("ledger: create corrective entry: %w", err)
	}

	row := &models.Hours{
		EntryID: correction.ID,
		Date:    date,
		Hours:   negated,
	}
	if err := tx.CreateHours(ctx, row); err != nil {
		return nil, fmt.Errorf("ledger: create corrective hours: %w", err)
	}
	return correction, nil
}

// HoursFieldName is the form key of a day, d-YYYYMMDD.
func HoursFieldName(d time.Time) string {
	return d.Format("d-20060102")
}
