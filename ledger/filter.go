package ledger

import (
	"net/mail"
	"net/url"
	"strings"
	"time"

	"pto/dates"
	"pto/models"
)

// Filter narrows the ledger list. Nil fields do not filter.
type Filter struct {
	Name          string
	DateFrom      *time.Time
	DateTo        *time.Time
	DateFiledFrom *time.Time
	DateFiledTo   *time.Time
}

// Row is the list/export projection of a finished entry.
type Row struct {
	ID               uint
	Email            string
	FirstName        string
	LastName         string
	Filed            time.Time
	TotalHours       int
	Start            time.Time
	End              time.Time
	City             string
	Country          string
	Details          string
	ProfileStartDate *time.Time
}

// ListValues is the row as the list JSON carries it.
func (r Row) ListValues() []any {
	return []any{
		r.Email,
		r.FirstName,
		r.LastName,
		dates.Format(r.Filed),
		r.TotalHours,
		dates.Format(r.Start),
		dates.Format(r.End),
		r.City,
		r.Country,
		r.Details,
	}
}

// NewRow projects an entry, its owner and the owner's profile.
func NewRow(entry *models.Entry, profile *models.UserProfile) Row {
	row := Row{
		ID:        entry.ID,
		Email:     entry.User.Email,
		FirstName: entry.User.FirstName,
		LastName:  entry.User.LastName,
		Filed:     entry.AddDate,
		Start:     entry.Start,
		End:       entry.End,
		Details:   entry.Details,
	}
	if entry.TotalHours != nil {
		row.TotalHours = *entry.TotalHours
	}
	if profile != nil {
		row.City = profile.City
		row.Country = profile.Country
		row.ProfileStartDate = profile.StartDate
	}
	return row
}

// ParseFilter reads the list query string. Any unparsable date makes the
// whole filter invalid.
func ParseFilter(q url.Values) (Filter, error) {
	var (
		f    Filter
		verr ValidationError
	)

	f.Name = strings.TrimSpace(q.Get("name"))

	parse := func(key string) *time.Time {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			return nil
		}
		d, err := dates.ParseDate(raw)
		if err != nil {
			verr.Add(key, "Enter a valid date.")
			return nil
		}
		return &d
	}

	f.DateFrom = parse("date_from")
	f.DateTo = parse("date_to")
	f.DateFiledFrom = parse("date_filed_from")
	f.DateFiledTo = parse("date_filed_to")

	return f, verr.OrNil()
}

// NameMatch is the name filter broken into what a store compares against.
type NameMatch struct {
	// Email is set when the filter is an email address; the other fields
	// are then empty.
	Email string
	// FirstPrefix and LastSuffix are lower cased.
	FirstPrefix string
	LastSuffix  string
}

// MatchName interprets the name filter. ok is false for an empty filter.
func (f Filter) MatchName() (m NameMatch, ok bool) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return NameMatch{}, false
	}
	if ValidEmail(name) {
		return NameMatch{Email: strings.ToLower(name)}, true
	}
	parts := strings.Fields(strings.ToLower(name))
	return NameMatch{FirstPrefix: parts[0], LastSuffix: parts[len(parts)-1]}, true
}

// FiledBefore is the exclusive upper bound on the filing time, covering
// the whole DateFiledTo day.
func (f Filter) FiledBefore() *time.Time {
	if f.DateFiledTo == nil {
		return nil
	}
	t := dates.Day(*f.DateFiledTo).AddDate(0, 0, 1)
	return &t
}

// Matches applies the filter to an entry in memory.
func (f Filter) Matches(entry *models.Entry) bool {
	if entry.TotalHours == nil {
		return false
	}
	if f.DateFrom != nil && entry.End.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && entry.Start.After(*f.DateTo) {
		return false
	}
	if f.DateFiledFrom != nil && entry.AddDate.Before(*f.DateFiledFrom) {
		return false
	}
	if before := f.FiledBefore(); before != nil && !entry.AddDate.Before(*before) {
		return false
	}
	if m, ok := f.MatchName(); ok {
		if m.Email != "" {
			return strings.ToLower(entry.User.Email) == m.Email
		}
		return strings.HasPrefix(strings.ToLower(entry.User.FirstName), m.FirstPrefix) ||
			strings.HasSuffix(strings.ToLower(entry.User.LastName), m.LastSuffix)
	}
	return true
}

// ValidEmail reports whether s is a bare address such as bob@example.com.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".") &&
		!strings.Contains(domain, "..")
}
