package ledger

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pto/dates"
	"pto/models"
)

// RequestForm is the first step of a PTO submission.
type RequestForm struct {
	Start   time.Time
	End     time.Time
	Details string
	// Notify are the extra recipients, already validated.
	Notify []string
}

const maxDetailsLength = 200

// ParseRequestForm validates the request step. Addresses in notify that do
// not parse are dropped; a blacklisted one fails the form.
func ParseRequestForm(v url.Values, blacklist []string) (*RequestForm, error) {
	var (
		form RequestForm
		verr ValidationError
	)

	start, startErr := parseRequiredDate(v.Get("start"))
	if startErr != "" {
		verr.Add("start", startErr)
	}
	end, endErr := parseRequiredDate(v.Get("end"))
	if endErr != "" {
		verr.Add("end", endErr)
	}
	if startErr == "" && endErr == "" && start.After(end) {
		verr.Add("", "Start date can't be after end date.")
	}

	form.Start, form.End = start, end
	form.Details = strings.TrimSpace(v.Get("details"))
	if len(form.Details) > maxDetailsLength {
		verr.Add("details", fmt.Sprintf("Ensure this value has at most %d characters.", maxDetailsLength))
	}

	form.Notify = ParseNotifyList(v.Get("notify"))
	blocked := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		blocked[strings.ToLower(strings.TrimSpace(b))] = true
	}
	for _, addr := range form.Notify {
		if blocked[strings.ToLower(addr)] {
			verr.Add("notify", fmt.Sprintf("%s is not allowed to be notified.", addr))
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &form, nil
}

func parseRequiredDate(raw string) (time.Time, string) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, "This field is required."
	}
	d, err := dates.ParseDate(raw)
	if err != nil {
		return time.Time{}, "Enter a valid date."
	}
	return d, ""
}

func isNotifySeparator(r rune) bool {
	switch r {
	case ';', ',', '\t', '\n', '\r':
		return true
	}
	return false
}

// ParseNotifyList splits free text into addresses. Items may be bare
// addresses or "Name <address>"; anything else is ignored. Duplicates are
// dropped, keeping the first.
func ParseNotifyList(raw string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	for _, item := range strings.FieldsFunc(raw, isNotifySeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		addr, err := mail.ParseAddress(item)
		if err != nil || !ValidEmail(addr.Address) {
			continue
		}
		key := strings.ToLower(addr.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr.Address)
	}
	return out
}

// JoinNotifyList is the stored form of a notify list.
func JoinNotifyList(addrs []string) string {
	return strings.Join(addrs, ";")
}

// SplitNotifyList reverses JoinNotifyList.
func SplitNotifyList(stored string) []string {
	var out []string
	for _, s := range strings.Split(stored, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseHoursForm reads one d-YYYYMMDD value per business day of entry.
// The first and last day of the range may not be zero hours; the range
// should be shortened instead.
func ParseHoursForm(entry *models.Entry, v url.Values, workDay int, week dates.WorkWeek) (Submission, error) {
	var verr ValidationError
	sub := make(Submission)

	days := dates.CollectWeekdayDates(entry.Start, entry.End, week)
	for _, d := range days {
		key := HoursFieldName(d)
		raw := strings.TrimSpace(v.Get(key))
		if raw == "" {
			verr.Add(key, "This field is required.")
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			verr.Add(key, "Enter a whole number.")
			continue
		}
		if _, _, ok := normalize(value, workDay); !ok {
			verr.Add(key, fmt.Sprintf("Select a valid choice. %d is not one of the available choices.", value))
			continue
		}
		sub[d] = value
	}

	if len(days) > 0 && verr.Empty() {
		if sub[days[0]] == 0 {
			verr.Add("", "You can't start your PTO with a day of 0 hours. Change the start date instead.")
		}
		if len(days) > 1 && sub[days[len(days)-1]] == 0 {
			verr.Add("", "You can't end your PTO with a day of 0 hours. Change the end date instead.")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return sub, nil
}

// ProfileForm is a profile update. Manager is nil when the form did not
// carry the field.
type ProfileForm struct {
	StartDate *time.Time
	Country   string
	City      string
	Manager   *string
}

// ParseProfileForm validates a profile update; the start date may not be
// after today.
func ParseProfileForm(v url.Values, today time.Time) (*ProfileForm, error) {
	var (
		form ProfileForm
		verr ValidationError
	)

	if raw := strings.TrimSpace(v.Get("start_date")); raw != "" {
		d, err := dates.ParseDate(raw)
		switch {
		case err != nil:
			verr.Add("start_date", "Enter a valid date.")
		case d.After(dates.Day(today)):
			verr.Add("start_date", "Can't be in future")
		default:
			form.StartDate = &d
		}
	}
	form.Country = strings.TrimSpace(v.Get("country"))
	form.City = strings.TrimSpace(v.Get("city"))

	if v.Has("manager") {
		manager := strings.TrimSpace(v.Get("manager"))
		if manager != "" && !ValidEmail(manager) {
			verr.Add("manager", "Enter a valid email address.")
		}
		form.Manager = &manager
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &form, nil
}

// UserForm creates an account.
type UserForm struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	IsStaff   bool
}

const minPasswordLength = 5

func ParseUserForm(v url.Values) (*UserForm, error) {
	var verr ValidationError
	form := UserForm{
		Username:  strings.TrimSpace(v.Get("username")),
		Email:     strings.TrimSpace(v.Get("email")),
		FirstName: strings.TrimSpace(v.Get("first_name")),
		LastName:  strings.TrimSpace(v.Get("last_name")),
		Password:  v.Get("password"),
	}
	form.IsStaff, _ = strconv.ParseBool(v.Get("is_staff"))

	if len(form.Username) < 3 {
		verr.Add("username", "Username must be at least 3 characters.")
	}
	if form.Email != "" && !ValidEmail(form.Email) {
		verr.Add("email", "Enter a valid email address.")
	}
	if len(form.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters.", minPasswordLength))
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return &form, nil
}
