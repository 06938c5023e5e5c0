package ledger

import (
	"context"
	"time"

	"pto/models"
)

const upcomingDays = 14

// DashboardItem is an entry with a day count: days left for people who are
// out now, days until it starts for upcoming ones.
type DashboardItem struct {
	Days  int           `json:"days"`
	Entry *models.Entry `json:"entry"`
}

// DashboardGroup collects one user's items.
type DashboardGroup struct {
	User  models.User     `json:"user"`
	Items []DashboardItem `json:"items"`
}

// ProfileStatus reports what the actor's profile is missing.
type ProfileStatus struct {
	Missing      []string `json:"missing,omitempty"`
	DaysEmployed *int     `json:"days_employed,omitempty"`
}

type Dashboard struct {
	RightNow []DashboardGroup `json:"right_now"`
	Upcoming []DashboardGroup `json:"upcoming"`
	Profile  ProfileStatus    `json:"profile"`
	// FirstDay is the calendar's first weekday, 0 for Sunday.
	FirstDay time.Weekday `json:"first_day"`
}

// mondayFirst are the countries whose calendars start on Monday.
var mondayFirst = map[string]bool{"GB": true, "FR": true, "DE": true}

func firstDay(country string) time.Weekday {
	if mondayFirst[country] {
		return time.Monday
	}
	return time.Sunday
}

func (s *Service) Dashboard(ctx context.Context, actor *models.User) (*Dashboard, error) {
	today := s.Today()

	rightNow, err := s.store.FindEntries(ctx, EntryQuery{
		OverlapFrom: &today,
		OverlapTo:   &today,
		NonNegative: true,
	})
	if err != nil {
		return nil, err
	}
	horizon := today.AddDate(0, 0, upcomingDays)
	upcoming, err := s.store.FindEntries(ctx, EntryQuery{
		StartAfter:  &today,
		StartBefore: &horizon,
		NonNegative: true,
	})
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		RightNow: groupByUser(rightNow, func(e *models.Entry) int { return daysBetween(today, e.End) + 1 }),
		Upcoming: groupByUser(upcoming, func(e *models.Entry) int { return daysBetween(today, e.Start) + 1 }),
		Profile:  profileStatus(profile, today),
		FirstDay: firstDay(profile.Country),
	}, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// groupByUser keeps the order of entries, which is by user name.
func groupByUser(entries []models.Entry, days func(*models.Entry) int) []DashboardGroup {
	var groups []DashboardGroup
	index := make(map[uint]int)
	for i := range entries {
		e := &entries[i]
		gi, ok := index[e.UserID]
		if !ok {
			gi = len(groups)
			index[e.UserID] = gi
			groups = append(groups, DashboardGroup{User: e.User})
		}
		groups[gi].Items = append(groups[gi].Items, DashboardItem{Days: days(e), Entry: e})
	}
	return groups
}

func profileStatus(p *models.UserProfile, today time.Time) ProfileStatus {
	var st ProfileStatus
	if p.Country == "" {
		st.Missing = append(st.Missing, "country")
	}
	if p.StartDate == nil {
		st.Missing = append(st.Missing, "start date")
	} else {
		d := daysBetween(*p.StartDate, today)
		st.DaysEmployed = &d
	}
	return st
}

// ListPage is the ledger list with the date range the ledger spans.
type ListPage struct {
	Rows       []Row     `json:"rows"`
	FirstDate  time.Time `json:"first_date"`
	LastDate   time.Time `json:"last_date"`
	FirstFiled time.Time `json:"first_filed_date"`
}

var emptyLedgerDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// List runs the filter. Callers pass valid=false for a filter that did not
// parse, which lists nothing.
func (s *Service) List(ctx context.Context, f Filter, valid bool) (*ListPage, error) {
	page := &ListPage{FirstDate: emptyLedgerDate, LastDate: emptyLedgerDate, FirstFiled: emptyLedgerDate}

	first, last, filed, ok, err := s.store.FilingBounds(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		page.FirstDate, page.LastDate, page.FirstFiled = first, last, filed
	}

	if !valid {
		page.Rows = []Row{}
		return page, nil
	}
	rows, err := s.store.ListRows(ctx, f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Row{}
	}
	page.Rows = rows
	return page, nil
}
