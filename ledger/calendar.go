package ledger

import (
	"context"
	"fmt"
	"time"

	"pto/dates"
	"pto/models"
)

const minionDepth = 2

// calendarColors are handed out to minions from the end of the list.
var calendarColors = []string{
	"#EAA228", "#c5b47f", "#579575", "#839557", "#958c12",
	"#953579", "#4b5de4", "#d8b83f", "#ff5800", "#0085cc",
	"#c747a3", "#cddf54", "#FBD178", "#26B4E3", "#bd70c7",
}

// CalendarEvent is one row of the calendar feed. Color is nil for the
// actor's own entries.
type CalendarEvent struct {
	ID    uint    `json:"id"`
	Title string  `json:"title"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Color *string `json:"color"`
}

// CalendarEvents lists the finished, non-negative entries of the actor and
// the people below them that overlap [start, end].
func (s *Service) CalendarEvents(ctx context.Context, actor *models.User, start, end time.Time) ([]CalendarEvent, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	minions := NewOrgIndex(profiles).Minions(actor, minionDepth)

	colors := map[uint]*string{actor.ID: nil}
	userIDs := []uint{actor.ID}
	palette := len(calendarColors)
	for _, m := range minions {
		if _, seen := colors[m.ID]; !seen {
			userIDs = append(userIDs, m.ID)
		}
		// The palette wraps around once it runs out.
		palette--
		if palette < 0 {
			palette = len(calendarColors) - 1
		}
		c := calendarColors[palette]
		colors[m.ID] = &c
	}
	colors[actor.ID] = nil

	from, to := dates.Day(start), dates.Day(end)
	entries, err := s.store.FindEntries(ctx, EntryQuery{
		UserIDs:     userIDs,
		OverlapFrom: &from,
		OverlapTo:   &to,
		NonNegative: true,
	})
	if err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		title, err := s.eventTitle(ctx, actor, e)
		if err != nil {
			return nil, err
		}
		events = append(events, CalendarEvent{
			ID:    e.ID,
			Title: title,
			Start: dates.Format(e.Start),
			End:   dates.Format(e.End),
			Color: colors[e.UserID],
		})
	}
	return events, nil
}

func (s *Service) eventTitle(ctx context.Context, actor *models.User, e *models.Entry) (string, error) {
	birthday, err := s.store.HasBirthday(ctx, e.ID)
	if err != nil {
		return "", err
	}
	return EventTitle(actor, e, birthday), nil
}

// EventTitle names an entry on the calendar. Other people's entries are
// prefixed with their name.
func EventTitle(actor *models.User, e *models.Entry, birthday bool) string {
	var title string
	if e.UserID != actor.ID {
		if e.User.FirstName != "" {
			title = fmt.Sprintf("%s %s - ", e.User.FirstName, e.User.LastName)
		} else {
			title = e.User.Username + " - "
		}
	}

	total := 0
	if e.TotalHours != nil {
		total = *e.TotalHours
	}
	days := e.Days()
	switch {
	case days > 1:
		title += fmt.Sprintf("%d days", days)
		if birthday {
			title += " (includes birthday)"
		}
	case days == 1 && total == 0 && birthday:
		title += "Birthday!"
	default:
		title += fmt.Sprintf("%d hours", total)
	}

	if e.Details != "" {
		limit := 40
		if days == 1 {
			limit = 20
		}
		title += ", " + truncate(e.Details, limit)
	}
	return title
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
