package notify

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

// Event is an all-day calendar event. End is the last day, inclusive.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// BuildEvent renders ev as a PUBLISH calendar with a single event.
func BuildEvent(ev Event, stamp time.Time) ([]byte, error) {
	if ev.End.Before(ev.Start) {
		return nil, fmt.Errorf("notify: event ends %s before it starts %s", ev.End.Format(time.DateOnly), ev.Start.Format(time.DateOnly))
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//pto//PTO notification//EN")

	event := cal.AddEvent(uuid.NewString())
	event.SetDtStampTime(stamp.UTC())
	event.SetSummary(ev.Summary)
	event.SetDescription(ev.Description)
	event.SetAllDayStartAt(ev.Start)
	// DTEND of an all-day event is exclusive.
	event.SetAllDayEndAt(ev.End.AddDate(0, 0, 1))

	return []byte(cal.Serialize()), nil
}
