package notify

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"pto/models"
)

func intPtr(v int) *int { return &v }

func testEntry(start, end time.Time, total int) *models.Entry {
	return &models.Entry{
		ID:         7,
		UserID:     1,
		User:       models.User{ID: 1, Username: "peter", Email: "peter@example.com", FirstName: "Peter", LastName: "Bengtsson"},
		Start:      start,
		End:        end,
		TotalHours: intPtr(total),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRecipients(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		manager string
		extra   []string
		want    []string
	}{
		{
			name:    "order and dupes",
			policy:  Policy{HRManagers: []string{"hr@example.com"}},
			manager: "boss@example.com",
			extra:   []string{"HR@example.com", "friend@example.com", "boss@example.com"},
			want:    []string{"hr@example.com", "boss@example.com", "friend@example.com"},
		},
		{
			name:   "fallback",
			policy: Policy{Fallback: "pto@example.com"},
			want:   []string{"pto@example.com"},
		},
		{
			name:   "no fallback",
			policy: Policy{},
			want:   nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recipients(tt.policy, tt.manager, tt.extra)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Recipients() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		name     string
		entry    *models.Entry
		birthday bool
		want     string
	}{
		{"hours", testEntry(day(2011, 7, 1), day(2011, 7, 1), 4), false, "4 hours"},
		{"birthday", testEntry(day(2011, 7, 1), day(2011, 7, 1), 0), true, "birthday"},
		{"one day", testEntry(day(2011, 7, 1), day(2011, 7, 1), 8), false, "1 day"},
		{"many days", testEntry(day(2011, 7, 4), day(2011, 7, 6), 24), false, "3 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Length(tt.entry, tt.birthday, 8); got != tt.want {
				t.Errorf("Length() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompose(t *testing.T) {
	entry := testEntry(day(2011, 7, 4), day(2011, 7, 6), 24)
	entry.Details = "Going fishing"
	policy := Policy{
		HRManagers: []string{"hr@example.com"},
		Signature:  "The PTO team",
		WorkDay:    8,
	}

	msg, err := Compose(policy, Submission{Entry: entry, ManagerMail: "boss@example.com"}, day(2011, 7, 1))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if msg.Subject != "PTO notification from Peter Bengtsson" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.From != "peter@example.com" || !reflect.DeepEqual(msg.Cc, []string{"peter@example.com"}) {
		t.Errorf("From/Cc = %q/%v", msg.From, msg.Cc)
	}
	if !reflect.DeepEqual(msg.To, []string{"hr@example.com", "boss@example.com"}) {
		t.Errorf("To = %v", msg.To)
	}
	for _, want := range []string{"submitted 24 hours of PTO", "Monday, July 4, 2011", "Going fishing", "--\nThe PTO team"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("Body missing %q:\n%s", want, msg.Body)
		}
	}

	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments = %d, want 1", len(msg.Attachments))
	}
	a := msg.Attachments[0]
	if a.Filename != "event.ics" || !strings.HasPrefix(a.MIMEType, "text/calendar") {
		t.Errorf("attachment = %s %s", a.Filename, a.MIMEType)
	}
	ical := string(a.Data)
	for _, want := range []string{"METHOD:PUBLISH", "SUMMARY:Peter Bengtsson on PTO (3 days)", "20110704", "20110707"} {
		if !strings.Contains(ical, want) {
			t.Errorf("calendar missing %q:\n%s", want, ical)
		}
	}
}

func TestComposeEditSubject(t *testing.T) {
	entry := testEntry(day(2011, 7, 1), day(2011, 7, 1), 4)
	policy := Policy{SubjectEdit: "Changed: {{.Username}}"}

	msg, err := Compose(policy, Submission{Entry: entry, IsEdit: true}, day(2011, 7, 1))
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if msg.Subject != "Changed: peter" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.HasPrefix(msg.Body, "(Edited) ") {
		t.Errorf("Body = %q, want edited marker", msg.Body)
	}
	if !strings.Contains(string(msg.Attachments[0].Data), "(4 hours)") {
		t.Errorf("calendar summary should say 4 hours")
	}
}

func TestComposeBadSubjectTemplate(t *testing.T) {
	entry := testEntry(day(2011, 7, 1), day(2011, 7, 1), 8)
	if _, err := Compose(Policy{Subject: "{{.Nope"}, Submission{Entry: entry}, day(2011, 7, 1)); err == nil {
		t.Fatal("Compose() with broken template: expected error")
	}
}

func TestBuildEventRejectsInvertedRange(t *testing.T) {
	if _, err := BuildEvent(Event{Start: day(2011, 7, 2), End: day(2011, 7, 1)}, day(2011, 7, 1)); err == nil {
		t.Fatal("BuildEvent() expected error")
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	if err := rec.Send(context.Background(), &Message{Subject: "a"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	rec.Err = errors.New("relay down")
	if err := rec.Send(context.Background(), &Message{Subject: "b"}); err == nil {
		t.Fatal("Send() expected error")
	}
	if got := len(rec.Sent()); got != 2 {
		t.Errorf("Sent() = %d messages, want 2", got)
	}
}

func TestToGomailHeaders(t *testing.T) {
	m := toGomail(&Message{
		From:    "peter@example.com",
		To:      []string{"hr@example.com", "boss@example.com"},
		Subject: "Hi",
		Body:    "body",
	})
	if got := m.GetHeader("To"); !reflect.DeepEqual(got, []string{"hr@example.com", "boss@example.com"}) {
		t.Errorf("To header = %v", got)
	}
	if got := m.GetHeader("Cc"); len(got) != 0 {
		t.Errorf("Cc header = %v, want none", got)
	}
}
