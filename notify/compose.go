package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"pto/models"
)

const (
	DefaultSubject     = "PTO notification from {{.FirstName}} {{.LastName}}"
	DefaultSubjectEdit = "PTO update from {{.FirstName}} {{.LastName}}"
	DefaultSignature   = "The PTO app"

	calendarFilename = "event.ics"
	calendarMIMEType = "text/calendar; method=PUBLISH"
	startDateLayout  = "Monday, January 2, 2006"
)

var bodyTemplate = template.Must(template.New("body").Parse(
	`{{if .IsEdit}}(Edited) {{end}}{{.Name}} has submitted {{.TotalHours}} hours of PTO starting {{.StartDate}} ({{.Length}}).
{{- if .Details}}

Details: {{.Details}}
{{- end}}

--
{{.Signature}}
`))

// Policy is who gets notified and how messages read.
type Policy struct {
	HRManagers  []string
	Fallback    string
	Subject     string
	SubjectEdit string
	Signature   string
	WorkDay     int
}

// Submission is an entry whose hours were just allocated. Entry must have
// its User and TotalHours set.
type Submission struct {
	Entry       *models.Entry
	ManagerMail string
	Extra       []string
	IsEdit      bool
	Birthday    bool
}

// Recipients is HR managers, then the manager, then the extras, without
// duplicates. fallback is used when nothing is left.
func Recipients(p Policy, managerMail string, extra []string) []string {
	candidates := make([]string, 0, len(p.HRManagers)+1+len(extra))
	candidates = append(candidates, p.HRManagers...)
	candidates = append(candidates, managerMail)
	candidates = append(candidates, extra...)

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, addr := range candidates {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	if len(out) == 0 && p.Fallback != "" {
		out = []string{p.Fallback}
	}
	return out
}

// Length describes an entry the way the calendar summary does.
func Length(entry *models.Entry, birthday bool, workDay int) string {
	total := 0
	if entry.TotalHours != nil {
		total = *entry.TotalHours
	}
	if total < workDay {
		if birthday {
			return "birthday"
		}
		return fmt.Sprintf("%d hours", total)
	}
	if days := entry.Days(); days != 1 {
		return fmt.Sprintf("%d days", days)
	}
	return "1 day"
}

func render(name, text string, data any) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("notify: parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Compose builds the notification for s, with the calendar attachment.
func Compose(p Policy, s Submission, now time.Time) (*Message, error) {
	entry, user := s.Entry, &s.Entry.User
	if p.WorkDay == 0 {
		p.WorkDay = 8
	}

	subjectText := p.Subject
	if subjectText == "" {
		subjectText = DefaultSubject
	}
	if s.IsEdit {
		subjectText = p.SubjectEdit
		if subjectText == "" {
			subjectText = DefaultSubjectEdit
		}
	}
	subject, err := render("subject", subjectText, user)
	if err != nil {
		return nil, err
	}

	signature := p.Signature
	if signature == "" {
		signature = DefaultSignature
	}
	total := 0
	if entry.TotalHours != nil {
		total = *entry.TotalHours
	}
	length := Length(entry, s.Birthday, p.WorkDay)

	var body bytes.Buffer
	err = bodyTemplate.Execute(&body, map[string]any{
		"IsEdit":     s.IsEdit,
		"Name":       user.DisplayName(),
		"TotalHours": total,
		"StartDate":  entry.Start.Format(startDateLayout),
		"Length":     length,
		"Details":    entry.Details,
		"Signature":  signature,
	})
	if err != nil {
		return nil, fmt.Errorf("notify: render body: %w", err)
	}

	cal, err := BuildEvent(Event{
		Summary: fmt.Sprintf("%s on PTO (%s)", user.DisplayName(), length),
		Start:   entry.Start,
		End:     entry.End,
	}, now)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		From:    user.Email,
		To:      Recipients(p, s.ManagerMail, s.Extra),
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body.String()),
		Attachments: []Attachment{
			{Filename: calendarFilename, MIMEType: calendarMIMEType, Data: cal},
		},
	}
	if user.Email != "" {
		msg.Cc = []string{user.Email}
	}
	return msg, nil
}
