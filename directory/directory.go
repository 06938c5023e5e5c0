package directory

import (
	"context"
	"strings"
)

// Record is what the directory knows about a person.
type Record struct {
	CommonName string `json:"cn"`
	GivenName  string `json:"given_name"`
	Surname    string `json:"sn"`
	Mail       string `json:"mail"`
}

// Name is the best human readable name of the record.
func (r *Record) Name() string {
	if r.CommonName != "" {
		return r.CommonName
	}
	if name := strings.TrimSpace(r.GivenName + " " + r.Surname); name != "" {
		return name
	}
	return r.Mail
}

// Directory looks people up by email address. A miss is (nil, nil).
type Directory interface {
	Lookup(ctx context.Context, email string) (*Record, error)
}

// Static is a fixed directory keyed by lower cased email.
type Static map[string]Record

func NewStatic(records ...Record) Static {
	s := make(Static, len(records))
	for _, r := range records {
		s[strings.ToLower(r.Mail)] = r
	}
	return s
}

func (s Static) Lookup(_ context.Context, email string) (*Record, error) {
	r, ok := s[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &r, nil
}
