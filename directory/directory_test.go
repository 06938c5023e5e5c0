package directory

import (
	"context"
	"testing"
)

func TestStaticLookup(t *testing.T) {
	dir := NewStatic(Record{CommonName: "Mr Manager", Mail: "Boss@Example.com"})

	got, err := dir.Lookup(context.Background(), " boss@example.com ")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got == nil || got.Mail != "Boss@Example.com" {
		t.Fatalf("Lookup() = %+v, want the boss record", got)
	}

	miss, err := dir.Lookup(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Lookup() miss error = %v", err)
	}
	if miss != nil {
		t.Fatalf("Lookup() miss = %+v, want nil", miss)
	}
}

func TestRecordName(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{CommonName: "Peter Bengtsson", GivenName: "Peter", Mail: "p@example.com"}, "Peter Bengtsson"},
		{Record{GivenName: "Peter", Surname: "B", Mail: "p@example.com"}, "Peter B"},
		{Record{Mail: "p@example.com"}, "p@example.com"},
	}
	for _, tt := range tests {
		if got := tt.rec.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestMailFilterEscapes(t *testing.T) {
	if got, want := mailFilter("a*b@example.com"), `(mail=a\2ab@example.com)`; got != want {
		t.Errorf("mailFilter() = %q, want %q", got, want)
	}
}

func TestLDAPLookupBadURL(t *testing.T) {
	l := &LDAP{URL: "bogus://nowhere"}
	if _, err := l.Lookup(context.Background(), "a@example.com"); err == nil {
		t.Fatal("Lookup() with bad URL: expected error")
	}
}
