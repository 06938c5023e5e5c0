package directory

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

var ldapAttributes = []string{"cn", "givenName", "sn", "mail"}

// LDAP looks people up with one search per call on a fresh connection.
type LDAP struct {
	URL          string
	BindDN       string
	BindPassword string
	BaseDN       string
	Timeout      time.Duration
}

func mailFilter(email string) string {
	return "(mail=" + ldap.EscapeFilter(email) + ")"
}

func (l *LDAP) Lookup(ctx context.Context, email string) (*Record, error) {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	conn, err := ldap.DialURL(l.URL, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("directory: dial %s: %w", l.URL, err)
	}
	defer conn.Close()
	conn.SetTimeout(timeout)

	if l.BindDN != "" {
		if err := conn.Bind(l.BindDN, l.BindPassword); err != nil {
			return nil, fmt.Errorf("directory: bind: %w", err)
		}
	}

	req := ldap.NewSearchRequest(
		l.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, int(timeout.Seconds()), false,
		mailFilter(email),
		ldapAttributes,
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, nil
		}
		return nil, fmt.Errorf("directory: search %s: %w", email, err)
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}

	e := res.Entries[0]
	return &Record{
		CommonName: e.GetAttributeValue("cn"),
		GivenName:  e.GetAttributeValue("givenName"),
		Surname:    e.GetAttributeValue("sn"),
		Mail:       e.GetAttributeValue("mail"),
	}, nil
}
