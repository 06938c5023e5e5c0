package ledger

import (
	"slices"
	"strings"

	"pto/models"
)

// OrgIndex is a flat manager → direct reports lookup built from profiles.
type OrgIndex struct {
	reports map[string][]models.User
}

func managerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewOrgIndex indexes profiles by manager email. Profiles without a
// manager or without a loaded User are skipped.
func NewOrgIndex(profiles []models.UserProfile) *OrgIndex {
	type report struct {
		key  string
		user models.User
	}
	var all []report
	for _, p := range profiles {
		key := managerKey(p.Manager)
		if key == "" || p.User == nil {
			continue
		}
		all = append(all, report{key: key, user: *p.User})
	}

	slices.SortStableFunc(all, func(a, b report) int {
		if c := strings.Compare(a.key, b.key); c != 0 {
			return c
		}
		switch {
		case a.user.ID < b.user.ID:
			return -1
		case a.user.ID > b.user.ID:
			return 1
		}
		return 0
	})

	idx := &OrgIndex{reports: make(map[string][]models.User)}
	for _, r := range all {
		idx.reports[r.key] = append(idx.reports[r.key], r.user)
	}
	return idx
}

// DirectReports returns the users whose manager is email.
func (idx *OrgIndex) DirectReports(email string) []models.User {
	return idx.reports[managerKey(email)]
}

// Minions lists everyone below root, at most maxDepth levels down, in
// depth-first order: each report is followed by its own reports before the
// next sibling.
func (idx *OrgIndex) Minions(root *models.User, maxDepth int) []models.User {
	if root == nil || maxDepth < 1 {
		return nil
	}

	type frame struct {
		user  models.User
		depth int
	}

	var stack []frame
	push := func(manager string, depth int) {
		reports := idx.DirectReports(manager)
		for i := len(reports) - 1; i >= 0; i-- {
			stack = append(stack, frame{user: reports[i], depth: depth})
		}
	}

	var out []models.User
	push(root.Email, 1)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, top.user)
		if top.depth < maxDepth && top.user.Email != "" {
			push(top.user.Email, top.depth+1)
		}
	}
	return out
}
