package followup

import (
	"context"
	"sort"
	"time"
)

// Subject is an entity eligible for follow-up, owned by the external directory.
type Subject struct {
	ID            string
	Name          string
	GroupID       string
	GroupName     string
	Adult         bool
	Phone         string
	Email         string
	LastContacted time.Time
}

// Group is a household: the subjects from which one representative is chosen per period.
type Group struct {
	ID      string
	Name    string
	Members []Subject // directory order
}

// Eligible returns the members that may be contacted, in directory order.
func (g Group) Eligible() []Subject {
	out := make([]Subject, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Adult {
			out = append(out, m)
		}
	}
	return out
}

// Directory is the external source of subjects.
type Directory interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
}

// GroupSubjects clusters subjects by GroupID and returns the groups sorted by id.
// Subjects without a group id are ignored, as they cannot be planned.
func GroupSubjects(subjects []Subject) []Group {
	byID := make(map[string]*Group)
	order := make([]string, 0)
	for _, s := range subjects {
		if s.GroupID == "" {
			continue
		}
		g, ok := byID[s.GroupID]
		if !ok {
			g = &Group{ID: s.GroupID, Name: s.GroupName}
			byID[s.GroupID] = g
			order = append(order, s.GroupID)
		}
		if g.Name == "" {
			g.Name = s.GroupName
		}
		g.Members = append(g.Members, s)
	}
	sort.Strings(order)
	groups := make([]Group, 0, len(order))
	for _, id := range order {
		groups = append(groups, *byID[id])
	}
	return groups
}
