// Package lifecycle is the complaint status state machine. It knows which
// status edges exist and which role group may walk each edge.
package lifecycle

import (
	"fmt"
	"time"

	"grievancedesk/models"
	"grievancedesk/roles"
)

// Rule is one legal edge and the role group allowed to perform it.
type Rule struct {
	From  models.ComplaintStatus
	To    models.ComplaintStatus
	Group roles.Group
}

// DefaultRules is the standard workflow table.
func DefaultRules() []Rule {
	return []Rule{
		{From: models.StatusOpen, To: models.StatusAssigned, Group: roles.GroupIntake},
		{From: models.StatusOpen, To: models.StatusNeedDetails, Group: roles.GroupIntake},
		{From: models.StatusOpen, To: models.StatusInvalid, Group: roles.GroupIntake},
		{From: models.StatusAssigned, To: models.StatusInProgress, Group: roles.GroupExecution},
		{From: models.StatusInProgress, To: models.StatusResolved, Group: roles.GroupExecution},
		{From: models.StatusAssigned, To: models.StatusBacklog, Group: roles.GroupExecution},
		{From: models.StatusBacklog, To: models.StatusInProgress, Group: roles.GroupExecution},
	}
}

type edge struct {
	from, to models.ComplaintStatus
}

// Machine validates transitions. It is immutable and safe for concurrent use.
type Machine struct {
	catalog *roles.Catalog
	rules   []Rule
	edges   map[edge]roles.Group
}

// NewMachine builds a machine from rules. Every status must be one of the
// seven defined statuses and self loops are rejected.
func NewMachine(catalog *roles.Catalog, rules []Rule) (*Machine, error) {
	m := &Machine{
		catalog: catalog,
		edges:   make(map[edge]roles.Group, len(rules)),
	}
	for _, r := range rules {
		if !r.From.IsValid() || !r.To.IsValid() {
			return nil, fmt.Errorf("lifecycle: rule %q -> %q uses an unknown status", r.From, r.To)
		}
		if r.From == r.To {
			return nil, fmt.Errorf("lifecycle: self loop on %q", r.From)
		}
		e := edge{r.From, r.To}
		if _, dup := m.edges[e]; dup {
			return nil, fmt.Errorf("lifecycle: duplicate rule %q -> %q", r.From, r.To)
		}
		m.edges[e] = r.Group
		m.rules = append(m.rules, r)
	}
	return m, nil
}

// NewDefaultMachine builds a machine with DefaultRules.
func NewDefaultMachine(catalog *roles.Catalog) *Machine {
	m, err := NewMachine(catalog, DefaultRules())
	if err != nil {
		panic(err)
	}
	return m
}

// Transition checks whether role may move a complaint from current to
// target. A missing edge is ErrInvalidTransition whatever the role; an edge
// the role's group does not own is ErrForbidden.
func (m *Machine) Transition(current, target models.ComplaintStatus, role models.Role) (models.ComplaintStatus, error) {
	group, ok := m.edges[edge{current, target}]
	if !ok {
		return current, fmt.Errorf("%w: %q -> %q", models.ErrInvalidTransition, current, target)
	}
	if !m.catalog.InGroup(role, group) {
		return current, fmt.Errorf("%w: role %s may not move %q -> %q", models.ErrForbidden, role, current, target)
	}
	return target, nil
}

// Apply validates the transition for complaint c and returns the event
// payload. c is not modified.
func (m *Machine) Apply(c models.Complaint, target models.ComplaintStatus, actor models.Actor, at time.Time) (models.StatusChange, error) {
	next, err := m.Transition(c.Status, target, actor.Role)
	if err != nil {
		return models.StatusChange{}, err
	}
	return models.StatusChange{
		ComplaintID: c.ComplaintID,
		OldStatus:   c.Status,
		NewStatus:   next,
		Actor:       actor,
		ChangedAt:   at,
	}, nil
}

// Allowed lists the statuses role may move a complaint in current to, in
// rule order.
func (m *Machine) Allowed(current models.ComplaintStatus, role models.Role) []models.ComplaintStatus {
	var out []models.ComplaintStatus
	for _, r := range m.rules {
		if r.From == current && m.catalog.InGroup(role, r.Group) {
			out = append(out, r.To)
		}
	}
	return out
}

// Rules returns a copy of the rule table.
func (m *Machine) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}
