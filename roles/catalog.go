// Package roles holds the role catalog: UI labels, role groups and role
// equivalence. A Catalog is immutable once built and is shared by pointer
// between the state machine, the notification router and the services.
package roles

import (
	"fmt"

	"grievancedesk/models"

	"github.com/ilyakaznacheev/cleanenv"
)

// Group is a coarse classification used for transition authority and
// visibility decisions.
type Group string

const (
	GroupIntake    Group = "intake"
	GroupExecution Group = "execution"
	GroupOversight Group = "oversight"
)

// Definition describes one role. A role with BaseRole set is an advanced
// variant: it inherits the base role's groups and reads its notification
// stream.
type Definition struct {
	Role     models.Role `yaml:"role"`
	Label    string      `yaml:"label"`
	Groups   []Group     `yaml:"groups"`
	BaseRole models.Role `yaml:"base_role"`
}

// Catalog is the read-only role table.
type Catalog struct {
	order    []models.Role
	defs     map[models.Role]Definition
	variants map[models.Role][]models.Role
}

// DefaultDefinitions returns the built-in role table.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Role: models.RoleCitizen, Label: "Citizen"},
		{Role: models.RoleCollectorTeam, Label: "Collector Team", Groups: []Group{GroupIntake}},
		{Role: models.RoleCollectorTeamAdvanced, Label: "Collector Team (Advanced)", BaseRole: models.RoleCollectorTeam},
		{Role: models.RoleDistrictCollector, Label: "District Collector", Groups: []Group{GroupIntake, GroupOversight}},
		{Role: models.RoleDepartmentTeam, Label: "Department Team", Groups: []Group{GroupExecution}},
		{Role: models.RoleAdmin, Label: "Administrator", Groups: []Group{GroupOversight}},
	}
}

// Default builds the catalog from DefaultDefinitions.
func Default() *Catalog {
	c, err := NewCatalog(DefaultDefinitions())
	if err != nil {
		panic(fmt.Sprintf("roles: default catalog is invalid: %v", err))
	}
	return c
}

type catalogFile struct {
	Roles []Definition `yaml:"roles"`
}

// Load reads role definitions from a YAML file. An empty path yields the
// default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	var f catalogFile
	if err := cleanenv.ReadConfig(path, &f); err != nil {
		return nil, fmt.Errorf("roles: read %s: %w", path, err)
	}
	return NewCatalog(f.Roles)
}

// NewCatalog validates defs and builds a catalog. Variants may only point at
// a base role that is itself not a variant.
func NewCatalog(defs []Definition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("roles: catalog is empty")
	}
	c := &Catalog{
		defs:     make(map[models.Role]Definition, len(defs)),
		variants: make(map[models.Role][]models.Role),
	}
	for _, d := range defs {
		if d.Role == "" {
			return nil, fmt.Errorf("roles: definition without role id")
		}
		if _, dup := c.defs[d.Role]; dup {
			return nil, fmt.Errorf("roles: duplicate role %s", d.Role)
		}
		if d.Label == "" {
			d.Label = string(d.Role)
		}
		for _, g := range d.Groups {
			switch g {
			case GroupIntake, GroupExecution, GroupOversight:
			default:
				return nil, fmt.Errorf("roles: role %s has unknown group %q", d.Role, g)
			}
		}
		c.defs[d.Role] = d
		c.order = append(c.order, d.Role)
	}
	for _, r := range c.order {
		d := c.defs[r]
		if d.BaseRole == "" {
			continue
		}
		base, ok := c.defs[d.BaseRole]
		if !ok {
			return nil, fmt.Errorf("roles: role %s has unknown base role %s", r, d.BaseRole)
		}
		if base.BaseRole != "" || d.BaseRole == r {
			return nil, fmt.Errorf("roles: role %s must point at a base role, got %s", r, d.BaseRole)
		}
		c.variants[d.BaseRole] = append(c.variants[d.BaseRole], r)
	}
	return c, nil
}

// Roles returns every role in definition order.
func (c *Catalog) Roles() []models.Role {
	out := make([]models.Role, len(c.order))
	copy(out, c.order)
	return out
}

// Known reports whether r is defined.
func (c *Catalog) Known(r models.Role) bool {
	_, ok := c.defs[r]
	return ok
}

// Label returns the UI label, or the raw id for unknown roles.
func (c *Catalog) Label(r models.Role) string {
	if d, ok := c.defs[r]; ok {
		return d.Label
	}
	return string(r)
}

// Base returns the base role of an advanced variant, or r itself.
func (c *Catalog) Base(r models.Role) models.Role {
	if d, ok := c.defs[r]; ok && d.BaseRole != "" {
		return d.BaseRole
	}
	return r
}

// Variants returns the advanced variants declared for a base role.
func (c *Catalog) Variants(r models.Role) []models.Role {
	v := c.variants[r]
	out := make([]models.Role, len(v))
	copy(out, v)
	return out
}

// InGroup reports whether r, or the base role it inherits from, is in g.
func (c *Catalog) InGroup(r models.Role, g Group) bool {
	for _, candidate := range []models.Role{r, c.Base(r)} {
		d, ok := c.defs[candidate]
		if !ok {
			continue
		}
		for _, have := range d.Groups {
			if have == g {
				return true
			}
		}
	}
	return false
}

// IsInternal reports whether r belongs to any staff group.
func (c *Catalog) IsInternal(r models.Role) bool {
	return c.InGroup(r, GroupIntake) || c.InGroup(r, GroupExecution) || c.InGroup(r, GroupOversight)
}

// StreamRoles lists the notification target roles a reader with role r
// sees: its own and, for a variant, the base role's.
func (c *Catalog) StreamRoles(r models.Role) []models.Role {
	base := c.Base(r)
	if base == r {
		return []models.Role{r}
	}
	return []models.Role{r, base}
}

// RecipientRoles expands targets with every variant reading their streams.
// Order is stable and duplicates are removed.
func (c *Catalog) RecipientRoles(targets []models.Role) []models.Role {
	seen := make(map[models.Role]bool, len(targets))
	var out []models.Role
	add := func(r models.Role) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, t := range targets {
		add(t)
		for _, v := range c.variants[t] {
			add(v)
		}
	}
	return out
}

// Infos returns the UI-facing catalog.
func (c *Catalog) Infos() []models.RoleInfo {
	out := make([]models.RoleInfo, 0, len(c.order))
	for _, r := range c.order {
		out = append(out, models.RoleInfo{
			Role:     string(r),
			Label:    c.defs[r].Label,
			Internal: c.IsInternal(r),
		})
	}
	return out
}
