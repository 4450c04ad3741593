// Package notification turns complaint events into per-role notification
// records. The router is pure: it never touches storage or the clock.
package notification

import (
	"fmt"
	"time"
	"unicode/utf8"

	"grievancedesk/models"
	"grievancedesk/roles"
)

// MaxPreviewRunes caps the remark text copied into a notification message.
const MaxPreviewRunes = 140

// Event is a domain event to route. Which fields matter depends on Type:
// Status is the complaint's current status for REMARK and the new status for
// STATUS_CHANGE.
type Event struct {
	Type        models.NotificationType
	ComplaintID int64
	Status      models.ComplaintStatus
	OldStatus   models.ComplaintStatus
	Actor       models.Actor
	Visibility  models.Visibility
	Notes       string
	Targets     []models.Role
	Department  models.Department
	At          time.Time
}

// Result is the routing outcome: one notification per target role plus the
// roles whose users must have their unread flag raised.
type Result struct {
	Targets       []models.Role
	Recipients    []models.Role
	Notifications []models.Notification
}

// Router resolves target roles and builds notification records.
type Router struct {
	catalog   *roles.Catalog
	refPrefix string
}

// NewRouter returns a router rendering complaint references with refPrefix.
func NewRouter(catalog *roles.Catalog, refPrefix string) *Router {
	return &Router{catalog: catalog, refPrefix: refPrefix}
}

// Route resolves targets for ev and builds its notifications.
func (r *Router) Route(ev Event) (*Result, error) {
	targets, err := r.Targets(ev)
	if err != nil {
		return nil, err
	}
	title, message := r.render(ev)
	res := &Result{
		Targets:    targets,
		Recipients: r.catalog.RecipientRoles(targets),
	}
	for _, t := range targets {
		res.Notifications = append(res.Notifications, models.Notification{
			TargetRole:  t,
			Type:        ev.Type,
			Title:       title,
			Message:     message,
			ComplaintID: ev.ComplaintID,
			FromUserID:  ev.Actor.UserID,
			CreatedAt:   ev.At,
		})
	}
	return res, nil
}

// Targets returns the resolved target roles for ev. Explicit targets win
// and may name the actor's own role. Derived targets never include the
// actor's own stream. Internal remarks never reach non-internal roles.
func (r *Router) Targets(ev Event) ([]models.Role, error) {
	if !ev.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownEventType, ev.Type)
	}

	candidates := ev.Targets
	if len(candidates) == 0 {
		candidates = r.derive(ev)
	}

	seen := make(map[models.Role]bool, len(candidates))
	var out []models.Role
	for _, role := range candidates {
		if seen[role] || !r.catalog.Known(role) {
			continue
		}
		seen[role] = true
		if ev.Type == models.NotificationRemark && ev.Visibility == models.VisibilityInternal && !r.catalog.IsInternal(role) {
			continue
		}
		out = append(out, role)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s on complaint %d", models.ErrEmptyTargetSet, ev.Type, ev.ComplaintID)
	}
	return out, nil
}

func (r *Router) derive(ev Event) []models.Role {
	var derived []models.Role
	switch ev.Type {
	case models.NotificationRemark:
		owner, ok := StageOwner(ev.Status)
		if !ok {
			return nil
		}
		if r.catalog.Base(ev.Actor.Role) == owner {
			derived = []models.Role{otherStageOwner(owner)}
		} else {
			derived = []models.Role{owner}
		}
	case models.NotificationStatusChange:
		derived = statusChangeTargets(ev.Status)
	default:
		// TAG and ASSIGNMENT only ever go to explicit targets.
		return nil
	}

	own := r.catalog.StreamRoles(ev.Actor.Role)
	var out []models.Role
	for _, role := range derived {
		if !contains(own, role) {
			out = append(out, role)
		}
	}
	return out
}

// StageOwner returns the team owning a complaint in status s: the collector
// team during intake, the department team during execution.
func StageOwner(s models.ComplaintStatus) (models.Role, bool) {
	switch s {
	case models.StatusOpen, models.StatusNeedDetails, models.StatusInvalid:
		return models.RoleCollectorTeam, true
	case models.StatusAssigned, models.StatusInProgress, models.StatusBacklog, models.StatusResolved:
		return models.RoleDepartmentTeam, true
	}
	return "", false
}

func otherStageOwner(owner models.Role) models.Role {
	if owner == models.RoleCollectorTeam {
		return models.RoleDepartmentTeam
	}
	return models.RoleCollectorTeam
}

func statusChangeTargets(next models.ComplaintStatus) []models.Role {
	switch next {
	case models.StatusAssigned:
		return []models.Role{models.RoleDepartmentTeam}
	case models.StatusInProgress, models.StatusBacklog, models.StatusResolved:
		return []models.Role{models.RoleCollectorTeam}
	}
	return nil
}

func (r *Router) render(ev Event) (title, message string) {
	ref := models.FormatComplaintRef(r.refPrefix, ev.ComplaintID)
	actor := r.catalog.Label(ev.Actor.Role)
	switch ev.Type {
	case models.NotificationRemark:
		return "New remark on " + ref, fmt.Sprintf("%s added a remark: %s", actor, Preview(ev.Notes))
	case models.NotificationStatusChange:
		return fmt.Sprintf("%s moved to %s", ref, ev.Status),
			fmt.Sprintf("%s changed the status from %s to %s", actor, ev.OldStatus, ev.Status)
	case models.NotificationTag:
		if ev.Notes != "" {
			return ref + " tagged for your attention", fmt.Sprintf("%s: %s", actor, Preview(ev.Notes))
		}
		return ref + " tagged for your attention", fmt.Sprintf("%s tagged your team on %s", actor, ref)
	case models.NotificationAssignment:
		return fmt.Sprintf("%s assigned to %s", ref, ev.Department),
			fmt.Sprintf("%s assigned %s to %s", actor, ref, ev.Department)
	}
	return ref, ""
}

// Preview trims s to MaxPreviewRunes runes, marking the cut with "...".
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= MaxPreviewRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:MaxPreviewRunes]) + "..."
}

func contains(list []models.Role, r models.Role) bool {
	for _, x := range list {
		if x == r {
			return true
		}
	}
	return false
}
