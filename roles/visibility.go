package roles

import "grievancedesk/models"

// CanSeeInternal reports whether a requester with role r may read internal
// remarks.
func (c *Catalog) CanSeeInternal(r models.Role) bool {
	return c.IsInternal(r)
}

// VisibleRemarks returns the remarks a requester with role r may read, in
// the order given. Nothing is cached: call it on every read.
func (c *Catalog) VisibleRemarks(r models.Role, remarks []models.Remark) []models.Remark {
	out := make([]models.Remark, 0, len(remarks))
	internal := c.CanSeeInternal(r)
	for _, rm := range remarks {
		if internal || rm.Visibility == models.VisibilityPublic {
			out = append(out, rm)
		}
	}
	return out
}
