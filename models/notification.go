package models

import "time"

// NotificationType represents the kind of event a notification was created for
type NotificationType string

const (
	NotificationRemark       NotificationType = "REMARK"
	NotificationStatusChange NotificationType = "STATUS_CHANGE"
	NotificationTag          NotificationType = "TAG"
	NotificationAssignment   NotificationType = "ASSIGNMENT"
)

// IsValid reports whether t is one of the four recognised event kinds.
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationRemark, NotificationStatusChange, NotificationTag, NotificationAssignment:
		return true
	}
	return false
}

// Notification is addressed to a role, not a user: every account holding the
// target role (or a role reading its stream) sees the same record. There is
// no per-record read state; see User.HasNotifications.
type Notification struct {
	NotificationID int64            `db:"notification_id" json:"notification_id"`
	TargetRole     Role             `db:"target_role" json:"target_role"`
	Type           NotificationType `db:"type" json:"type"`
	Title          string           `db:"title" json:"title"`
	Message        string           `db:"message" json:"message"`
	ComplaintID    int64            `db:"complaint_id" json:"complaint_id"`
	FromUserID     int64            `db:"from_user_id" json:"from_user_id"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// NotificationPageSize caps every notification listing.
const NotificationPageSize = 100
