package models

import (
	"database/sql"
	"time"
)

// ComplaintStatus represents the possible statuses of a complaint
type ComplaintStatus string

const (
	StatusOpen        ComplaintStatus = "Open"
	StatusAssigned    ComplaintStatus = "Assigned"
	StatusInProgress  ComplaintStatus = "In Progress"
	StatusResolved    ComplaintStatus = "Resolved"
	StatusBacklog     ComplaintStatus = "Backlog"
	StatusNeedDetails ComplaintStatus = "Need Details"
	StatusInvalid     ComplaintStatus = "Invalid"
)

// AllStatuses lists every status in workflow order.
func AllStatuses() []ComplaintStatus {
	return []ComplaintStatus{
		StatusOpen,
		StatusAssigned,
		StatusInProgress,
		StatusResolved,
		StatusBacklog,
		StatusNeedDetails,
		StatusInvalid,
	}
}

// IsValid reports whether s is one of the seven defined statuses.
func (s ComplaintStatus) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further work is routed for the status.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusInvalid
}

// Priority represents complaint priority levels
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityNormal Priority = "Normal"
)

// Department is one of the fixed departments a complaint can be assigned to.
type Department string

const (
	DepartmentRevenue       Department = "Revenue"
	DepartmentPublicWorks   Department = "Public Works"
	DepartmentHealth        Department = "Health"
	DepartmentEducation     Department = "Education"
	DepartmentWaterSupply   Department = "Water Supply"
	DepartmentElectricity   Department = "Electricity"
	DepartmentPolice        Department = "Police"
	DepartmentMunicipal     Department = "Municipal Corporation"
	DepartmentAgriculture   Department = "Agriculture"
	DepartmentSocialWelfare Department = "Social Welfare"
)

// AllDepartments returns the department catalog.
func AllDepartments() []Department {
	return []Department{
		DepartmentRevenue,
		DepartmentPublicWorks,
		DepartmentHealth,
		DepartmentEducation,
		DepartmentWaterSupply,
		DepartmentElectricity,
		DepartmentPolice,
		DepartmentMunicipal,
		DepartmentAgriculture,
		DepartmentSocialWelfare,
	}
}

// IsValid reports whether d is in the department catalog.
func (d Department) IsValid() bool {
	for _, known := range AllDepartments() {
		if d == known {
			return true
		}
	}
	return false
}

// Role is an internal role identifier stored on user accounts and notifications.
type Role string

const (
	RoleCitizen               Role = "CITIZEN"
	RoleCollectorTeam         Role = "COLLECTOR_TEAM"
	RoleCollectorTeamAdvanced Role = "COLLECTOR_TEAM_ADVANCED"
	RoleDistrictCollector     Role = "DISTRICT_COLLECTOR"
	RoleDepartmentTeam        Role = "DEPARTMENT_TEAM"
	RoleAdmin                 Role = "ADMIN"
)

// Visibility controls who can read a remark
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityInternal Visibility = "internal"
)

// IsValid reports whether v is public or internal.
func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityInternal
}

// Complaint represents a complaint entity
type Complaint struct {
	ComplaintID int64           `db:"complaint_id" json:"complaint_id"`
	Status      ComplaintStatus `db:"status" json:"status"`
	Priority    Priority        `db:"priority" json:"priority"`
	Department  sql.NullString  `db:"department" json:"department"`
	Category    sql.NullString  `db:"category" json:"category"`
	Subcategory sql.NullString  `db:"subcategory" json:"subcategory"`
	Location    sql.NullString  `db:"location" json:"location"`
	// Comma separated complaint ids, e.g. "12,40"
	LinkedComplaintIDs sql.NullString `db:"linked_complaint_ids" json:"linked_complaint_ids"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// ComplaintStatusHistory represents a status change record (immutable)
type ComplaintStatusHistory struct {
	HistoryID   int64           `db:"history_id" json:"history_id"`
	ComplaintID int64           `db:"complaint_id" json:"complaint_id"`
	OldStatus   ComplaintStatus `db:"old_status" json:"old_status"`
	NewStatus   ComplaintStatus `db:"new_status" json:"new_status"`
	ActorUserID int64           `db:"actor_user_id" json:"actor_user_id"`
	ActorRole   Role            `db:"actor_role" json:"actor_role"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Remark is a note left on a complaint. Author role is captured at creation
// and never re-derived.
type Remark struct {
	RemarkID     int64      `db:"remark_id" json:"remark_id"`
	ComplaintID  int64      `db:"complaint_id" json:"complaint_id"`
	AuthorUserID int64      `db:"author_user_id" json:"author_user_id"`
	AuthorRole   Role       `db:"author_role" json:"author_role"`
	Visibility   Visibility `db:"visibility" json:"visibility"`
	Notes        string     `db:"notes" json:"notes"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// User is the account view this service needs: identity, role and the
// single unread flag.
type User struct {
	UserID           int64 `db:"user_id" json:"user_id"`
	Role             Role  `db:"role" json:"role"`
	HasNotifications bool  `db:"has_notifications" json:"has_notifications"`
}

// Actor identifies who performs an operation. It is always passed
// explicitly; nothing below the HTTP layer reads it from a request.
type Actor struct {
	UserID int64
	Role   Role
}

// StatusChange is the outcome of a successful transition.
type StatusChange struct {
	ComplaintID int64           `json:"complaint_id"`
	OldStatus   ComplaintStatus `json:"old_status"`
	NewStatus   ComplaintStatus `json:"new_status"`
	Actor       Actor           `json:"-"`
	ChangedAt   time.Time       `json:"changed_at"`
}
