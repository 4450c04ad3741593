package models

import "time"

// UpdateStatusRequest is the body of POST /complaints/{ref}/status
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatusResponse reports a completed transition
type UpdateStatusResponse struct {
	ComplaintRef string `json:"complaint_ref"`
	OldStatus    string `json:"old_status"`
	NewStatus    string `json:"new_status"`
	Message      string `json:"message"`
}

// AssignRequest is the body of POST /complaints/{ref}/assign
type AssignRequest struct {
	Department string `json:"department"`
}

// TagRequest is the body of POST /complaints/{ref}/tags
type TagRequest struct {
	Roles []string `json:"roles"`
	Note  string   `json:"note,omitempty"`
}

// CreateRemarkRequest is the body of POST /complaints/{ref}/remarks
type CreateRemarkRequest struct {
	Visibility  string   `json:"visibility"`
	Notes       string   `json:"notes"`
	TaggedRoles []string `json:"tagged_roles,omitempty"`
}

// CreateRemarkResponse returns the new remark id
type CreateRemarkResponse struct {
	RemarkID     int64  `json:"remark_id"`
	ComplaintRef string `json:"complaint_ref"`
	Message      string `json:"message"`
}

// DurationsResponse reports how long a complaint has been open
type DurationsResponse struct {
	ComplaintRef string    `json:"complaint_ref"`
	Status       string    `json:"status"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	Business     string    `json:"business"`
	Precise      string    `json:"precise"`
}

// UnreadResponse exposes the unread flag as a 0/1 count
type UnreadResponse struct {
	UnreadCount int `json:"unread_count"`
}

// RoleInfo is a UI-facing entry of the role catalog
type RoleInfo struct {
	Role     string `json:"role"`
	Label    string `json:"label"`
	Internal bool   `json:"internal"`
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// RemarksResponse lists the remarks visible to the caller, newest first
type RemarksResponse struct {
	ComplaintRef string   `json:"complaint_ref"`
	Remarks      []Remark `json:"remarks"`
}

// StatusHistoryResponse is the complaint's status timeline, newest first
type StatusHistoryResponse struct {
	ComplaintRef string                   `json:"complaint_ref"`
	History      []ComplaintStatusHistory `json:"history"`
}

// TransitionsResponse lists the statuses the caller may move a complaint to
type TransitionsResponse struct {
	ComplaintRef string   `json:"complaint_ref"`
	Status       string   `json:"status"`
	Allowed      []string `json:"allowed"`
}

// NotificationsResponse is the caller's notification stream, newest first
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadOnly    bool           `json:"unread_only"`
}
