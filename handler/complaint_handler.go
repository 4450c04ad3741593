package handler

import (
	"context"
	"net/http"
	"time"

	"grievancedesk/models"
	"grievancedesk/service"

	"go.uber.org/zap"
)

// ComplaintAPI is what the complaint endpoints need from the service layer.
type ComplaintAPI interface {
	ApplyTransition(ctx context.Context, complaintID int64, target models.ComplaintStatus, actor models.Actor) (*models.StatusChange, error)
	AssignComplaint(ctx context.Context, complaintID int64, department models.Department, actor models.Actor) (*models.StatusChange, error)
	TagComplaint(ctx context.Context, complaintID int64, targets []models.Role, note string, actor models.Actor) error
	RecordRemark(ctx context.Context, in service.RemarkInput) (int64, error)
	ListVisibleRemarks(ctx context.Context, complaintID int64, role models.Role) ([]models.Remark, error)
	StatusHistory(ctx context.Context, complaintID int64) ([]models.ComplaintStatusHistory, error)
	AllowedTransitions(ctx context.Context, complaintID int64, role models.Role) (models.ComplaintStatus, []models.ComplaintStatus, error)
	Durations(ctx context.Context, complaintID int64, now time.Time) (*service.DurationReport, error)
}

// ComplaintHandler handles HTTP requests for complaint workflow operations
type ComplaintHandler struct {
	service   ComplaintAPI
	refPrefix string
	now       func() time.Time
	logger    *zap.Logger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(svc ComplaintAPI, refPrefix string, logger *zap.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		service:   svc,
		refPrefix: refPrefix,
		now:       time.Now,
		logger:    logger.Named("handler"),
	}
}

// request is the parsed actor and complaint id common to every endpoint.
func (h *ComplaintHandler) request(w http.ResponseWriter, r *http.Request) (models.Actor, int64, bool) {
	actor, err := actorFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		return models.Actor{}, 0, false
	}
	complaintID, err := complaintIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
		return models.Actor{}, 0, false
	}
	return actor, complaintID, true
}

func (h *ComplaintHandler) ref(id int64) string {
	return models.FormatComplaintRef(h.refPrefix, id)
}

// UpdateStatus handles POST /api/v1/complaints/{ref}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	change, err := h.service.ApplyTransition(r.Context(), complaintID, models.ComplaintStatus(req.Status), actor)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.UpdateStatusResponse{
		ComplaintRef: h.ref(complaintID),
		OldStatus:    string(change.OldStatus),
		NewStatus:    string(change.NewStatus),
		Message:      "Status updated successfully",
	})
}

// Assign handles POST /api/v1/complaints/{ref}/assign
func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	var req models.AssignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	change, err := h.service.AssignComplaint(r.Context(), complaintID, models.Department(req.Department), actor)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.UpdateStatusResponse{
		ComplaintRef: h.ref(complaintID),
		OldStatus:    string(change.OldStatus),
		NewStatus:    string(change.NewStatus),
		Message:      "Complaint assigned to " + req.Department,
	})
}

// Tag handles POST /api/v1/complaints/{ref}/tags
func (h *ComplaintHandler) Tag(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	var req models.TagRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	if err := h.service.TagComplaint(r.Context(), complaintID, toRoles(req.Roles), req.Note, actor); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"complaint_ref": h.ref(complaintID),
		"message":       "Complaint tagged",
	})
}

// CreateRemark handles POST /api/v1/complaints/{ref}/remarks
func (h *ComplaintHandler) CreateRemark(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	var req models.CreateRemarkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	visibility := models.Visibility(req.Visibility)
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	remarkID, err := h.service.RecordRemark(r.Context(), service.RemarkInput{
		ComplaintID: complaintID,
		Author:      actor,
		Visibility:  visibility,
		Notes:       req.Notes,
		TaggedRoles: toRoles(req.TaggedRoles),
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, models.CreateRemarkResponse{
		RemarkID:     remarkID,
		ComplaintRef: h.ref(complaintID),
		Message:      "Remark recorded",
	})
}

// ListRemarks handles GET /api/v1/complaints/{ref}/remarks
func (h *ComplaintHandler) ListRemarks(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	remarks, err := h.service.ListVisibleRemarks(r.Context(), complaintID, actor.Role)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.RemarksResponse{
		ComplaintRef: h.ref(complaintID),
		Remarks:      remarks,
	})
}

// GetHistory handles GET /api/v1/complaints/{ref}/history
func (h *ComplaintHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	_, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	history, err := h.service.StatusHistory(r.Context(), complaintID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	if history == nil {
		history = []models.ComplaintStatusHistory{}
	}
	respondWithJSON(w, http.StatusOK, models.StatusHistoryResponse{
		ComplaintRef: h.ref(complaintID),
		History:      history,
	})
}

// GetTransitions handles GET /api/v1/complaints/{ref}/transitions
func (h *ComplaintHandler) GetTransitions(w http.ResponseWriter, r *http.Request) {
	actor, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	status, next, err := h.service.AllowedTransitions(r.Context(), complaintID, actor.Role)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, string(s))
	}
	respondWithJSON(w, http.StatusOK, models.TransitionsResponse{
		ComplaintRef: h.ref(complaintID),
		Status:       string(status),
		Allowed:      allowed,
	})
}

// GetDurations handles GET /api/v1/complaints/{ref}/durations
func (h *ComplaintHandler) GetDurations(w http.ResponseWriter, r *http.Request) {
	_, complaintID, ok := h.request(w, r)
	if !ok {
		return
	}
	rep, err := h.service.Durations(r.Context(), complaintID, h.now())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.DurationsResponse{
		ComplaintRef: h.ref(complaintID),
		Status:       string(rep.Status),
		From:         rep.From,
		To:           rep.To,
		Business:     rep.Business,
		Precise:      rep.Precise,
	})
}

func toRoles(in []string) []models.Role {
	out := make([]models.Role, 0, len(in))
	for _, s := range in {
		out = append(out, models.Role(s))
	}
	return out
}
