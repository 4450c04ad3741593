package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grievancedesk/lifecycle"
	"grievancedesk/metrics"
	"grievancedesk/models"
	"grievancedesk/notification"
	"grievancedesk/repository"
	"grievancedesk/roles"
	"grievancedesk/sla"

	"go.uber.org/zap"
)

// ComplaintStore is the complaint persistence the service needs.
type ComplaintStore interface {
	GetComplaintByID(ctx context.Context, complaintID int64) (*models.Complaint, error)
	MutateStatus(ctx context.Context, complaintID int64, decide func(models.Complaint) (repository.StatusMutation, error)) (repository.StatusMutation, error)
	GetStatusHistory(ctx context.Context, complaintID int64) ([]models.ComplaintStatusHistory, error)
}

// RemarkStore is the remark persistence the service needs.
type RemarkStore interface {
	CreateRemark(ctx context.Context, remark *models.Remark) error
	ListByComplaint(ctx context.Context, complaintID int64) ([]models.Remark, error)
}

// Dispatcher turns an event into stored notifications.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev notification.Event) error
}

// RemarkInput is a new remark as submitted by its author.
type RemarkInput struct {
	ComplaintID int64
	Author      models.Actor
	Visibility  models.Visibility
	Notes       string
	TaggedRoles []models.Role
}

// DurationReport is how long a complaint has been open.
type DurationReport struct {
	ComplaintID int64
	Status      models.ComplaintStatus
	From        time.Time
	To          time.Time
	Business    string
	Precise     string
}

// ComplaintService is the entry point for complaint mutations. Primary
// writes are the source of truth; notification failures are logged and
// never undo them.
type ComplaintService struct {
	complaints ComplaintStore
	remarks    RemarkStore
	dispatcher Dispatcher
	machine    *lifecycle.Machine
	catalog    *roles.Catalog
	calc       *sla.Calculator
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewComplaintService creates a new complaint service
func NewComplaintService(
	complaints ComplaintStore,
	remarks RemarkStore,
	dispatcher Dispatcher,
	machine *lifecycle.Machine,
	catalog *roles.Catalog,
	calc *sla.Calculator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		remarks:    remarks,
		dispatcher: dispatcher,
		machine:    machine,
		catalog:    catalog,
		calc:       calc,
		metrics:    m,
		logger:     logger.Named("complaint"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ApplyTransition moves a complaint to target. Validation runs against the
// row as locked inside the write transaction.
func (s *ComplaintService) ApplyTransition(ctx context.Context, complaintID int64, target models.ComplaintStatus, actor models.Actor) (*models.StatusChange, error) {
	m, err := s.mutate(ctx, complaintID, func(c models.Complaint) (repository.StatusMutation, error) {
		change, err := s.machine.Apply(c, target, actor, s.now())
		if err != nil {
			return repository.StatusMutation{}, err
		}
		return repository.StatusMutation{Change: change}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Event{
		Type:        models.NotificationStatusChange,
		ComplaintID: complaintID,
		Status:      m.Change.NewStatus,
		OldStatus:   m.Change.OldStatus,
		Actor:       actor,
		At:          m.Change.ChangedAt,
	})
	return &m.Change, nil
}

// AssignComplaint moves an open complaint to Assigned and records the
// department. The department team is told through an ASSIGNMENT event.
func (s *ComplaintService) AssignComplaint(ctx context.Context, complaintID int64, department models.Department, actor models.Actor) (*models.StatusChange, error) {
	if !department.IsValid() {
		return nil, fmt.Errorf("%w: unknown department %q", models.ErrValidation, department)
	}

	m, err := s.mutate(ctx, complaintID, func(c models.Complaint) (repository.StatusMutation, error) {
		change, err := s.machine.Apply(c, models.StatusAssigned, actor, s.now())
		if err != nil {
			return repository.StatusMutation{}, err
		}
		return repository.StatusMutation{Change: change, Department: department}, nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Event{
		Type:        models.NotificationAssignment,
		ComplaintID: complaintID,
		Status:      m.Change.NewStatus,
		OldStatus:   m.Change.OldStatus,
		Actor:       actor,
		Targets:     []models.Role{models.RoleDepartmentTeam},
		Department:  department,
		At:          m.Change.ChangedAt,
	})
	return &m.Change, nil
}

func (s *ComplaintService) mutate(ctx context.Context, complaintID int64, decide func(models.Complaint) (repository.StatusMutation, error)) (repository.StatusMutation, error) {
	m, err := s.complaints.MutateStatus(ctx, complaintID, decide)
	if err != nil {
		s.metrics.IncrementTransition(transitionOutcome(err))
		return repository.StatusMutation{}, err
	}
	s.metrics.IncrementTransition("applied")
	s.logger.Info("status changed",
		zap.Int64("complaint_id", complaintID),
		zap.String("from", string(m.Change.OldStatus)),
		zap.String("to", string(m.Change.NewStatus)),
		zap.Int64("actor_user_id", m.Change.Actor.UserID),
		zap.String("actor_role", string(m.Change.Actor.Role)),
	)
	return m, nil
}

func transitionOutcome(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		return "invalid"
	case errors.Is(err, models.ErrForbidden):
		return "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	}
	return "error"
}

// TagComplaint draws the attention of explicit roles to a complaint. Only
// staff may tag and every role must be known. The tag has no effect other
// than its notifications, so dispatch errors are returned.
func (s *ComplaintService) TagComplaint(ctx context.Context, complaintID int64, targets []models.Role, note string, actor models.Actor) error {
	if !s.catalog.IsInternal(actor.Role) {
		return fmt.Errorf("%w: role %s may not tag complaints", models.ErrForbidden, actor.Role)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: at least one role is required", models.ErrValidation)
	}
	if err := s.checkRoles(targets); err != nil {
		return err
	}
	c, err := s.complaints.GetComplaintByID(ctx, complaintID)
	if err != nil {
		return err
	}

	return s.dispatcher.Dispatch(ctx, notification.Event{
		Type:        models.NotificationTag,
		ComplaintID: c.ComplaintID,
		Status:      c.Status,
		Actor:       actor,
		Notes:       strings.TrimSpace(note),
		Targets:     targets,
		At:          s.now(),
	})
}

// RecordRemark stores a remark and notifies the relevant roles.
func (s *ComplaintService) RecordRemark(ctx context.Context, in RemarkInput) (int64, error) {
	notes := strings.TrimSpace(in.Notes)
	if notes == "" {
		return 0, fmt.Errorf("%w: remark notes are required", models.ErrValidation)
	}
	if !in.Visibility.IsValid() {
		return 0, fmt.Errorf("%w: visibility must be public or internal", models.ErrValidation)
	}
	if in.Visibility == models.VisibilityInternal && !s.catalog.IsInternal(in.Author.Role) {
		return 0, fmt.Errorf("%w: role %s may not write internal remarks", models.ErrForbidden, in.Author.Role)
	}
	if err := s.checkRoles(in.TaggedRoles); err != nil {
		return 0, err
	}

	c, err := s.complaints.GetComplaintByID(ctx, in.ComplaintID)
	if err != nil {
		return 0, err
	}

	remark := &models.Remark{
		ComplaintID:  c.ComplaintID,
		AuthorUserID: in.Author.UserID,
		AuthorRole:   in.Author.Role,
		Visibility:   in.Visibility,
		Notes:        notes,
		CreatedAt:    s.now(),
	}
	if err := s.remarks.CreateRemark(ctx, remark); err != nil {
		return 0, err
	}
	s.logger.Info("remark recorded",
		zap.Int64("complaint_id", c.ComplaintID),
		zap.Int64("remark_id", remark.RemarkID),
		zap.String("visibility", string(remark.Visibility)),
	)

	s.notify(ctx, notification.Event{
		Type:        models.NotificationRemark,
		ComplaintID: c.ComplaintID,
		Status:      c.Status,
		Actor:       in.Author,
		Visibility:  remark.Visibility,
		Notes:       remark.Notes,
		Targets:     in.TaggedRoles,
		At:          remark.CreatedAt,
	})
	return remark.RemarkID, nil
}

// ListVisibleRemarks returns the remarks role may read, newest first.
func (s *ComplaintService) ListVisibleRemarks(ctx context.Context, complaintID int64, role models.Role) ([]models.Remark, error) {
	if _, err := s.complaints.GetComplaintByID(ctx, complaintID); err != nil {
		return nil, err
	}
	remarks, err := s.remarks.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	return s.catalog.VisibleRemarks(role, remarks), nil
}

// StatusHistory returns the complaint's status timeline, newest first.
func (s *ComplaintService) StatusHistory(ctx context.Context, complaintID int64) ([]models.ComplaintStatusHistory, error) {
	if _, err := s.complaints.GetComplaintByID(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.complaints.GetStatusHistory(ctx, complaintID)
}

// AllowedTransitions lists the statuses role may move the complaint to now.
func (s *ComplaintService) AllowedTransitions(ctx context.Context, complaintID int64, role models.Role) (models.ComplaintStatus, []models.ComplaintStatus, error) {
	c, err := s.complaints.GetComplaintByID(ctx, complaintID)
	if err != nil {
		return "", nil, err
	}
	return c.Status, s.machine.Allowed(c.Status, role), nil
}

// Durations measures a complaint from creation to its last update when it
// is terminal, or to now otherwise.
func (s *ComplaintService) Durations(ctx context.Context, complaintID int64, now time.Time) (*DurationReport, error) {
	c, err := s.complaints.GetComplaintByID(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	end := now
	if c.Status.IsTerminal() {
		end = c.UpdatedAt
	}
	return &DurationReport{
		ComplaintID: c.ComplaintID,
		Status:      c.Status,
		From:        c.CreatedAt,
		To:          end,
		Business:    s.calc.BusinessDuration(c.CreatedAt, end),
		Precise:     sla.PreciseDuration(c.CreatedAt, end),
	}, nil
}

func (s *ComplaintService) checkRoles(list []models.Role) error {
	for _, r := range list {
		if !s.catalog.Known(r) {
			return fmt.Errorf("%w: unknown role %q", models.ErrValidation, r)
		}
	}
	return nil
}

// notify dispatches ev and swallows the error after logging it.
func (s *ComplaintService) notify(ctx context.Context, ev notification.Event) {
	err := s.dispatcher.Dispatch(ctx, ev)
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("type", string(ev.Type)),
		zap.Int64("complaint_id", ev.ComplaintID),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, models.ErrEmptyTargetSet):
		s.logger.Warn("event produced no notifications", fields...)
	case errors.Is(err, models.ErrUnknownEventType):
		s.logger.Error("unknown event type dispatched", fields...)
	default:
		s.logger.Error("notification dispatch failed", fields...)
	}
}
