package service

import (
	"context"
	"errors"
	"fmt"

	"grievancedesk/metrics"
	"grievancedesk/models"
	"grievancedesk/notification"
	"grievancedesk/roles"

	"go.uber.org/zap"
)

// NotificationStore persists and lists role notifications.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, notifications []models.Notification) error
	ListForRoles(ctx context.Context, roles []models.Role, limit int) ([]models.Notification, error)
}

// UserStore reads users and maintains the unread flag.
type UserStore interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	SetHasNotificationsForRoles(ctx context.Context, roles []models.Role) (int64, error)
	ClearHasNotifications(ctx context.Context, userID int64) error
}

// NotificationService routes events into stored notifications and serves
// the polling read path.
type NotificationService struct {
	store   NotificationStore
	users   UserStore
	router  *notification.Router
	catalog *roles.Catalog
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	store NotificationStore,
	users UserStore,
	router *notification.Router,
	catalog *roles.Catalog,
	m *metrics.Metrics,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		store:   store,
		users:   users,
		router:  router,
		catalog: catalog,
		metrics: m,
		logger:  logger.Named("notification"),
	}
}

// Dispatch routes ev, writes one notification per target role and raises
// the unread flag for every recipient role. Errors are returned to the
// caller; nothing is retried.
func (s *NotificationService) Dispatch(ctx context.Context, ev notification.Event) error {
	res, err := s.router.Route(ev)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmptyTargetSet):
			s.metrics.IncrementDispatchFailure("empty_target_set")
		case errors.Is(err, models.ErrUnknownEventType):
			s.metrics.IncrementDispatchFailure("unknown_event_type")
		default:
			s.metrics.IncrementDispatchFailure("route")
		}
		return err
	}

	if err := s.store.CreateNotifications(ctx, res.Notifications); err != nil {
		s.metrics.IncrementDispatchFailure("store")
		return fmt.Errorf("failed to store notifications: %w", err)
	}
	s.metrics.AddNotifications(string(ev.Type), len(res.Notifications))

	flagged, err := s.users.SetHasNotificationsForRoles(ctx, res.Recipients)
	if err != nil {
		s.metrics.IncrementDispatchFailure("flag")
		return fmt.Errorf("failed to flag recipients: %w", err)
	}

	s.logger.Debug("notifications dispatched",
		zap.String("type", string(ev.Type)),
		zap.Int64("complaint_id", ev.ComplaintID),
		zap.Int("records", len(res.Notifications)),
		zap.Int64("users_flagged", flagged),
	)
	return nil
}

// ListNotifications returns the newest notifications for userID: the
// stream of the role stored on the account plus its base role's. With
// unreadOnly set and the user's flag down the result is empty; records
// themselves carry no read state.
func (s *NotificationService) ListNotifications(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if unreadOnly && !u.HasNotifications {
		return []models.Notification{}, nil
	}

	list, err := s.store.ListForRoles(ctx, s.catalog.StreamRoles(u.Role), models.NotificationPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

// HasUnread reports the user's unread flag.
func (s *NotificationService) HasUnread(ctx context.Context, userID int64) (bool, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.HasNotifications, nil
}

// MarkAllRead lowers the user's unread flag.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.ClearHasNotifications(ctx, userID); err != nil {
		return err
	}
	s.logger.Debug("notifications marked read", zap.Int64("user_id", userID))
	return nil
}
