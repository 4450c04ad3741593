package service

import (
	"context"
	"fmt"
	"sync"

	"grievancedesk/models"
	"grievancedesk/repository"
)

type fakeComplaintStore struct {
	mu         sync.Mutex
	complaints map[int64]models.Complaint
	history    []models.ComplaintStatusHistory
}

func newFakeComplaintStore(list ...models.Complaint) *fakeComplaintStore {
	s := &fakeComplaintStore{complaints: make(map[int64]models.Complaint)}
	for _, c := range list {
		s.complaints[c.ComplaintID] = c
	}
	return s
}

func (s *fakeComplaintStore) GetComplaintByID(_ context.Context, id int64) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
	}
	return &c, nil
}

// MutateStatus holds the store lock for the whole call, like a row lock.
func (s *fakeComplaintStore) MutateStatus(_ context.Context, id int64, decide func(models.Complaint) (repository.StatusMutation, error)) (repository.StatusMutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return repository.StatusMutation{}, fmt.Errorf("complaint %d: %w", id, models.ErrNotFound)
	}
	m, err := decide(c)
	if err != nil {
		return repository.StatusMutation{}, err
	}
	c.Status = m.Change.NewStatus
	c.UpdatedAt = m.Change.ChangedAt
	if m.Department != "" {
		c.Department.String, c.Department.Valid = string(m.Department), true
	}
	s.complaints[id] = c
	s.history = append(s.history, models.ComplaintStatusHistory{
		HistoryID:   int64(len(s.history) + 1),
		ComplaintID: id,
		OldStatus:   m.Change.OldStatus,
		NewStatus:   m.Change.NewStatus,
		ActorUserID: m.Change.Actor.UserID,
		ActorRole:   m.Change.Actor.Role,
		CreatedAt:   m.Change.ChangedAt,
	})
	return m, nil
}

func (s *fakeComplaintStore) GetStatusHistory(_ context.Context, id int64) ([]models.ComplaintStatusHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ComplaintStatusHistory
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ComplaintID == id {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

func (s *fakeComplaintStore) status(id int64) models.ComplaintStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complaints[id].Status
}

type fakeRemarkStore struct {
	mu      sync.Mutex
	remarks []models.Remark
}

func (s *fakeRemarkStore) CreateRemark(_ context.Context, r *models.Remark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.RemarkID = int64(len(s.remarks) + 1)
	s.remarks = append(s.remarks, *r)
	return nil
}

func (s *fakeRemarkStore) ListByComplaint(_ context.Context, id int64) ([]models.Remark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Remark{}
	for i := len(s.remarks) - 1; i >= 0; i-- {
		if s.remarks[i].ComplaintID == id {
			out = append(out, s.remarks[i])
		}
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	rows    []models.Notification
	failErr error
}

func (s *fakeNotificationStore) CreateNotifications(_ context.Context, list []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for _, n := range list {
		n.NotificationID = int64(len(s.rows) + 1)
		s.rows = append(s.rows, n)
	}
	return nil
}

func (s *fakeNotificationStore) ListForRoles(_ context.Context, roles []models.Role, limit int) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		want[r] = true
	}
	out := []models.Notification{}
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if want[s.rows[i].TargetRole] {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) all() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.rows...)
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[int64]*models.User
}

func newFakeUserStore(list ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[int64]*models.User)}
	for i := range list {
		u := list[i]
		s.users[u.UserID] = &u
	}
	return s
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) SetHasNotificationsForRoles(_ context.Context, roles []models.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		for _, r := range roles {
			if u.Role == r {
				u.HasNotifications = true
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *fakeUserStore) ClearHasNotifications(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.HasNotifications = false
	}
	return nil
}

func (s *fakeUserStore) flag(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].HasNotifications
}
