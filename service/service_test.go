package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"grievancedesk/lifecycle"
	"grievancedesk/metrics"
	"grievancedesk/models"
	"grievancedesk/notification"
	"grievancedesk/roles"
	"grievancedesk/sla"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	citizenID    int64 = 1
	collectorID  int64 = 2
	advancedID   int64 = 3
	departmentID int64 = 4
	adminID      int64 = 5
)

var (
	ist      = time.FixedZone("IST", 5*3600+30*60)
	fixedNow = time.Date(2024, 3, 6, 12, 0, 0, 0, ist)

	citizen    = models.Actor{UserID: citizenID, Role: models.RoleCitizen}
	collector  = models.Actor{UserID: collectorID, Role: models.RoleCollectorTeam}
	advanced   = models.Actor{UserID: advancedID, Role: models.RoleCollectorTeamAdvanced}
	department = models.Actor{UserID: departmentID, Role: models.RoleDepartmentTeam}
)

type harness struct {
	complaints    *fakeComplaintStore
	remarks       *fakeRemarkStore
	notifications *fakeNotificationStore
	users         *fakeUserStore
	metrics       *metrics.Metrics
	svc           *ComplaintService
	notifier      *NotificationService
}

func newHarness(t *testing.T, list ...models.Complaint) *harness {
	t.Helper()
	catalog := roles.Default()
	calc, err := sla.New(ist, sla.DefaultDayStartHour, sla.DefaultDayEndHour)
	require.NoError(t, err)

	h := &harness{
		complaints:    newFakeComplaintStore(list...),
		remarks:       &fakeRemarkStore{},
		notifications: &fakeNotificationStore{},
		users: newFakeUserStore(
			models.User{UserID: citizenID, Role: models.RoleCitizen},
			models.User{UserID: collectorID, Role: models.RoleCollectorTeam},
			models.User{UserID: advancedID, Role: models.RoleCollectorTeamAdvanced},
			models.User{UserID: departmentID, Role: models.RoleDepartmentTeam},
			models.User{UserID: adminID, Role: models.RoleAdmin},
		),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	logger := zap.NewNop()
	h.notifier = NewNotificationService(h.notifications, h.users,
		notification.NewRouter(catalog, models.PrefixBG), catalog, h.metrics, logger)
	h.svc = NewComplaintService(h.complaints, h.remarks, h.notifier,
		lifecycle.NewDefaultMachine(catalog), catalog, calc, h.metrics, logger)
	h.svc.now = func() time.Time { return fixedNow }
	return h
}

func openComplaint(id int64) models.Complaint {
	created := time.Date(2024, 3, 4, 9, 0, 0, 0, ist)
	return models.Complaint{
		ComplaintID: id,
		Status:      models.StatusOpen,
		Priority:    models.PriorityNormal,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func withStatus(c models.Complaint, s models.ComplaintStatus) models.Complaint {
	c.Status = s
	return c
}

func TestApplyTransitionWritesAndNotifies(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	change, err := h.svc.ApplyTransition(ctx, 42, models.StatusAssigned, collector)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, change.OldStatus)
	assert.Equal(t, models.StatusAssigned, change.NewStatus)
	assert.Equal(t, models.StatusAssigned, h.complaints.status(42))

	history, err := h.svc.StatusHistory(ctx, 42)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleCollectorTeam, history[0].ActorRole)

	rows := h.notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.RoleDepartmentTeam, rows[0].TargetRole)
	assert.Equal(t, "BG-42 moved to Assigned", rows[0].Title)
	assert.True(t, h.users.flag(departmentID))
	assert.False(t, h.users.flag(collectorID))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Transitions.WithLabelValues("applied")))
}

func TestApplyTransitionRejectionsLeaveStateAlone(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	_, err := h.svc.ApplyTransition(ctx, 42, models.StatusAssigned, department)
	assert.ErrorIs(t, err, models.ErrForbidden)

	for i := 0; i < 2; i++ {
		_, err = h.svc.ApplyTransition(ctx, 42, models.StatusResolved, department)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	}

	_, err = h.svc.ApplyTransition(ctx, 99, models.StatusAssigned, collector)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.Equal(t, models.StatusOpen, h.complaints.status(42))
	assert.Empty(t, h.notifications.all())
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.Transitions.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Transitions.WithLabelValues("forbidden")))
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.ApplyTransition(context.Background(), 42, models.StatusAssigned, collector)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
	history, err := h.svc.StatusHistory(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTransitionWithNoTargetsStillSucceeds(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	_, err := h.svc.ApplyTransition(context.Background(), 42, models.StatusNeedDetails, collector)
	require.NoError(t, err)
	assert.Empty(t, h.notifications.all())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DispatchFailures.WithLabelValues("empty_target_set")))
}

func TestNotificationFailureDoesNotUndoTransition(t *testing.T) {
	h := newHarness(t, withStatus(openComplaint(42), models.StatusAssigned))
	h.notifications.failErr = errors.New("connection reset")

	change, err := h.svc.ApplyTransition(context.Background(), 42, models.StatusInProgress, department)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, change.NewStatus)
	assert.Equal(t, models.StatusInProgress, h.complaints.status(42))
	assert.False(t, h.users.flag(collectorID))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DispatchFailures.WithLabelValues("store")))
}

func TestAssignComplaint(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	_, err := h.svc.AssignComplaint(ctx, 42, "Space Agency", collector)
	assert.ErrorIs(t, err, models.ErrValidation)

	change, err := h.svc.AssignComplaint(ctx, 42, models.DepartmentHealth, advanced)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAssigned, change.NewStatus)

	c, err := h.complaints.GetComplaintByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Health", c.Department.String)

	rows := h.notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationAssignment, rows[0].Type)
	assert.Equal(t, "BG-42 assigned to Health", rows[0].Title)
	assert.Equal(t, models.RoleDepartmentTeam, rows[0].TargetRole)

	_, err = h.svc.AssignComplaint(ctx, 42, models.DepartmentHealth, collector)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestRecordRemarkIntakeStageReachesAdvancedReader(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	id, err := h.svc.RecordRemark(ctx, RemarkInput{
		ComplaintID: 42,
		Author:      citizen,
		Visibility:  models.VisibilityPublic,
		Notes:       "  the streetlight is still out  ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	rows := h.notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.RoleCollectorTeam, rows[0].TargetRole)
	assert.Equal(t, "Citizen added a remark: the streetlight is still out", rows[0].Message)
	assert.True(t, h.users.flag(collectorID))
	assert.True(t, h.users.flag(advancedID))
	assert.False(t, h.users.flag(departmentID))

	list, err := h.notifier.ListNotifications(ctx, advancedID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rows[0].NotificationID, list[0].NotificationID)
}

func TestRecordRemarkTaggedRole(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	_, err := h.svc.RecordRemark(context.Background(), RemarkInput{
		ComplaintID: 42,
		Author:      collector,
		Visibility:  models.VisibilityInternal,
		Notes:       "needs a site inspection",
		TaggedRoles: []models.Role{models.RoleDepartmentTeam},
	})
	require.NoError(t, err)
	rows := h.notifications.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.RoleDepartmentTeam, rows[0].TargetRole)
}

func TestRecordRemarkValidation(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()
	tests := []struct {
		name string
		in   RemarkInput
		want error
	}{
		{"blank notes", RemarkInput{ComplaintID: 42, Author: collector, Visibility: models.VisibilityPublic, Notes: "  "}, models.ErrValidation},
		{"bad visibility", RemarkInput{ComplaintID: 42, Author: collector, Visibility: "secret", Notes: "x"}, models.ErrValidation},
		{"citizen internal", RemarkInput{ComplaintID: 42, Author: citizen, Visibility: models.VisibilityInternal, Notes: "x"}, models.ErrForbidden},
		{"unknown tag", RemarkInput{ComplaintID: 42, Author: collector, Visibility: models.VisibilityPublic, Notes: "x", TaggedRoles: []models.Role{"MAYOR"}}, models.ErrValidation},
		{"missing complaint", RemarkInput{ComplaintID: 7, Author: collector, Visibility: models.VisibilityPublic, Notes: "x"}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.RecordRemark(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, h.notifications.all())
}

func TestListVisibleRemarks(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	_, err := h.svc.RecordRemark(ctx, RemarkInput{ComplaintID: 42, Author: citizen, Visibility: models.VisibilityPublic, Notes: "public note"})
	require.NoError(t, err)
	_, err = h.svc.RecordRemark(ctx, RemarkInput{ComplaintID: 42, Author: collector, Visibility: models.VisibilityInternal, Notes: "internal note"})
	require.NoError(t, err)

	got, err := h.svc.ListVisibleRemarks(ctx, 42, models.RoleCitizen)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "public note", got[0].Notes)

	got, err = h.svc.ListVisibleRemarks(ctx, 42, models.RoleDepartmentTeam)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "internal note", got[0].Notes)
	assert.Equal(t, "public note", got[1].Notes)

	_, err = h.svc.ListVisibleRemarks(ctx, 5, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTagComplaint(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	err := h.svc.TagComplaint(ctx, 42, []models.Role{models.RoleAdmin}, "", citizen)
	assert.ErrorIs(t, err, models.ErrForbidden)
	err = h.svc.TagComplaint(ctx, 42, nil, "", collector)
	assert.ErrorIs(t, err, models.ErrValidation)
	err = h.svc.TagComplaint(ctx, 42, []models.Role{"MAYOR"}, "", collector)
	assert.ErrorIs(t, err, models.ErrValidation)

	err = h.svc.TagComplaint(ctx, 42, []models.Role{models.RoleAdmin, models.RoleDepartmentTeam}, "please review", collector)
	require.NoError(t, err)
	rows := h.notifications.all()
	require.Len(t, rows, 2)
	assert.Equal(t, "BG-42 tagged for your attention", rows[0].Title)
	assert.True(t, h.users.flag(adminID))
}

func TestMarkAllReadFlagSemantics(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	ctx := context.Background()

	_, err := h.svc.RecordRemark(ctx, RemarkInput{ComplaintID: 42, Author: citizen, Visibility: models.VisibilityPublic, Notes: "hello"})
	require.NoError(t, err)

	unread, err := h.notifier.HasUnread(ctx, collectorID)
	require.NoError(t, err)
	assert.True(t, unread)

	require.NoError(t, h.notifier.MarkAllRead(ctx, collectorID))
	assert.False(t, h.users.flag(collectorID))

	list, err := h.notifier.ListNotifications(ctx, collectorID, true)
	require.NoError(t, err)
	assert.Empty(t, list)

	// Records are untouched: only the flag changed.
	list, err = h.notifier.ListNotifications(ctx, collectorID, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, h.notifier.MarkAllRead(ctx, 404), models.ErrNotFound)
	_, err = h.notifier.ListNotifications(ctx, 404, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListNotificationsCappedNewestFirst(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < models.NotificationPageSize+20; i++ {
		require.NoError(t, h.notifications.CreateNotifications(context.Background(), []models.Notification{
			{TargetRole: models.RoleAdmin, Type: models.NotificationTag, ComplaintID: int64(i)},
		}))
	}
	list, err := h.notifier.ListNotifications(context.Background(), adminID, false)
	require.NoError(t, err)
	require.Len(t, list, models.NotificationPageSize)
	assert.Equal(t, int64(models.NotificationPageSize+19), list[0].ComplaintID)
}

func TestListNotificationsUsesStoredRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.notifications.CreateNotifications(ctx, []models.Notification{
		{TargetRole: models.RoleDepartmentTeam, Type: models.NotificationAssignment, ComplaintID: 1},
		{TargetRole: models.RoleAdmin, Type: models.NotificationTag, ComplaintID: 2},
		{TargetRole: models.RoleCollectorTeam, Type: models.NotificationRemark, ComplaintID: 3},
	}))

	list, err := h.notifier.ListNotifications(ctx, departmentID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RoleDepartmentTeam, list[0].TargetRole)

	// The advanced variant reads its base role's stream too.
	list, err = h.notifier.ListNotifications(ctx, advancedID, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RoleCollectorTeam, list[0].TargetRole)

	_, err = h.notifier.ListNotifications(ctx, 404, false)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDispatchUnknownEventType(t *testing.T) {
	h := newHarness(t)
	err := h.notifier.Dispatch(context.Background(), notification.Event{Type: "PING", Targets: []models.Role{models.RoleAdmin}})
	assert.ErrorIs(t, err, models.ErrUnknownEventType)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.DispatchFailures.WithLabelValues("unknown_event_type")))
}

func TestDurations(t *testing.T) {
	open := openComplaint(1)
	resolved := withStatus(openComplaint(2), models.StatusResolved)
	resolved.UpdatedAt = time.Date(2024, 3, 4, 18, 0, 0, 0, ist)
	h := newHarness(t, open, resolved)
	ctx := context.Background()

	// Created Monday 09:00; now is Wednesday 12:00.
	rep, err := h.svc.Durations(ctx, 1, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "16h 0m", rep.Business)
	assert.Equal(t, "2d 3h 0m", rep.Precise)
	assert.Equal(t, fixedNow, rep.To)

	rep, err = h.svc.Durations(ctx, 2, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "7h 0m", rep.Business)
	assert.Equal(t, "9h 0m", rep.Precise)

	_, err = h.svc.Durations(ctx, 3, fixedNow)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAllowedTransitions(t *testing.T) {
	h := newHarness(t, openComplaint(42))
	status, next, err := h.svc.AllowedTransitions(context.Background(), 42, models.RoleDistrictCollector)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, status)
	assert.Equal(t, []models.ComplaintStatus{models.StatusAssigned, models.StatusNeedDetails, models.StatusInvalid}, next)
}
