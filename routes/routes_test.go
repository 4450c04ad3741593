package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grievancedesk/handler"
	"grievancedesk/metrics"
	"grievancedesk/models"
	"grievancedesk/roles"
	"grievancedesk/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

type noopNotifications struct{}

func (noopNotifications) ListNotifications(context.Context, int64, bool) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (noopNotifications) HasUnread(context.Context, int64) (bool, error) { return false, nil }

func (noopNotifications) MarkAllRead(context.Context, int64) error { return nil }

func newTestHandler(t *testing.T) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	var complaints handler.ComplaintAPI
	return SetupRoutes(Deps{
		Complaints:     complaints,
		Notifications:  noopNotifications{},
		Catalog:        roles.Default(),
		JWTSecret:      secret,
		RefPrefix:      models.PrefixBG,
		AllowedOrigins: "*",
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		Logger:         zap.NewNop(),
	}), reg
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPublicEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(h, http.MethodGet, "/api/v1/roles", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Collector Team (Advanced)")
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/api/v1/notifications/unread", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, http.MethodPost, "/api/v1/complaints/BG-1/status", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := utils.GenerateJWT(3, models.RoleDepartmentTeam, []byte(secret), time.Hour)
	require.NoError(t, err)
	rec = serve(h, http.MethodGet, "/api/v1/notifications/unread", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":0}`, rec.Body.String())
}

func TestMetricsEndpointRecordsRequests(t *testing.T) {
	h, _ := newTestHandler(t)

	serve(h, http.MethodGet, "/health", "")
	rec := serve(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/health"`)
}
