package routes

import (
	"net/http"

	"grievancedesk/handler"
	"grievancedesk/metrics"
	"grievancedesk/middleware"
	"grievancedesk/roles"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps is everything the router needs to build handlers.
type Deps struct {
	Complaints     handler.ComplaintAPI
	Notifications  handler.NotificationAPI
	Catalog        *roles.Catalog
	JWTSecret      string
	RefPrefix      string
	AllowedOrigins string
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(d Deps) http.Handler {
	router := mux.NewRouter()
	router.Use(middleware.Recover(d.Logger), middleware.RequestID, middleware.AccessLog(d.Logger, d.Metrics))

	// Initialize handlers
	complaintHandler := handler.NewComplaintHandler(d.Complaints, d.RefPrefix, d.Logger)
	notificationHandler := handler.NewNotificationHandler(d.Notifications, d.Logger)
	rolesHandler := handler.NewRolesHandler(d.Catalog)
	authMiddleware := middleware.NewAuthMiddleware(d.JWTSecret, d.Catalog)

	// API v1 routes
	apiV1 := router.PathPrefix("/api/v1").Subrouter()

	// GET /api/v1/roles - Role catalog with UI labels (public)
	apiV1.HandleFunc("/roles", rolesHandler.List).Methods("GET")

	// Complaint workflow routes (protected - require auth). {ref} accepts BG-42, GC-42 or 42.
	complaints := apiV1.PathPrefix("/complaints").Subrouter()
	complaints.Use(authMiddleware.RequireAuth)

	// POST /api/v1/complaints/{ref}/status - Move a complaint through the lifecycle
	complaints.HandleFunc("/{ref}/status", complaintHandler.UpdateStatus).Methods("POST")
	// POST /api/v1/complaints/{ref}/assign - Assign to a department (Open to Assigned)
	complaints.HandleFunc("/{ref}/assign", complaintHandler.Assign).Methods("POST")
	// POST /api/v1/complaints/{ref}/tags - Ask other teams to look at a complaint
	complaints.HandleFunc("/{ref}/tags", complaintHandler.Tag).Methods("POST")
	// POST /api/v1/complaints/{ref}/remarks - Add a public or internal remark
	complaints.HandleFunc("/{ref}/remarks", complaintHandler.CreateRemark).Methods("POST")
	// GET /api/v1/complaints/{ref}/remarks - Remarks visible to the caller's role
	complaints.HandleFunc("/{ref}/remarks", complaintHandler.ListRemarks).Methods("GET")
	// GET /api/v1/complaints/{ref}/history - Status timeline
	complaints.HandleFunc("/{ref}/history", complaintHandler.GetHistory).Methods("GET")
	// GET /api/v1/complaints/{ref}/transitions - Statuses the caller may move to
	complaints.HandleFunc("/{ref}/transitions", complaintHandler.GetTransitions).Methods("GET")
	// GET /api/v1/complaints/{ref}/durations - Business and wall-clock open time
	complaints.HandleFunc("/{ref}/durations", complaintHandler.GetDurations).Methods("GET")

	// Notification polling routes (protected)
	notifications := apiV1.PathPrefix("/notifications").Subrouter()
	notifications.Use(authMiddleware.RequireAuth)
	notifications.HandleFunc("", notificationHandler.List).Methods("GET")
	notifications.HandleFunc("/unread", notificationHandler.Unread).Methods("GET")
	notifications.HandleFunc("/read", notificationHandler.MarkRead).Methods("POST")

	// Health check and Prometheus scrape endpoints
	router.HandleFunc("/health", handler.Health).Methods("GET")
	if d.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	return middleware.CORS(d.AllowedOrigins)(router)
}
