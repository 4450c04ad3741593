package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"grievancedesk/config"
	"grievancedesk/lifecycle"
	"grievancedesk/metrics"
	"grievancedesk/notification"
	"grievancedesk/repository"
	"grievancedesk/roles"
	"grievancedesk/routes"
	"grievancedesk/schema"
	"grievancedesk/service"
	"grievancedesk/sla"
	"grievancedesk/worker"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "grievancedesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration (.env first, then the environment)
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection (UTC for consistent timestamps)
	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	logger.Info("database connection established")

	if err := schema.InitializeDatabase(ctx, db, logger); err != nil {
		return err
	}
	if err := schema.ValidateRequiredColumns(ctx, db, nil, logger); err != nil {
		return err
	}

	catalog, err := roles.Load(cfg.Roles.CatalogPath)
	if err != nil {
		return err
	}
	calc, err := sla.NewForZone(cfg.SLA.Timezone, cfg.SLA.DayStartHour, cfg.SLA.DayEndHour)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	complaintRepo := repository.NewComplaintRepository(db)
	remarkRepo := repository.NewRemarkRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	router := notification.NewRouter(catalog, cfg.Complaint.RefPrefix)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, router, catalog, m, logger)
	complaintService := service.NewComplaintService(
		complaintRepo,
		remarkRepo,
		notificationService,
		lifecycle.NewDefaultMachine(catalog),
		catalog,
		calc,
		m,
		logger,
	)

	srv := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: routes.SetupRoutes(routes.Deps{
			Complaints:     complaintService,
			Notifications:  notificationService,
			Catalog:        catalog,
			JWTSecret:      cfg.Auth.JWTSecret,
			RefPrefix:      cfg.Complaint.RefPrefix,
			AllowedOrigins: cfg.Server.CORSOrigins,
			Metrics:        m,
			Gatherer:       reg,
			Logger:         logger,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Worker.SLAMonitorEnabled {
		monitor := worker.NewSLAMonitor(
			complaintRepo,
			calc,
			time.Duration(cfg.SLA.BreachHours*float64(time.Hour)),
			cfg.Worker.SLAMonitorInterval,
			m,
			logger,
		)
		g.Go(func() error { return monitor.Run(gctx) })
	}

	return g.Wait()
}
