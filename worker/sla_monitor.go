package worker

import (
	"context"
	"time"

	"grievancedesk/metrics"
	"grievancedesk/models"
	"grievancedesk/sla"

	"go.uber.org/zap"
)

// OpenComplaintLister returns complaints that are not Resolved or Invalid.
type OpenComplaintLister interface {
	ListOpenComplaints(ctx context.Context) ([]models.Complaint, error)
}

// Breach is an open complaint past the business-hours threshold.
type Breach struct {
	ComplaintID int64
	Status      models.ComplaintStatus
	Business    time.Duration
}

// ScanResult summarises one pass over the open complaints.
type ScanResult struct {
	Open     int
	Breaches []Breach
}

// SLAMonitor periodically measures how long open complaints have waited in
// business hours and reports breaches. It never mutates complaints.
type SLAMonitor struct {
	store     OpenComplaintLister
	calc      *sla.Calculator
	threshold time.Duration
	interval  time.Duration
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSLAMonitor creates a new SLA monitor
func NewSLAMonitor(
	store OpenComplaintLister,
	calc *sla.Calculator,
	threshold time.Duration,
	interval time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SLAMonitor {
	return &SLAMonitor{
		store:     store,
		calc:      calc,
		threshold: threshold,
		interval:  interval,
		metrics:   m,
		logger:    logger.Named("sla_monitor"),
		now:       time.Now,
	}
}

// Run scans immediately and then on every tick until ctx is done.
func (w *SLAMonitor) Run(ctx context.Context) error {
	w.logger.Info("SLA monitor started",
		zap.Duration("interval", w.interval),
		zap.Duration("threshold", w.threshold),
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.logger.Info("SLA monitor stopped")
			return nil
		}
	}
}

func (w *SLAMonitor) tick(ctx context.Context) {
	startTime := time.Now()
	res, err := w.Scan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("SLA scan failed", zap.Error(err))
		}
		return
	}
	w.logger.Info("SLA scan completed",
		zap.Int("open", res.Open),
		zap.Int("breaches", len(res.Breaches)),
		zap.Duration("elapsed", time.Since(startTime)),
	)
}

// Scan measures every open complaint once. It is idempotent.
func (w *SLAMonitor) Scan(ctx context.Context) (*ScanResult, error) {
	open, err := w.store.ListOpenComplaints(ctx)
	if err != nil {
		return nil, err
	}

	now := w.now()
	res := &ScanResult{Open: len(open)}
	byStatus := make(map[string]float64)
	for _, c := range open {
		business := w.calc.Business(c.CreatedAt, now)
		byStatus[string(c.Status)] += business.Minutes()
		if w.threshold > 0 && business >= w.threshold {
			res.Breaches = append(res.Breaches, Breach{
				ComplaintID: c.ComplaintID,
				Status:      c.Status,
				Business:    business,
			})
			w.logger.Warn("complaint past SLA",
				zap.Int64("complaint_id", c.ComplaintID),
				zap.String("status", string(c.Status)),
				zap.String("business_open", sla.FormatMinutes(int64(business/time.Minute))),
			)
		}
	}
	w.metrics.SetOpenBusinessMinutes(byStatus)
	w.metrics.SetSLABreaches(len(res.Breaches))
	return res, nil
}
