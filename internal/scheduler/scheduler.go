package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/swinewatch/internal/config"
	"github.com/mamadbah2/swinewatch/internal/monitoring"
)

const (
	jobTimeout  = 2 * time.Minute
	everyMinute = "* * * * *"
)

// WindowSource returns the monitoring window with the stored start time.
type WindowSource interface {
	Window(ctx context.Context) (monitoring.Window, error)
}

// Reporter builds the weekly herd report text.
type Reporter interface {
	GenerateHerdReport(ctx context.Context, now time.Time) (string, error)
}

// Broadcaster delivers a message to the farm contact.
type Broadcaster interface {
	Broadcast(ctx context.Context, message string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron        *cron.Cron
	windows     WindowSource
	reporter    Reporter
	broadcaster Broadcaster
	cfg         config.MonitoringConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewScheduler creates a scheduler whose cron expressions are read in loc.
func NewScheduler(cfg config.MonitoringConfig, loc *time.Location, windows WindowSource, reporter Reporter, broadcaster Broadcaster, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		windows:     windows,
		reporter:    reporter,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("report_schedule", s.cfg.ReportSchedule))

	if _, err := s.cron.AddFunc(s.cfg.ReportSchedule, s.sendHerdReport); err != nil {
		return fmt.Errorf("schedule herd report: %w", err)
	}

	// The start time lives in the database and may change at runtime, so
	// reminders are checked every minute rather than scheduled once.
	if s.cfg.ReminderEnabled {
		if _, err := s.cron.AddFunc(everyMinute, s.remindIfDue); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendHerdReport() {
	s.logger.Info("generating herd report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := s.reporter.GenerateHerdReport(ctx, s.now())
	if err != nil {
		s.logger.Error("failed to generate herd report", zap.Error(err))
		return
	}

	if err := s.broadcaster.Broadcast(ctx, report); err != nil {
		s.logger.Error("failed to send herd report", zap.Error(err))
		return
	}
	s.logger.Info("herd report sent successfully")
}

func (s *Scheduler) remindIfDue() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	window, err := s.windows.Window(ctx)
	if err != nil {
		s.logger.Error("failed to load monitoring window", zap.Error(err))
		return
	}

	message := ReminderFor(window, s.now())
	if message == "" {
		return
	}

	if err := s.broadcaster.Broadcast(ctx, message); err != nil {
		s.logger.Error("failed to send monitoring reminder", zap.Error(err))
		return
	}
	s.logger.Info("monitoring reminder sent", zap.String("start_time", window.Start.String()))
}

// ReminderFor returns the reminder due at now's minute, or "" when none is.
func ReminderFor(window monitoring.Window, now time.Time) string {
	if window.Location != nil {
		now = now.In(window.Location)
	}
	clock := monitoring.ClockOf(now)
	second := window.SecondWindow()

	switch clock {
	case window.Start:
		return fmt.Sprintf("Monitoring day open (%s). Record each pig's temperature and symptoms.", window.Start)
	case second:
		return fmt.Sprintf("Second monitoring window open (%s). Pigs checked at least 4 hours ago can be checked again.", second)
	default:
		return ""
	}
}
