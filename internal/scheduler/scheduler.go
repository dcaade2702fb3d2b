// Package scheduler runs the periodic jobs: nightly prediction batches,
// weekly report emails, and the notification dispatch loop.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/notify"
	"github.com/julianstephens/habitcoach/internal/predictor"
	"github.com/julianstephens/habitcoach/internal/report"
)

// Cron specs, evaluated in UTC.
const (
	nightlySpec  = "0 2 * * *"
	weeklySpec   = "0 8 * * 1"
	dispatchSpec = "*/15 * * * *"
)

// Store is the slice of persistence the scheduler needs directly.
type Store interface {
	GetActiveUsers() ([]models.User, error)
}

// BatchRunner scores all active habits for a day.
type BatchRunner interface {
	RunBatch(day string, horizons []int) (predictor.BatchResult, error)
}

// Dispatcher delivers due notifications.
type Dispatcher interface {
	Dispatch(now time.Time) (notify.DispatchResult, error)
}

// ReportBuilder assembles a user's weekly summary.
type ReportBuilder interface {
	BuildWeekly(userID, weekStart string) (report.WeeklyReport, error)
}

// Mailer delivers weekly reports.
type Mailer interface {
	SendWeeklyReport(to, name string, r report.WeeklyReport) error
}

type Scheduler struct {
	cron        *cron.Cron
	store       Store
	predictions BatchRunner
	reports     ReportBuilder
	mail        Mailer
	notifier    Dispatcher
	running     bool
}

func New(store Store, predictions BatchRunner, reports ReportBuilder, mail Mailer, notifier Dispatcher) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		store:       store,
		predictions: predictions,
		reports:     reports,
		mail:        mail,
		notifier:    notifier,
	}
}

// Start registers the jobs and begins ticking.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(nightlySpec, func() { s.RunNightlyPredictions(time.Now().UTC()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(weeklySpec, func() { s.RunWeeklyReports(time.Now().UTC()) }); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(dispatchSpec, func() { s.RunDispatch(time.Now().UTC()) }); err != nil {
		return err
	}

	s.cron.Start()
	s.running = true
	logger.Info("Scheduler started",
		"nightly", nightlySpec, "weekly", weeklySpec, "dispatch", dispatchSpec)
	return nil
}

// Stop halts the ticker and returns a context that completes once any
// in-flight job finishes.
func (s *Scheduler) Stop() context.Context {
	s.running = false
	return s.cron.Stop()
}

// Running reports whether the ticker is active.
func (s *Scheduler) Running() bool {
	return s.running
}

// RunNightlyPredictions scores every active habit for the current day
// across all horizons. Re-runs of the same day only fill gaps.
func (s *Scheduler) RunNightlyPredictions(now time.Time) predictor.BatchResult {
	day := now.Format(constants.DateFormat)
	result, err := s.predictions.RunBatch(day, constants.Horizons)
	if err != nil {
		logger.Error("Nightly prediction batch failed", "day", day, "error", err)
		return result
	}
	return result
}

// RunWeeklyReports mails every active user a summary of the week that
// just ended. One user's failure never blocks the rest.
func (s *Scheduler) RunWeeklyReports(now time.Time) (sent, failed int) {
	weekStart := report.WeekStartFor(now.AddDate(0, 0, -7))

	users, err := s.store.GetActiveUsers()
	if err != nil {
		logger.Error("Weekly report run failed to load users", "error", err)
		return 0, 0
	}

	for _, user := range users {
		r, err := s.reports.BuildWeekly(user.ID, weekStart)
		if err != nil {
			logger.Error("Weekly report build failed", "user_id", user.ID, "error", err)
			failed++
			continue
		}
		if len(r.Habits) == 0 {
			continue
		}
		if err := s.mail.SendWeeklyReport(user.Email, user.Name, r); err != nil {
			logger.Error("Weekly report delivery failed", "user_id", user.ID, "error", err)
			failed++
			continue
		}
		sent++
	}

	logger.Info("Weekly report run finished", "week_start", weekStart, "sent", sent, "failed", failed)
	return sent, failed
}

// RunDispatch delivers due notifications.
func (s *Scheduler) RunDispatch(now time.Time) notify.DispatchResult {
	result, err := s.notifier.Dispatch(now)
	if err != nil {
		logger.Error("Notification dispatch run failed", "error", err)
	}
	return result
}
