// Package server exposes the HTTP API: auth, habits, check-ins, stats,
// predictions, reports, notifications, and admin operations.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/julianstephens/habitcoach/internal/auth"
	"github.com/julianstephens/habitcoach/internal/config"
	"github.com/julianstephens/habitcoach/internal/mailer"
	"github.com/julianstephens/habitcoach/internal/ml"
	"github.com/julianstephens/habitcoach/internal/notify"
	"github.com/julianstephens/habitcoach/internal/predictor"
	"github.com/julianstephens/habitcoach/internal/report"
	"github.com/julianstephens/habitcoach/internal/scheduler"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// trainState tracks the asynchronous training job so its outcome is
// inspectable after the 202 response.
type trainState struct {
	mu       sync.Mutex
	running  bool
	lastRun  time.Time
	lastErr  string
	lastAUC  float64
	trainDay string
}

type Server struct {
	cfg         *config.Config
	store       storage.Provider
	auth        *auth.Manager
	model       *ml.Model
	predictions *predictor.Service
	reports     *report.Builder
	notifier    *notify.Service
	mail        *mailer.Mailer
	sched       *scheduler.Scheduler

	training trainState
}

func New(cfg *config.Config, store storage.Provider, model *ml.Model) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		auth:  auth.NewManager(cfg.SecretKey),
		model: model,
	}
	s.predictions = predictor.New(store, model)
	s.reports = report.NewBuilder(store, s.predictions)
	s.mail = mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	s.notifier = notify.NewService(store, s.mail)
	return s
}

// AttachScheduler makes the scheduler visible on the health endpoint.
func (s *Server) AttachScheduler(sched *scheduler.Scheduler) {
	s.sched = sched
}

// Services shared with the scheduler so both run against the same
// predictor cache and mail configuration.
func (s *Server) Predictions() *predictor.Service { return s.predictions }
func (s *Server) Reports() *report.Builder        { return s.reports }
func (s *Server) Mail() *mailer.Mailer            { return s.mail }
func (s *Server) Notifier() *notify.Service       { return s.notifier }

// HTTPServer wraps the routes in an http.Server with sane timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
