package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/scheduler"
	"github.com/julianstephens/habitcoach/internal/server"
)

type ServeCmd struct {
	NoScheduler bool `help:"Run the API without the periodic jobs."`
}

// Run starts the API server and, unless disabled, the scheduler, then
// blocks until SIGINT/SIGTERM and shuts both down gracefully.
func (c *ServeCmd) Run(ctx *Context) error {
	srv := server.New(ctx.Config, ctx.Store, ctx.Model)

	var sched *scheduler.Scheduler
	if !c.NoScheduler {
		sched = scheduler.New(ctx.Store, srv.Predictions(), srv.Reports(), srv.Mail(), srv.Notifier())
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		srv.AttachScheduler(sched)
	}

	httpServer := srv.HTTPServer()

	stop, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-stop.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	if sched != nil {
		<-sched.Stop().Done()
	}
	return nil
}
