package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/ml"
)

type trainStatusResponse struct {
	Running bool      `json:"running"`
	LastRun time.Time `json:"last_run,omitempty"`
	LastErr string    `json:"last_error,omitempty"`
	LastAUC float64   `json:"last_auc,omitempty"`
	Day     string    `json:"day,omitempty"`
}

// handleTrain kicks off model training in the background and responds
// immediately; the outcome is visible on the status endpoint.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	s.training.mu.Lock()
	if s.training.running {
		s.training.mu.Unlock()
		writeError(w, http.StatusConflict, "training already in progress")
		return
	}
	s.training.running = true
	s.training.mu.Unlock()

	day := time.Now().UTC().Format(constants.DateFormat)
	go s.runTraining(day)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "training started", "day": day})
}

func (s *Server) runTraining(day string) {
	var auc float64
	err := func() error {
		dataset, err := ml.ExportSamples(s.store, day, constants.HorizonDefault)
		if err != nil {
			return err
		}
		artifact, err := ml.Train(dataset)
		if err != nil {
			return err
		}

		path, err := ml.SaveArtifact(artifact, s.cfg.ModelDir)
		if err != nil {
			return err
		}
		registry, err := ml.OpenRegistry(s.cfg.ModelDir)
		if err != nil {
			return err
		}
		if err := registry.Register(path, artifact); err != nil {
			return err
		}

		auc = artifact.Metrics["auc"]
		_, err = s.model.Load(ml.LatestArtifactPath(s.cfg.ModelDir))
		return err
	}()

	s.training.mu.Lock()
	defer s.training.mu.Unlock()
	s.training.running = false
	s.training.lastRun = time.Now().UTC()
	s.training.trainDay = day
	if err != nil {
		s.training.lastErr = err.Error()
		if errors.Is(err, ml.ErrInsufficientSamples) {
			logger.Warn("Training skipped", "day", day, "reason", err)
		} else {
			logger.Error("Training failed", "day", day, "error", err)
		}
		return
	}
	s.training.lastErr = ""
	s.training.lastAUC = auc
}

func (s *Server) handleTrainStatus(w http.ResponseWriter, r *http.Request) {
	s.training.mu.Lock()
	resp := trainStatusResponse{
		Running: s.training.running,
		LastRun: s.training.lastRun,
		LastErr: s.training.lastErr,
		LastAUC: s.training.lastAUC,
		Day:     s.training.trainDay,
	}
	s.training.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

// handleReloadModel re-reads the latest artifact from disk, picking up
// models trained by the CLI without a restart.
func (s *Server) handleReloadModel(w http.ResponseWriter, r *http.Request) {
	loaded, err := s.model.Load(ml.LatestArtifactPath(s.cfg.ModelDir))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"loaded": loaded})
}

// handleRunBatch runs the nightly prediction batch on demand.
func (s *Server) handleRunBatch(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = time.Now().UTC().Format(constants.DateFormat)
	} else if _, err := time.Parse(constants.DateFormat, day); err != nil {
		writeError(w, http.StatusBadRequest, "invalid day (want YYYY-MM-DD)")
		return
	}

	result, err := s.predictions.RunBatch(day, constants.Horizons)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type healthResponse struct {
	Status      string            `json:"status"`
	Version     string            `json:"version"`
	Database    map[string]string `json:"database"`
	ModelLoaded bool              `json:"model_loaded"`
	Scheduler   bool              `json:"scheduler_running"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Version:     constants.Version,
		Database:    s.store.Health(),
		ModelLoaded: s.model.Loaded(),
	}
	if s.sched != nil {
		resp.Scheduler = s.sched.Running()
	}

	status := http.StatusOK
	if resp.Database["status"] != "up" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
