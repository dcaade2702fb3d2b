// Package ml provides the maintenance-probability model: feature
// engineering, a logistic-regression classifier with a JSON artifact
// format, and a deterministic rule-based fallback used whenever no
// trained artifact is available.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
)

// ErrNoModel indicates no trained artifact is loaded. Callers fall back
// to rule-based predictions instead of surfacing this to clients.
var ErrNoModel = errors.New("no trained model loaded")

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Weights      map[string]float64 `json:"weights"`
	Bias         float64            `json:"bias"`
	FeatureNames []string           `json:"feature_names"`
	Metrics      map[string]float64 `json:"metrics"`
	TrainedAt    time.Time          `json:"trained_at"`
}

// Model wraps the currently loaded artifact. It is safe for concurrent
// use; Reload swaps the artifact under live traffic.
type Model struct {
	mu       sync.RWMutex
	artifact *Artifact
}

func NewModel() *Model {
	return &Model{}
}

// Load reads an artifact from disk and makes it current. A missing file
// is not an error: the model simply stays in fallback mode.
func (m *Model) Load(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Model artifact not found, using fallback predictions", "path", path)
			return false, nil
		}
		return false, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return false, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if len(artifact.Weights) == 0 || len(artifact.FeatureNames) == 0 {
		return false, fmt.Errorf("model artifact is incomplete: %s", path)
	}

	m.mu.Lock()
	m.artifact = &artifact
	m.mu.Unlock()

	logger.Info("Model artifact loaded", "path", path, "trained_at", artifact.TrainedAt)
	return true, nil
}

// Loaded reports whether a trained artifact is current.
func (m *Model) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.artifact != nil
}

// Predict returns the maintenance probability in [0,1] and the top
// contributing features. Without a loaded artifact it degrades to the
// deterministic fallback; it never fails for lack of a model.
func (m *Model) Predict(features map[string]float64) (float64, []models.FeatureAttribution, string) {
	m.mu.RLock()
	artifact := m.artifact
	m.mu.RUnlock()

	if artifact == nil {
		prob, explanation := Fallback(features)
		return prob, explanation, SourceFallback
	}

	z := artifact.Bias
	for _, name := range artifact.FeatureNames {
		z += artifact.Weights[name] * features[name]
	}
	prob := clamp01(sigmoid(z))

	return prob, explain(artifact, features), SourceModel
}

// Fallback is the rule-based estimate used when no model artifact
// exists: a weighted blend of recent completion rates and streak
// length, clamped to [0,1].
func Fallback(features map[string]float64) (float64, []models.FeatureAttribution) {
	rate7 := features["rolling_7d_completion"]
	rate30 := features["rolling_30d_completion"]
	streak := features["current_streak"]

	prob := clamp01(0.5*rate7 + 0.3*rate30 + 0.2*math.Min(streak/30, 1))

	explanation := []models.FeatureAttribution{
		{Feature: "rolling_7d_completion", Importance: 0.5, Value: rate7, Description: featureDescriptions["rolling_7d_completion"]},
		{Feature: "rolling_30d_completion", Importance: 0.3, Value: rate30, Description: featureDescriptions["rolling_30d_completion"]},
		{Feature: "current_streak", Importance: 0.2, Value: streak, Description: featureDescriptions["current_streak"]},
	}
	return prob, explanation
}

// explain ranks features by absolute weight and returns the top three.
func explain(artifact *Artifact, features map[string]float64) []models.FeatureAttribution {
	names := make([]string, len(artifact.FeatureNames))
	copy(names, artifact.FeatureNames)
	sort.Slice(names, func(i, j int) bool {
		return math.Abs(artifact.Weights[names[i]]) > math.Abs(artifact.Weights[names[j]])
	})

	if len(names) > 3 {
		names = names[:3]
	}

	explanation := make([]models.FeatureAttribution, 0, len(names))
	for _, name := range names {
		explanation = append(explanation, models.FeatureAttribution{
			Feature:     name,
			Importance:  math.Abs(artifact.Weights[name]),
			Value:       features[name],
			Description: featureDescriptions[name],
		})
	}
	return explanation
}

// SaveArtifact writes the artifact under dir as a timestamped file and
// refreshes the latest pointer. Returns the timestamped path.
func SaveArtifact(artifact *Artifact, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode model artifact: %w", err)
	}

	name := fmt.Sprintf("model_%s.json", artifact.TrainedAt.UTC().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write model artifact: %w", err)
	}

	latest := filepath.Join(dir, constants.LatestModelName)
	if err := os.WriteFile(latest, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write latest model pointer: %w", err)
	}

	return path, nil
}

// LatestArtifactPath returns the canonical "latest" pointer under dir.
func LatestArtifactPath(dir string) string {
	return filepath.Join(dir, constants.LatestModelName)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
