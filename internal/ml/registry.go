package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
)

// RegistryEntry records one trained artifact.
type RegistryEntry struct {
	Path      string             `json:"path"`
	TrainedAt time.Time          `json:"trained_at"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Registry is the on-disk history of trained models. The newest entry
// is the one the latest pointer refers to.
type Registry struct {
	dir     string
	Entries []RegistryEntry `json:"entries"`
}

// OpenRegistry loads the registry under dir, or starts an empty one if
// none exists yet.
func OpenRegistry(dir string) (*Registry, error) {
	reg := &Registry{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, constants.RegistryName))
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("failed to read model registry: %w", err)
	}
	if err := json.Unmarshal(data, reg); err != nil {
		return nil, fmt.Errorf("failed to decode model registry: %w", err)
	}
	reg.dir = dir
	return reg, nil
}

// Register appends an artifact to the history and persists the registry.
func (r *Registry) Register(path string, artifact *Artifact) error {
	r.Entries = append(r.Entries, RegistryEntry{
		Path:      path,
		TrainedAt: artifact.TrainedAt,
		Metrics:   artifact.Metrics,
	})
	return r.save()
}

// Latest returns the most recently registered entry.
func (r *Registry) Latest() (RegistryEntry, bool) {
	if len(r.Entries) == 0 {
		return RegistryEntry{}, false
	}
	return r.Entries[len(r.Entries)-1], true
}

func (r *Registry) save() error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model registry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.dir, constants.RegistryName), data, 0644); err != nil {
		return fmt.Errorf("failed to write model registry: %w", err)
	}
	return nil
}
