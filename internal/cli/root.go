// Package cli holds the kong command implementations.
package cli

import (
	"github.com/julianstephens/habitcoach/internal/config"
	"github.com/julianstephens/habitcoach/internal/ml"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// Context carries the shared dependencies into each command.
type Context struct {
	Config *config.Config
	Store  storage.Provider
	Model  *ml.Model
}
