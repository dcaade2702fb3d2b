// Package migrations embeds the per-dialect SQL migration files.
package migrations

import "embed"

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
