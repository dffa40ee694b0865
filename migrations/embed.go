// Package migrations embeds the SQLite schema so local stores need no files on disk.
package migrations

import "embed"

// SQLite holds the sqlite/*.sql migration files
//
//go:embed sqlite/*.sql
var SQLite embed.FS
