package migrations

import "embed"

// Files exposes embedded SQL migration files, one subdirectory per driver,
// ordered lexicographically within each.
//
//go:embed postgres/*.sql sqlite/*.sql
var Files embed.FS
