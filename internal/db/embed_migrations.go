package db

import "embed"

// MigrationFS embeds the schema migrations under internal/db/migrations so
// cmd/migrate ships without loose SQL files.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
