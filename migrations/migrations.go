// Package migrations embeds the SQL schema for every supported database.
package migrations

import "embed"

// SqliteMigrations holds the SQLite schema, applied in file-name order.
//
//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

// PostgresMigrations holds the PostgreSQL schema, applied in file-name order.
//
//go:embed postgres/*.sql
var PostgresMigrations embed.FS
