// Package db provides the embedded database schema and the default tile catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Tiles is the default catalog document served when no database is configured.
//
//go:embed seed/tiles.json
var Tiles []byte
