// Package db carries the embedded schema migrations applied by cmd/migrate.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
