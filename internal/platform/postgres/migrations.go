package postgres

import "embed"

// Migrations holds the goose SQL migrations for every table this package
// reads and writes.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that goose should read.
const MigrationsDir = "migrations"
