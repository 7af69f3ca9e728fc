// Package migrations registers the versioned schema of the results database.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
