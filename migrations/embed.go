// Package migrations embeds the journal schema so the binary can migrate
// its database without the SQL files on disk.
package migrations

import "embed"

// FS holds every migration file.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS that contains the migration files.
const Dir = "."
