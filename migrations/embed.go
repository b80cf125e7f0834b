// Package migrations embeds the schema migration files. The database pool
// applies them in lexical order on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
