// Package migrations embeds the goose migrations for the client's local
// SQLite state database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
