// Package migrations embeds the SQL schema migrations for the auth server.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
