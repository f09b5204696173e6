// Package migrations embeds the client state database schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
