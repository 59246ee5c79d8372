// Package migrations embeds the versioned PostgreSQL schema so the API binary
// and cmd/migrate carry it without a migrations directory on disk.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql pairs in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
