// Package migrations embeds the SQL migration files applied to a freshly
// opened sqlstore database.
package migrations

import "embed"

// FS holds the embedded *.up.sql / *.down.sql migration files, served to
// golang-migrate through an iofs source driver.
//
//go:embed *.sql
var FS embed.FS
