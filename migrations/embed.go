package migrations

import "embed"

// FS holds one directory of migrations per sql driver.
//
//go:embed postgres/*.sql sqlite3/*.sql
var FS embed.FS
