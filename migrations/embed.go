// Package migrations embeds the SQL that prepares a hosted backend project
// for the storefront: tables, row level security and the admin lookup
// function. adminctl schema prints it for operators.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
)

//go:embed *.sql
var FS embed.FS

// Files returns the migration file names in apply order.
func Files() ([]string, error) {
	names, err := fs.Glob(FS, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
