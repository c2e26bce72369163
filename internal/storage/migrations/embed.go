// Package migrations applies the embedded SQL schema for runs and series.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed postgres/*.sql
var PostgresFS embed.FS

//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// migration is one embedded SQL file. Version is the file name.
type migration struct {
	Version string
	SQL     string
}

// load reads every .sql file under dir, ordered by name (001_, 002_, ...).
func load(fsys fs.FS, dir string) ([]migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{Version: path.Base(name), SQL: string(data)})
	}
	return out, nil
}
