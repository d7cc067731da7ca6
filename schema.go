package bakery

import (
	"context"
	"io/fs"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const migrationsDir = "data/sql/migrations"

// CreateSchema applies the embedded DDL files in lexical order. Every
// statement is idempotent so running it on an existing database is safe.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read schema files")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		raw, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read schema file").
				WithMetadata(map[string]any{"file": name})
		}

		for _, stmt := range splitStatements(string(raw)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply schema statement").
					WithMetadata(map[string]any{"file": name})
			}
		}
	}

	return nil
}

func splitStatements(blob string) []string {
	var out []string
	for _, stmt := range strings.Split(blob, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
