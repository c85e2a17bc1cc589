package migration

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schema string

// ReferenceCode is one store or salesperson row.
type ReferenceCode struct {
	Code string
	Name string
}

// Apply creates every table the reconciliation engine needs. The statements
// are idempotent so it can run on each deploy.
func Apply(ctx context.Context, db *sql.DB) error {
	startTime := time.Now()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logrus.WithField("elapsed", time.Since(startTime).String()).Info("Schema applied")
	return nil
}

// SeedStores upserts store codes, reactivating any that were disabled.
func SeedStores(ctx context.Context, db *sql.DB, codes []ReferenceCode) (int, error) {
	return seed(ctx, db, "stores", codes)
}

func SeedSalespersons(ctx context.Context, db *sql.DB, codes []ReferenceCode) (int, error) {
	return seed(ctx, db, "salespersons", codes)
}

func seed(ctx context.Context, db *sql.DB, table string, codes []ReferenceCode) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	builder := squirrel.
		Insert(table).
		Columns("code", "name", "active").
		PlaceholderFormat(squirrel.Dollar)
	for _, c := range codes {
		builder = builder.Values(c.Code, c.Name, true)
	}

	query, args, err := builder.
		Suffix("ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, active = TRUE").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s seed query: %w", table, err)
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to seed %s: %w", table, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s seed result: %w", table, err)
	}

	logrus.WithFields(logrus.Fields{
		"table": table,
		"rows":  affected,
	}).Info("Reference codes seeded")

	return int(affected), nil
}

// ParseReferenceCodes reads "CODE:Name,CODE2:Name 2". A code without a name
// uses the code as its name.
func ParseReferenceCodes(raw string) ([]ReferenceCode, error) {
	codes := make([]ReferenceCode, 0)
	seen := make(map[string]struct{})

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		code, name, _ := strings.Cut(part, ":")
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if code == "" {
			return nil, fmt.Errorf("empty code in %q", part)
		}
		if name == "" {
			name = code
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("code %q listed twice", code)
		}
		seen[code] = struct{}{}

		codes = append(codes, ReferenceCode{Code: code, Name: name})
	}

	return codes, nil
}
