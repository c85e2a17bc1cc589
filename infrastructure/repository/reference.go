package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
)

const (
	storesTable       = "stores"
	salespersonsTable = "salespersons"
)

// ReferenceRepository reads the externally maintained attribution lists.
//
//go:generate mockgen -source=reference.go -destination=mocks/reference_mock.go -package=mocks
type ReferenceRepository interface {
	ListStoreCodes(ctx context.Context) ([]string, error)
	ListSalespersonCodes(ctx context.Context) ([]string, error)
}

type referenceRepository struct {
	db postgres.Queryer
}

func NewReferenceRepository(db postgres.Queryer) ReferenceRepository {
	return &referenceRepository{
		db: db,
	}
}

func (r *referenceRepository) ListStoreCodes(ctx context.Context) ([]string, error) {
	return r.listCodes(ctx, storesTable)
}

func (r *referenceRepository) ListSalespersonCodes(ctx context.Context) ([]string, error) {
	return r.listCodes(ctx, salespersonsTable)
}

func (r *referenceRepository) listCodes(ctx context.Context, table string) ([]string, error) {
	query, args, err := squirrel.
		Select("code").
		From(table).
		Where(squirrel.Eq{"active": true}).
		OrderBy("code ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", table, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan %s code: %w", table, err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}

	return codes, nil
}
