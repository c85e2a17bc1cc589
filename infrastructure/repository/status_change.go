package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/google/uuid"
)

const statusChangesTable = "inventory_status_changes"

//go:generate mockgen -source=status_change.go -destination=mocks/status_change_mock.go -package=mocks
type StatusChangeRepository interface {
	Append(ctx context.Context, record *domain.StatusChangeRecord) error
	ListByItem(ctx context.Context, itemID string) ([]*domain.StatusChangeRecord, error)
}

type statusChangeRepository struct {
	db postgres.Queryer
}

func NewStatusChangeRepository(db postgres.Queryer) StatusChangeRepository {
	return &statusChangeRepository{
		db: db,
	}
}

func (r *statusChangeRepository) Append(ctx context.Context, record *domain.StatusChangeRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.ChangedAt.IsZero() {
		record.ChangedAt = time.Now()
	}

	query, args, err := squirrel.
		Insert(statusChangesTable).
		Columns("id", "item_id", "old_status", "new_status", "changed_at", "actor").
		Values(record.ID, record.ItemID, record.OldStatus, record.NewStatus, record.ChangedAt, record.Actor).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status change insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append status change: %w", err)
	}

	return nil
}

func (r *statusChangeRepository) ListByItem(ctx context.Context, itemID string) ([]*domain.StatusChangeRecord, error) {
	query, args, err := squirrel.
		Select("id", "item_id", "old_status", "new_status", "changed_at", "actor").
		From(statusChangesTable).
		Where(squirrel.Eq{"item_id": itemID}).
		OrderBy("changed_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status change query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status changes: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.StatusChangeRecord, 0)
	for rows.Next() {
		record := &domain.StatusChangeRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.ItemID,
			&record.OldStatus,
			&record.NewStatus,
			&record.ChangedAt,
			&record.Actor,
		); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status changes: %w", err)
	}

	return records, nil
}
