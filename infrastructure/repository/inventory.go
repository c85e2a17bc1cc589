package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
)

const inventoryTable = "inventory_items"

//go:generate mockgen -source=inventory.go -destination=mocks/inventory_mock.go -package=mocks
type InventoryRepository interface {
	GetBySerial(ctx context.Context, serial string) (*domain.InventoryItem, error)
	UpdateStatusIfCurrent(ctx context.Context, serial string, from, to domain.InventoryStatus) (bool, error)
}

type inventoryRepository struct {
	db postgres.Queryer
}

func NewInventoryRepository(db postgres.Queryer) InventoryRepository {
	return &inventoryRepository{
		db: db,
	}
}

func (r *inventoryRepository) GetBySerial(ctx context.Context, serial string) (*domain.InventoryItem, error) {
	query, args, err := squirrel.
		Select(
			"id",
			"serial_number",
			"brand",
			"name",
			"category",
			"status",
			"selling_price",
			"cost_price",
			"received_date",
			"created_at",
			"updated_at",
		).
		From(inventoryTable).
		Where(squirrel.Eq{"serial_number": serial}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory query: %w", err)
	}

	item := &domain.InventoryItem{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID,
		&item.SerialNumber,
		&item.Brand,
		&item.Name,
		&item.Category,
		&item.Status,
		&item.SellingPrice,
		&item.CostPrice,
		&item.ReceivedDate,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan inventory item: %w", err)
	}

	return item, nil
}

// UpdateStatusIfCurrent moves the item to `to` only while it still holds
// `from`. It reports false when no row matched, so the check and the write
// happen in one statement.
func (r *inventoryRepository) UpdateStatusIfCurrent(ctx context.Context, serial string, from, to domain.InventoryStatus) (bool, error) {
	query, args, err := conditionalStatusUpdateQuery(serial, from, to).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build inventory status update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update inventory status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

func conditionalStatusUpdateQuery(serial string, from, to domain.InventoryStatus) squirrel.UpdateBuilder {
	return squirrel.
		Update(inventoryTable).
		Set("status", to).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"serial_number": serial, "status": from}).
		PlaceholderFormat(squirrel.Dollar)
}
