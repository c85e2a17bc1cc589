package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/google/uuid"
)

const (
	salesTable = "sale_transactions"

	saleDuplicateKeyConstraint = "sale_transactions_client_serial_date_key"
)

var ErrDuplicateSale = errors.New("sale already recorded for client, serial and date")

var saleColumns = []string{
	"id",
	"client_id",
	"item_id",
	"serial_number",
	"sale_price",
	"sale_date",
	"store_code",
	"salesperson_code",
	"created_at",
}

//go:generate mockgen -source=sale.go -destination=mocks/sale_mock.go -package=mocks
type SaleRepository interface {
	FindByKey(ctx context.Context, clientID, serial string, saleDate time.Time) (*domain.SaleTransaction, error)
	Create(ctx context.Context, sale *domain.SaleTransaction) error
	ListByClient(ctx context.Context, clientID string) ([]*domain.SaleTransaction, error)
}

type saleRepository struct {
	db postgres.Queryer
}

func NewSaleRepository(db postgres.Queryer) SaleRepository {
	return &saleRepository{
		db: db,
	}
}

// FindByKey looks up the sale sharing the (client, serial, date) duplicate key.
func (r *saleRepository) FindByKey(ctx context.Context, clientID, serial string, saleDate time.Time) (*domain.SaleTransaction, error) {
	query, args, err := findSaleByKeyQuery(clientID, serial, saleDate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sale key query: %w", err)
	}

	sale := &domain.SaleTransaction{}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(saleScanTargets(sale)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan sale: %w", err)
	}

	return sale, nil
}

func (r *saleRepository) Create(ctx context.Context, sale *domain.SaleTransaction) error {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	sale.SaleDate = domain.SaleDay(sale.SaleDate)
	sale.CreatedAt = time.Now()

	query, args, err := squirrel.
		Insert(salesTable).
		Columns(saleColumns...).
		Values(
			sale.ID,
			sale.ClientID,
			sale.ItemID,
			sale.SerialNumber,
			sale.SalePrice,
			sale.SaleDate,
			sale.StoreCode,
			sale.SalespersonCode,
			sale.CreatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sale insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, saleDuplicateKeyConstraint) {
			return ErrDuplicateSale
		}
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	return nil
}

func (r *saleRepository) ListByClient(ctx context.Context, clientID string) ([]*domain.SaleTransaction, error) {
	query, args, err := squirrel.
		Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"client_id": clientID}).
		OrderBy("sale_date ASC", "created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build client sales query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query client sales: %w", err)
	}
	defer rows.Close()

	sales := make([]*domain.SaleTransaction, 0)
	for rows.Next() {
		sale := &domain.SaleTransaction{}
		if err := rows.Scan(saleScanTargets(sale)...); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client sales: %w", err)
	}

	return sales, nil
}

func findSaleByKeyQuery(clientID, serial string, saleDate time.Time) squirrel.SelectBuilder {
	return squirrel.
		Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{
			"client_id":     clientID,
			"serial_number": serial,
			"sale_date":     domain.SaleDay(saleDate),
		}).
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
}

func saleScanTargets(sale *domain.SaleTransaction) []interface{} {
	return []interface{}{
		&sale.ID,
		&sale.ClientID,
		&sale.ItemID,
		&sale.SerialNumber,
		&sale.SalePrice,
		&sale.SaleDate,
		&sale.StoreCode,
		&sale.SalespersonCode,
		&sale.CreatedAt,
	}
}
