// Package repository contains the postgres implementations of the data access layer
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/google/uuid"
)

const (
	clientsTable = "clients"

	clientCustomerCodeConstraint = "clients_customer_code_key"
)

var ErrCustomerCodeTaken = errors.New("customer code already in use")

var clientColumns = []string{
	"id",
	"customer_code",
	"name",
	"email",
	"phone",
	"address",
	"vip_tier",
	"purchase_count",
	"total_spend",
	"average_purchase",
	"last_purchase_date",
	"created_at",
	"updated_at",
}

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks
type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	FindByCustomerCode(ctx context.Context, code string) (*domain.Client, error)
	FindByEmail(ctx context.Context, email string) (*domain.Client, error)
	FindByName(ctx context.Context, name string) (*domain.Client, error)
	Create(ctx context.Context, client *domain.Client) error
	UpdateStats(ctx context.Context, clientID string, stats domain.ClientStats, tier *domain.VIPTier) error
	LockForUpdate(ctx context.Context, clientID string) (bool, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type clientRepository struct {
	db postgres.Queryer
}

func NewClientRepository(db postgres.Queryer) ClientRepository {
	return &clientRepository{
		db: db,
	}
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.findOne(ctx, squirrel.Eq{"id": id})
}

func (r *clientRepository) FindByCustomerCode(ctx context.Context, code string) (*domain.Client, error) {
	return r.findOne(ctx, squirrel.Eq{"customer_code": code})
}

// FindByEmail matches case-insensitively; emails are stored lowercased.
func (r *clientRepository) FindByEmail(ctx context.Context, email string) (*domain.Client, error) {
	return r.findOne(ctx, squirrel.Expr("LOWER(email) = ?", strings.ToLower(email)))
}

// FindByName returns the oldest client whose full name matches case-insensitively.
func (r *clientRepository) FindByName(ctx context.Context, name string) (*domain.Client, error) {
	return r.findOne(ctx, squirrel.Expr("LOWER(name) = LOWER(?)", name))
}

func (r *clientRepository) findOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Client, error) {
	query, args, err := selectClientQuery(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build client query: %w", err)
	}

	client, err := scanClient(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}

	return client, nil
}

func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.VIPTier == "" {
		client.VIPTier = domain.VIPTierRegular
	}
	now := time.Now()
	client.CreatedAt = now
	client.UpdatedAt = now

	query, args, err := insertClientQuery(client).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build client insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if postgres.IsUniqueViolation(err, clientCustomerCodeConstraint) {
			return fmt.Errorf("%w: %s", ErrCustomerCodeTaken, client.CustomerCode)
		}
		return fmt.Errorf("failed to insert client: %w", err)
	}

	return nil
}

// UpdateStats overwrites the derived statistics in a single statement. A nil
// tier leaves the stored tier untouched.
func (r *clientRepository) UpdateStats(ctx context.Context, clientID string, stats domain.ClientStats, tier *domain.VIPTier) error {
	query, args, err := updateClientStatsQuery(clientID, stats, tier).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build client stats update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update client stats: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("client %s not found", clientID)
	}

	return nil
}

func (r *clientRepository) ListIDs(ctx context.Context) ([]string, error) {
	query, args, err := squirrel.
		Select("id").
		From(clientsTable).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build client id query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list client ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan client id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client ids: %w", err)
	}

	return ids, nil
}

// LockForUpdate takes the client's row lock until the surrounding transaction
// ends. It reports false when the client does not exist.
func (r *clientRepository) LockForUpdate(ctx context.Context, clientID string) (bool, error) {
	query, args, err := lockClientQuery(clientID).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build client lock query: %w", err)
	}

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock client: %w", err)
	}

	return true, nil
}

func lockClientQuery(clientID string) squirrel.SelectBuilder {
	return squirrel.
		Select("id").
		From(clientsTable).
		Where(squirrel.Eq{"id": clientID}).
		Suffix("FOR NO KEY UPDATE").
		PlaceholderFormat(squirrel.Dollar)
}

func selectClientQuery(where squirrel.Sqlizer) squirrel.SelectBuilder {
	return squirrel.
		Select(clientColumns...).
		From(clientsTable).
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)
}

func insertClientQuery(client *domain.Client) squirrel.InsertBuilder {
	return squirrel.
		Insert(clientsTable).
		Columns(clientColumns...).
		Values(
			client.ID,
			client.CustomerCode,
			client.Name,
			client.Email,
			client.Phone,
			client.Address,
			client.VIPTier,
			client.Stats.PurchaseCount,
			client.Stats.TotalSpend,
			client.Stats.AveragePurchase,
			client.Stats.LastPurchaseDate,
			client.CreatedAt,
			client.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar)
}

func updateClientStatsQuery(clientID string, stats domain.ClientStats, tier *domain.VIPTier) squirrel.UpdateBuilder {
	builder := squirrel.
		Update(clientsTable).
		Set("purchase_count", stats.PurchaseCount).
		Set("total_spend", stats.TotalSpend).
		Set("average_purchase", stats.AveragePurchase).
		Set("last_purchase_date", stats.LastPurchaseDate).
		Set("updated_at", squirrel.Expr("NOW()"))

	if tier != nil {
		builder = builder.Set("vip_tier", *tier)
	}

	return builder.
		Where(squirrel.Eq{"id": clientID}).
		PlaceholderFormat(squirrel.Dollar)
}

func scanClient(row *sql.Row) (*domain.Client, error) {
	client := &domain.Client{}

	err := row.Scan(
		&client.ID,
		&client.CustomerCode,
		&client.Name,
		&client.Email,
		&client.Phone,
		&client.Address,
		&client.VIPTier,
		&client.Stats.PurchaseCount,
		&client.Stats.TotalSpend,
		&client.Stats.AveragePurchase,
		&client.Stats.LastPurchaseDate,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return client, nil
}
