package repository

import (
	"context"
	"database/sql"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
)

// RepositoryFactory hands out repositories bound to one Queryer, which is a
// transaction when obtained through TransactionManager.Execute.
//
//go:generate mockgen -source=transaction.go -destination=mocks/transaction_mock.go -package=mocks
type RepositoryFactory interface {
	Clients() ClientRepository
	Inventory() InventoryRepository
	Sales() SaleRepository
	StatusChanges() StatusChangeRepository
}

type TransactionManager interface {
	Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error
}

type repositoryFactory struct {
	db postgres.Queryer
}

func NewRepositoryFactory(db postgres.Queryer) RepositoryFactory {
	return &repositoryFactory{db: db}
}

func (f *repositoryFactory) Clients() ClientRepository {
	return NewClientRepository(f.db)
}

func (f *repositoryFactory) Inventory() InventoryRepository {
	return NewInventoryRepository(f.db)
}

func (f *repositoryFactory) Sales() SaleRepository {
	return NewSaleRepository(f.db)
}

func (f *repositoryFactory) StatusChanges() StatusChangeRepository {
	return NewStatusChangeRepository(f.db)
}

type transactionManager struct {
	conn postgres.Conn
}

func NewTransactionManager(conn postgres.Conn) TransactionManager {
	return &transactionManager{conn: conn}
}

// Execute runs fn with repositories bound to a single transaction. Returning
// an error from fn rolls back every write it made.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repos RepositoryFactory) error) error {
	return tm.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		return fn(NewRepositoryFactory(tx))
	})
}
