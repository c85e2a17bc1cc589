package clients

import (
	"context"
	"strings"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

// ClientReader is satisfied by the repository and by the client cache.
type ClientReader interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

type StatsRecomputer interface {
	Recompute(ctx context.Context, clientID string) (*domain.ClientStats, error)
}

type ClientService interface {
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	ListSales(ctx context.Context, id string) ([]*domain.SaleTransaction, error)
	RecalculateStats(ctx context.Context, id string) (*domain.Client, error)
}

type Service struct {
	clients    ClientReader
	sales      repository.SaleRepository
	aggregator StatsRecomputer
}

func NewService(clients ClientReader, sales repository.SaleRepository, aggregator StatsRecomputer) *Service {
	return &Service{
		clients:    clients,
		sales:      sales,
		aggregator: aggregator,
	}
}

func (s *Service) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewClientError(ErrClientIDRequired, apiErrors.ErrMissingRequiredData, "", "")
	}

	client, err := s.clients.GetByID(ctx, id)
	if err != nil {
		log.ForContext(ctx).WithField("client_id", id).WithError(err).Error("Failed to load client")
		return nil, databaseError(id, err)
	}
	if client == nil {
		return nil, notFound(id)
	}

	return client, nil
}

// ListSales returns the client's sales, newest first.
func (s *Service) ListSales(ctx context.Context, id string) ([]*domain.SaleTransaction, error) {
	if _, err := s.GetClient(ctx, id); err != nil {
		return nil, err
	}

	sales, err := s.sales.ListByClient(ctx, id)
	if err != nil {
		return nil, databaseError(id, err)
	}

	for i, j := 0, len(sales)-1; i < j; i, j = i+1, j-1 {
		sales[i], sales[j] = sales[j], sales[i]
	}

	return sales, nil
}

// RecalculateStats rebuilds the client's statistics and returns the fresh record.
func (s *Service) RecalculateStats(ctx context.Context, id string) (*domain.Client, error) {
	if _, err := s.GetClient(ctx, id); err != nil {
		return nil, err
	}

	if _, err := s.aggregator.Recompute(ctx, id); err != nil {
		return nil, NewClientError(ErrRecalculateStats, apiErrors.ErrDatabaseOperation, id, err.Error())
	}

	log.ForContext(ctx).WithField("client_id", id).Info("Client statistics recalculated")

	return s.GetClient(ctx, id)
}
