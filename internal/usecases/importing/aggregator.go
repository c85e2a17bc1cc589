package importing

import (
	"context"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/utils"
	"github.com/shopspring/decimal"
)

// ClientCacheInvalidator drops cached client views once their stats change.
type ClientCacheInvalidator interface {
	Invalidate(ctx context.Context, clientID string) error
}

type StatsAggregator interface {
	Recompute(ctx context.Context, clientID string) (*domain.ClientStats, error)
}

// ClientStatsAggregator rebuilds a client's statistics from every committed
// sale instead of adjusting counters, so a partially failed import can never
// leave them drifting.
//
// Each recompute holds the client's row lock from before the sales are read
// until the new stats commit. Concurrent recomputes of one client (an import,
// the refresh job, a manual recalculation) therefore run one after the other,
// and the last writer always saw every sale committed before it wrote.
type ClientStatsAggregator struct {
	transactions repository.TransactionManager
	policy       TierPolicy
	cache        ClientCacheInvalidator
}

func NewClientStatsAggregator(
	transactions repository.TransactionManager,
	policy TierPolicy,
	cache ClientCacheInvalidator,
) *ClientStatsAggregator {
	if policy == nil {
		policy = unchangedTierPolicy{}
	}

	return &ClientStatsAggregator{
		transactions: transactions,
		policy:       policy,
		cache:        cache,
	}
}

// Recompute persists fresh statistics for the client. Every failure comes
// back as an AggregationError.
func (a *ClientStatsAggregator) Recompute(ctx context.Context, clientID string) (*domain.ClientStats, error) {
	var stats domain.ClientStats

	err := a.transactions.Execute(ctx, func(repos repository.RepositoryFactory) error {
		found, err := repos.Clients().LockForUpdate(ctx, clientID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("client %s not found", clientID)
		}

		sales, err := repos.Sales().ListByClient(ctx, clientID)
		if err != nil {
			return err
		}

		stats = ComputeStats(sales)

		var tier *domain.VIPTier
		if assigned, ok := a.policy.Tier(stats); ok {
			tier = &assigned
		}

		return repos.Clients().UpdateStats(ctx, clientID, stats, tier)
	})
	if err != nil {
		return nil, NewAggregationError(clientID, err)
	}

	if a.cache != nil {
		if err := a.cache.Invalidate(ctx, clientID); err != nil {
			log.ForContext(ctx).WithField("client_id", clientID).WithError(err).Warn("Failed to invalidate cached client")
		}
	}

	return &stats, nil
}

// ComputeStats derives the aggregate statistics from a client's sales.
func ComputeStats(sales []*domain.SaleTransaction) domain.ClientStats {
	stats := domain.ClientStats{
		TotalSpend:      decimal.Zero,
		AveragePurchase: decimal.Zero,
	}

	for _, sale := range sales {
		stats.PurchaseCount++
		stats.TotalSpend = stats.TotalSpend.Add(sale.SalePrice)

		if stats.LastPurchaseDate == nil || sale.SaleDate.After(*stats.LastPurchaseDate) {
			last := sale.SaleDate
			stats.LastPurchaseDate = &last
		}
	}

	if stats.PurchaseCount > 0 {
		stats.AveragePurchase = utils.RoundMoney(stats.TotalSpend.Div(decimal.NewFromInt(int64(stats.PurchaseCount))))
	}

	return stats
}
