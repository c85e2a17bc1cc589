package importing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository/mocks"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeInvalidator struct {
	invalidated []string
	err         error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, clientID string) error {
	f.invalidated = append(f.invalidated, clientID)
	return f.err
}

func sale(price string, date time.Time) *domain.SaleTransaction {
	return &domain.SaleTransaction{SalePrice: decimal.RequireFromString(price), SaleDate: date}
}

func TestComputeStats(t *testing.T) {
	jan := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("no sales", func(t *testing.T) {
		stats := ComputeStats(nil)

		assert.Zero(t, stats.PurchaseCount)
		assert.True(t, stats.TotalSpend.IsZero())
		assert.True(t, stats.AveragePurchase.IsZero())
		assert.Nil(t, stats.LastPurchaseDate)
	})

	t.Run("average is rounded to cents and last date is the latest", func(t *testing.T) {
		stats := ComputeStats([]*domain.SaleTransaction{
			sale("100.00", mar),
			sale("50.00", jan),
			sale("0.01", jan),
		})

		assert.Equal(t, 3, stats.PurchaseCount)
		assert.Equal(t, "150.01", stats.TotalSpend.StringFixed(2))
		assert.Equal(t, "50.00", stats.AveragePurchase.StringFixed(2))
		require.NotNil(t, stats.LastPurchaseDate)
		assert.Equal(t, mar, *stats.LastPurchaseDate)
	})
}

func TestClientStatsAggregator_Recompute(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		policy   TierPolicy
		cacheErr error
		setup    func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository)
		validate func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator)
	}{
		{
			name: "persists stats without touching the tier",
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				gomock.InOrder(
					clients.EXPECT().LockForUpdate(ctx, "client-1").Return(true, nil),
					sales.EXPECT().ListByClient(ctx, "client-1").Return([]*domain.SaleTransaction{sale("45000", day)}, nil),
					clients.EXPECT().
						UpdateStats(ctx, "client-1", gomock.Any(), (*domain.VIPTier)(nil)).
						DoAndReturn(func(_ context.Context, _ string, stats domain.ClientStats, _ *domain.VIPTier) error {
							assert.Equal(t, 1, stats.PurchaseCount)
							assert.True(t, decimal.NewFromInt(45000).Equal(stats.TotalSpend))
							return nil
						}),
				)
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				require.NoError(t, err)
				assert.Equal(t, 1, stats.PurchaseCount)
				assert.Equal(t, []string{"client-1"}, cache.invalidated)
			},
		},
		{
			name:   "threshold policy assigns a tier",
			policy: ThresholdTierPolicy{VIP: decimal.NewFromInt(10000), Premium: decimal.NewFromInt(40000)},
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(true, nil)
				sales.EXPECT().ListByClient(ctx, "client-1").Return([]*domain.SaleTransaction{sale("45000", day)}, nil)
				clients.EXPECT().
					UpdateStats(ctx, "client-1", gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, _ domain.ClientStats, tier *domain.VIPTier) error {
						require.NotNil(t, tier)
						assert.Equal(t, domain.VIPTierPremium, *tier)
						return nil
					})
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.NoError(t, err)
			},
		},
		{
			name:     "cache failure does not fail the recompute",
			cacheErr: errors.New("redis down"),
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(true, nil)
				sales.EXPECT().ListByClient(ctx, "client-1").Return(nil, nil)
				clients.EXPECT().UpdateStats(ctx, "client-1", gomock.Any(), gomock.Any()).Return(nil)
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.NoError(t, err)
				assert.Zero(t, stats.PurchaseCount)
				assert.Len(t, cache.invalidated, 1)
			},
		},
		{
			name: "missing client is an aggregation error",
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(false, nil)
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.ErrorIs(t, err, ErrStatsRecompute)
				assert.ErrorContains(t, err, "client-1 not found")
				assert.Nil(t, stats)
				assert.Empty(t, cache.invalidated)
			},
		},
		{
			name: "lock failure is an aggregation error",
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(false, errors.New("lock timeout"))
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.Equal(t, KindAggregation, KindOf(err))
				assert.ErrorContains(t, err, "lock timeout")
			},
		},
		{
			name: "list failure is an aggregation error",
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(true, nil)
				sales.EXPECT().ListByClient(ctx, "client-1").Return(nil, errors.New("timeout"))
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.ErrorIs(t, err, ErrStatsRecompute)
				assert.Equal(t, KindAggregation, KindOf(err))
				assert.ErrorContains(t, err, "timeout")
				assert.Nil(t, stats)
				assert.Empty(t, cache.invalidated)
			},
		},
		{
			name: "update failure is an aggregation error",
			setup: func(clients *mocks.MockClientRepository, sales *mocks.MockSaleRepository) {
				clients.EXPECT().LockForUpdate(ctx, "client-1").Return(true, nil)
				sales.EXPECT().ListByClient(ctx, "client-1").Return(nil, nil)
				clients.EXPECT().UpdateStats(ctx, "client-1", gomock.Any(), gomock.Any()).Return(errors.New("deadlock"))
			},
			validate: func(t *testing.T, stats *domain.ClientStats, err error, cache *fakeInvalidator) {
				assert.Equal(t, KindAggregation, KindOf(err))
				assert.Empty(t, cache.invalidated)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			clients := mocks.NewMockClientRepository(ctrl)
			sales := mocks.NewMockSaleRepository(ctrl)
			repos := mocks.NewMockRepositoryFactory(ctrl)
			repos.EXPECT().Clients().Return(clients).AnyTimes()
			repos.EXPECT().Sales().Return(sales).AnyTimes()

			transactions := mocks.NewMockTransactionManager(ctrl)
			transactions.EXPECT().
				Execute(ctx, gomock.Any()).
				DoAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
					return fn(repos)
				})

			cache := &fakeInvalidator{err: tt.cacheErr}
			tt.setup(clients, sales)

			aggregator := NewClientStatsAggregator(transactions, tt.policy, cache)
			stats, err := aggregator.Recompute(ctx, "client-1")
			tt.validate(t, stats, err, cache)
		})
	}
}

// lockingStore keeps row locks until the transaction that took them ends and
// lets every read see the sales committed so far.
type lockingStore struct {
	mu           sync.Mutex
	locks        map[string]*sync.Mutex
	sales        []domain.SaleTransaction
	stats        map[string]domain.ClientStats
	onList       func()
	lockAttempts atomic.Int32
}

func newLockingStore(sales ...domain.SaleTransaction) *lockingStore {
	return &lockingStore{
		locks: make(map[string]*sync.Mutex),
		sales: sales,
		stats: make(map[string]domain.ClientStats),
	}
}

func (s *lockingStore) Execute(_ context.Context, fn func(repos repository.RepositoryFactory) error) error {
	tx := &lockingTx{store: s}
	defer func() {
		for _, lock := range tx.held {
			lock.Unlock()
		}
	}()
	return fn(tx)
}

func (s *lockingStore) commitSale(sale domain.SaleTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
}

func (s *lockingStore) storedStats(clientID string) domain.ClientStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[clientID]
}

type lockingTx struct {
	store *lockingStore
	held  []*sync.Mutex
}

func (tx *lockingTx) Clients() repository.ClientRepository           { return lockingClients{tx: tx} }
func (tx *lockingTx) Sales() repository.SaleRepository               { return lockingSales{tx: tx} }
func (tx *lockingTx) Inventory() repository.InventoryRepository      { return nil }
func (tx *lockingTx) StatusChanges() repository.StatusChangeRepository { return nil }

type lockingClients struct {
	repository.ClientRepository
	tx *lockingTx
}

func (c lockingClients) LockForUpdate(_ context.Context, clientID string) (bool, error) {
	s := c.tx.store
	s.lockAttempts.Add(1)

	s.mu.Lock()
	lock, ok := s.locks[clientID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[clientID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	c.tx.held = append(c.tx.held, lock)
	return true, nil
}

func (c lockingClients) UpdateStats(_ context.Context, clientID string, stats domain.ClientStats, _ *domain.VIPTier) error {
	s := c.tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[clientID] = stats
	return nil
}

type lockingSales struct {
	repository.SaleRepository
	tx *lockingTx
}

func (r lockingSales) ListByClient(_ context.Context, clientID string) ([]*domain.SaleTransaction, error) {
	s := r.tx.store

	s.mu.Lock()
	out := make([]*domain.SaleTransaction, 0)
	for _, committed := range s.sales {
		if committed.ClientID == clientID {
			sale := committed
			out = append(out, &sale)
		}
	}
	hook := s.onList
	s.onList = nil
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func TestClientStatsAggregator_ConcurrentRecomputeKeepsLatestSales(t *testing.T) {
	ctx := context.Background()
	first := time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC)

	store := newLockingStore(domain.SaleTransaction{
		ID: "sale-1", ClientID: "C1", SerialNumber: "10", SalePrice: decimal.NewFromInt(1000), SaleDate: first,
	})

	snapshotTaken := make(chan struct{})
	release := make(chan struct{})
	store.onList = func() {
		close(snapshotTaken)
		<-release
	}

	aggregator := NewClientStatsAggregator(store, nil, nil)

	refreshDone := make(chan error, 1)
	go func() {
		_, err := aggregator.Recompute(ctx, "C1")
		refreshDone <- err
	}()
	<-snapshotTaken

	// An import commits a second sale while the refresh still holds its
	// one-sale view, then recomputes.
	store.commitSale(domain.SaleTransaction{
		ID: "sale-2", ClientID: "C1", SerialNumber: "11", SalePrice: decimal.NewFromInt(1000), SaleDate: first.AddDate(0, 0, 1),
	})

	type result struct {
		stats *domain.ClientStats
		err   error
	}
	importDone := make(chan result, 1)
	go func() {
		stats, err := aggregator.Recompute(ctx, "C1")
		importDone <- result{stats: stats, err: err}
	}()

	require.Eventually(t, func() bool { return store.lockAttempts.Load() == 2 }, time.Second, time.Millisecond)
	close(release)

	require.NoError(t, <-refreshDone)
	imported := <-importDone
	require.NoError(t, imported.err)
	assert.Equal(t, 2, imported.stats.PurchaseCount)

	stored := store.storedStats("C1")
	assert.Equal(t, 2, stored.PurchaseCount)
	assert.Equal(t, "2000.00", stored.TotalSpend.StringFixed(2))
	require.NotNil(t, stored.LastPurchaseDate)
	assert.Equal(t, first.AddDate(0, 0, 1), *stored.LastPurchaseDate)
}

func TestNewTierPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.VIPPolicy
		spend   int64
		want    domain.VIPTier
		wantOK  bool
		wantErr bool
	}{
		{name: "disabled keeps the stored tier", cfg: config.VIPPolicy{}, spend: 1000000, wantOK: false},
		{name: "below vip", cfg: config.VIPPolicy{Enabled: true, VIPThreshold: "10000", PremiumThreshold: "50000"}, spend: 9999, want: domain.VIPTierRegular, wantOK: true},
		{name: "at vip", cfg: config.VIPPolicy{Enabled: true, VIPThreshold: "10000", PremiumThreshold: "50000"}, spend: 10000, want: domain.VIPTierVIP, wantOK: true},
		{name: "premium", cfg: config.VIPPolicy{Enabled: true, VIPThreshold: "10000", PremiumThreshold: "50000"}, spend: 75000, want: domain.VIPTierPremium, wantOK: true},
		{name: "unparseable threshold", cfg: config.VIPPolicy{Enabled: true, VIPThreshold: "ten", PremiumThreshold: "50000"}, wantErr: true},
		{name: "premium below vip", cfg: config.VIPPolicy{Enabled: true, VIPThreshold: "50000", PremiumThreshold: "10000"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewTierPolicy(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			tier, ok := policy.Tier(domain.ClientStats{TotalSpend: decimal.NewFromInt(tt.spend)})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, tier)
		})
	}
}
