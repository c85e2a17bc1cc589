package importing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for postgres. Execute works on a copy of
// the committed state and only publishes it when fn succeeds, which mirrors
// transaction rollback.
type memStore struct {
	state *memState

	stores       []string
	salespersons []string

	failStatsUpdate error
	failSaleInsert  error
	statsUpdates    int
}

type memState struct {
	seq     int
	clients []domain.Client
	items   map[string]domain.InventoryItem
	sales   []domain.SaleTransaction
	changes []domain.StatusChangeRecord
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			items: make(map[string]domain.InventoryItem),
		},
		stores:       []string{"001", "002"},
		salespersons: []string{"AP", "JM"},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:     s.seq,
		clients: append([]domain.Client(nil), s.clients...),
		items:   make(map[string]domain.InventoryItem, len(s.items)),
		sales:   append([]domain.SaleTransaction(nil), s.sales...),
		changes: append([]domain.StatusChangeRecord(nil), s.changes...),
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	return c
}

func (s *memState) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (m *memStore) addItem(serial string, status domain.InventoryStatus) {
	m.state.items[serial] = domain.InventoryItem{
		ID:           "item-" + serial,
		SerialNumber: serial,
		Brand:        "Rolex",
		Name:         "Submariner",
		Category:     "watch",
		Status:       status,
	}
}

func (m *memStore) addClient(client domain.Client) {
	client.CreatedAt = time.Now().Add(time.Duration(len(m.state.clients)) * time.Second)
	m.state.clients = append(m.state.clients, client)
}

func (m *memStore) client(code string) *domain.Client {
	for _, c := range m.state.clients {
		if c.CustomerCode == code {
			client := c
			return &client
		}
	}
	return nil
}

func (m *memStore) changesFor(itemID string) []domain.StatusChangeRecord {
	out := make([]domain.StatusChangeRecord, 0)
	for _, c := range m.state.changes {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out
}

func (m *memStore) Execute(ctx context.Context, fn func(repos repository.RepositoryFactory) error) error {
	work := m.state.clone()
	if err := fn(&memFactory{store: m, tx: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) ListStoreCodes(context.Context) ([]string, error) {
	return m.stores, nil
}

func (m *memStore) ListSalespersonCodes(context.Context) ([]string, error) {
	return m.salespersons, nil
}

type memFactory struct {
	store *memStore
	tx    *memState
}

func (f *memFactory) st() *memState {
	if f.tx != nil {
		return f.tx
	}
	return f.store.state
}

func (f *memFactory) Clients() repository.ClientRepository           { return memClients{f} }
func (f *memFactory) Inventory() repository.InventoryRepository      { return memInventory{f} }
func (f *memFactory) Sales() repository.SaleRepository               { return memSales{f} }
func (f *memFactory) StatusChanges() repository.StatusChangeRepository { return memChanges{f} }

type memClients struct{ f *memFactory }

func (r memClients) find(match func(domain.Client) bool) *domain.Client {
	var found *domain.Client
	for _, c := range r.f.st().clients {
		if !match(c) {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			client := c
			found = &client
		}
	}
	return found
}

func (r memClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	return r.find(func(c domain.Client) bool { return c.ID == id }), nil
}

func (r memClients) FindByCustomerCode(_ context.Context, code string) (*domain.Client, error) {
	return r.find(func(c domain.Client) bool { return c.CustomerCode == code }), nil
}

func (r memClients) FindByEmail(_ context.Context, email string) (*domain.Client, error) {
	return r.find(func(c domain.Client) bool {
		return c.Email != nil && strings.EqualFold(*c.Email, email)
	}), nil
}

func (r memClients) FindByName(_ context.Context, name string) (*domain.Client, error) {
	return r.find(func(c domain.Client) bool { return strings.EqualFold(c.Name, name) }), nil
}

func (r memClients) Create(_ context.Context, client *domain.Client) error {
	st := r.f.st()
	for _, c := range st.clients {
		if c.CustomerCode == client.CustomerCode {
			return fmt.Errorf("%w: %s", repository.ErrCustomerCodeTaken, client.CustomerCode)
		}
	}
	client.ID = st.nextID("client")
	client.CreatedAt = time.Now()
	client.Stats.TotalSpend = decimal.Zero
	client.Stats.AveragePurchase = decimal.Zero
	st.clients = append(st.clients, *client)
	return nil
}

func (r memClients) UpdateStats(_ context.Context, clientID string, stats domain.ClientStats, tier *domain.VIPTier) error {
	r.f.store.statsUpdates++
	if r.f.store.failStatsUpdate != nil {
		return r.f.store.failStatsUpdate
	}
	st := r.f.st()
	for i := range st.clients {
		if st.clients[i].ID == clientID {
			st.clients[i].Stats = stats
			if tier != nil {
				st.clients[i].VIPTier = *tier
			}
			return nil
		}
	}
	return fmt.Errorf("client %s not found", clientID)
}

func (r memClients) LockForUpdate(ctx context.Context, clientID string) (bool, error) {
	client, err := r.GetByID(ctx, clientID)
	return client != nil, err
}

func (r memClients) ListIDs(context.Context) ([]string, error) {
	ids := make([]string, 0)
	for _, c := range r.f.st().clients {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

type memInventory struct{ f *memFactory }

func (r memInventory) GetBySerial(_ context.Context, serial string) (*domain.InventoryItem, error) {
	item, ok := r.f.st().items[serial]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

func (r memInventory) UpdateStatusIfCurrent(_ context.Context, serial string, from, to domain.InventoryStatus) (bool, error) {
	st := r.f.st()
	item, ok := st.items[serial]
	if !ok || item.Status != from {
		return false, nil
	}
	item.Status = to
	st.items[serial] = item
	return true, nil
}

type memSales struct{ f *memFactory }

func (r memSales) FindByKey(_ context.Context, clientID, serial string, saleDate time.Time) (*domain.SaleTransaction, error) {
	day := domain.SaleDay(saleDate)
	for _, s := range r.f.st().sales {
		if s.ClientID == clientID && s.SerialNumber == serial && s.SaleDate.Equal(day) {
			sale := s
			return &sale, nil
		}
	}
	return nil, nil
}

func (r memSales) Create(ctx context.Context, sale *domain.SaleTransaction) error {
	if r.f.store.failSaleInsert != nil {
		return r.f.store.failSaleInsert
	}
	if existing, _ := r.FindByKey(ctx, sale.ClientID, sale.SerialNumber, sale.SaleDate); existing != nil {
		return repository.ErrDuplicateSale
	}
	st := r.f.st()
	sale.ID = st.nextID("sale")
	sale.SaleDate = domain.SaleDay(sale.SaleDate)
	sale.CreatedAt = time.Now()
	st.sales = append(st.sales, *sale)
	return nil
}

func (r memSales) ListByClient(_ context.Context, clientID string) ([]*domain.SaleTransaction, error) {
	out := make([]*domain.SaleTransaction, 0)
	for _, s := range r.f.st().sales {
		if s.ClientID == clientID {
			sale := s
			out = append(out, &sale)
		}
	}
	return out, nil
}

type memChanges struct{ f *memFactory }

func (r memChanges) Append(_ context.Context, record *domain.StatusChangeRecord) error {
	st := r.f.st()
	record.ID = st.nextID("change")
	st.changes = append(st.changes, *record)
	return nil
}

func (r memChanges) ListByItem(_ context.Context, itemID string) ([]*domain.StatusChangeRecord, error) {
	out := make([]*domain.StatusChangeRecord, 0)
	for _, c := range r.f.st().changes {
		if c.ItemID == itemID {
			change := c
			out = append(out, &change)
		}
	}
	return out, nil
}
