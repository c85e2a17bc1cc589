package importing

import (
	"context"
	"fmt"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
)

// InventoryTransitioner moves an item from in_stock to sold and appends the
// audit record. Both writes go through the same repository factory, so they
// share the caller's transaction.
type InventoryTransitioner struct {
	now func() time.Time
}

func NewInventoryTransitioner() *InventoryTransitioner {
	return &InventoryTransitioner{now: time.Now}
}

func (t *InventoryTransitioner) Transition(
	ctx context.Context,
	repos repository.RepositoryFactory,
	serial string,
	target domain.InventoryStatus,
	actor string,
) (*domain.InventoryItem, error) {
	inventory := repos.Inventory()

	item, err := inventory.GetBySerial(ctx, serial)
	if err != nil {
		return nil, fmt.Errorf("lookup inventory item: %w", err)
	}
	if item == nil {
		return nil, NewNotFoundError(serial)
	}

	if target != domain.InventoryStatusSold {
		return nil, &ImportError{
			Err:     ErrUnsupportedTarget,
			Kind:    KindInvalidState,
			Ref:     serial,
			Details: fmt.Sprintf("%s -> %s", item.Status, target),
		}
	}

	if item.Status != domain.InventoryStatusInStock {
		return nil, NewInvalidStateError(serial, item.Status)
	}

	updated, err := inventory.UpdateStatusIfCurrent(ctx, serial, domain.InventoryStatusInStock, target)
	if err != nil {
		return nil, fmt.Errorf("update inventory status: %w", err)
	}
	if !updated {
		// someone else changed the item between the read and the update
		current, err := inventory.GetBySerial(ctx, serial)
		if err != nil {
			return nil, fmt.Errorf("reload inventory item: %w", err)
		}
		if current == nil {
			return nil, NewNotFoundError(serial)
		}
		return nil, NewInvalidStateError(serial, current.Status)
	}

	record := &domain.StatusChangeRecord{
		ItemID:    item.ID,
		OldStatus: domain.InventoryStatusInStock,
		NewStatus: target,
		ChangedAt: t.now(),
		Actor:     actor,
	}
	if err := repos.StatusChanges().Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append status change: %w", err)
	}

	item.Status = target
	return item, nil
}
