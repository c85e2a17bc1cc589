package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

var (
	ErrSerialRequired    = errors.New("serial number is required")
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrDatabaseOperation = errors.New("database operation error")
)

// InventoryError adds the API code and the serial involved to a base error.
type InventoryError struct {
	Err    error
	Code   string
	Serial string
}

func (e *InventoryError) Error() string {
	if e.Serial != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Serial)
	}
	return e.Err.Error()
}

func (e *InventoryError) Unwrap() error {
	return e.Err
}

func (e *InventoryError) ErrorCode() string {
	return e.Code
}

// ItemHistory is an item with its status changes, oldest first.
type ItemHistory struct {
	Item    *domain.InventoryItem        `json:"item"`
	Changes []*domain.StatusChangeRecord `json:"changes"`
}

type InventoryService interface {
	GetItem(ctx context.Context, serial string) (*domain.InventoryItem, error)
	History(ctx context.Context, serial string) (*ItemHistory, error)
}

type Service struct {
	items   repository.InventoryRepository
	changes repository.StatusChangeRepository
}

func NewService(items repository.InventoryRepository, changes repository.StatusChangeRepository) *Service {
	return &Service{
		items:   items,
		changes: changes,
	}
}

func (s *Service) GetItem(ctx context.Context, serial string) (*domain.InventoryItem, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, &InventoryError{Err: ErrSerialRequired, Code: apiErrors.ErrMissingRequiredData}
	}

	item, err := s.items.GetBySerial(ctx, serial)
	if err != nil {
		log.ForContext(ctx).WithField("serial_number", serial).WithError(err).Error("Failed to load inventory item")
		return nil, &InventoryError{Err: ErrDatabaseOperation, Code: apiErrors.ErrDatabaseOperation, Serial: serial}
	}
	if item == nil {
		return nil, &InventoryError{Err: ErrItemNotFound, Code: apiErrors.ErrResourceNotFound, Serial: serial}
	}

	return item, nil
}

func (s *Service) History(ctx context.Context, serial string) (*ItemHistory, error) {
	item, err := s.GetItem(ctx, serial)
	if err != nil {
		return nil, err
	}

	changes, err := s.changes.ListByItem(ctx, item.ID)
	if err != nil {
		log.ForContext(ctx).WithField("item_id", item.ID).WithError(err).Error("Failed to load status changes")
		return nil, &InventoryError{Err: ErrDatabaseOperation, Code: apiErrors.ErrDatabaseOperation, Serial: item.SerialNumber}
	}

	return &ItemHistory{Item: item, Changes: changes}, nil
}
