package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InventoryStatus string

const (
	InventoryStatusInStock  InventoryStatus = "in_stock"
	InventoryStatusSold     InventoryStatus = "sold"
	InventoryStatusReserved InventoryStatus = "reserved"
)

type InventoryItem struct {
	ID           string           `json:"id"`
	SerialNumber string           `json:"serial_number"`
	Brand        string           `json:"brand"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Status       InventoryStatus  `json:"status"`
	SellingPrice *decimal.Decimal `json:"selling_price,omitempty"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	ReceivedDate *time.Time       `json:"received_date,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// StatusChangeRecord is the append-only audit trail of inventory transitions.
type StatusChangeRecord struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	OldStatus InventoryStatus `json:"old_status"`
	NewStatus InventoryStatus `json:"new_status"`
	ChangedAt time.Time       `json:"changed_at"`
	Actor     string          `json:"actor"`
}
