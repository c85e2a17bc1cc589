package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const saleDateLayout = "2006-01-02"

type SaleTransaction struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"client_id"`
	ItemID          string          `json:"item_id"`
	SerialNumber    string          `json:"serial_number"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	SaleDate        time.Time       `json:"sale_date"`
	StoreCode       *string         `json:"store_code,omitempty"`
	SalespersonCode *string         `json:"salesperson_code,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SaleRecord is one proposed sale coming from a bulk import.
type SaleRecord struct {
	Row             int             `json:"row,omitempty"`
	CustomerCode    string          `json:"customer_code"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	SerialNumber    string          `json:"serial_number"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	SaleDate        time.Time       `json:"sale_date"`
	StoreCode       string          `json:"store_code"`
	SalespersonCode string          `json:"salesperson_code"`
}

func (r SaleRecord) HasIdentity() bool {
	return strings.TrimSpace(r.CustomerCode) != "" ||
		strings.TrimSpace(r.CustomerEmail) != "" ||
		strings.TrimSpace(r.CustomerName) != ""
}

// DuplicateKey renders the (client, serial, date) tuple that identifies a sale.
func DuplicateKey(clientID, serial string, saleDate time.Time) string {
	return clientID + "|" + serial + "|" + saleDate.Format(saleDateLayout)
}

// SaleDay truncates a timestamp to its calendar date in UTC.
func SaleDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
