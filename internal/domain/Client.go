package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VIPTier string

const (
	VIPTierRegular VIPTier = "regular"
	VIPTierVIP     VIPTier = "vip"
	VIPTierPremium VIPTier = "premium"
)

func (t VIPTier) IsValid() bool {
	switch t {
	case VIPTierRegular, VIPTierVIP, VIPTierPremium:
		return true
	}
	return false
}

type Client struct {
	ID           string      `json:"id"`
	CustomerCode string      `json:"customer_code"`
	Name         string      `json:"name"`
	Email        *string     `json:"email,omitempty"`
	Phone        *string     `json:"phone,omitempty"`
	Address      *string     `json:"address,omitempty"`
	VIPTier      VIPTier     `json:"vip_tier"`
	Stats        ClientStats `json:"stats"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// ClientStats is derived from the client's committed sales and is only
// written by the statistics aggregator.
type ClientStats struct {
	PurchaseCount    int             `json:"purchase_count"`
	TotalSpend       decimal.Decimal `json:"total_spend"`
	AveragePurchase  decimal.Decimal `json:"average_purchase"`
	LastPurchaseDate *time.Time      `json:"last_purchase_date,omitempty"`
}

type ClientResolutionKind string

const (
	ClientFound   ClientResolutionKind = "found"
	ClientCreated ClientResolutionKind = "created"
)

// ClientResolution tells the caller whether the client already existed or
// was created while resolving a sale record.
type ClientResolution struct {
	ClientID  string               `json:"client_id"`
	Kind      ClientResolutionKind `json:"kind"`
	MatchedBy string               `json:"matched_by,omitempty"`
}

func Found(clientID, matchedBy string) ClientResolution {
	return ClientResolution{ClientID: clientID, Kind: ClientFound, MatchedBy: matchedBy}
}

func Created(clientID string) ClientResolution {
	return ClientResolution{ClientID: clientID, Kind: ClientCreated}
}

func (r ClientResolution) IsCreated() bool {
	return r.Kind == ClientCreated
}
