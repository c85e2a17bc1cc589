package importing

import (
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/shopspring/decimal"
)

// TierPolicy decides a client's VIP tier from recomputed statistics. Returning
// false means the policy has no opinion and the stored tier is kept.
type TierPolicy interface {
	Tier(stats domain.ClientStats) (domain.VIPTier, bool)
}

type unchangedTierPolicy struct{}

func (unchangedTierPolicy) Tier(domain.ClientStats) (domain.VIPTier, bool) {
	return "", false
}

// ThresholdTierPolicy assigns tiers by total spend.
type ThresholdTierPolicy struct {
	VIP     decimal.Decimal
	Premium decimal.Decimal
}

func (p ThresholdTierPolicy) Tier(stats domain.ClientStats) (domain.VIPTier, bool) {
	switch {
	case stats.TotalSpend.GreaterThanOrEqual(p.Premium):
		return domain.VIPTierPremium, true
	case stats.TotalSpend.GreaterThanOrEqual(p.VIP):
		return domain.VIPTierVIP, true
	default:
		return domain.VIPTierRegular, true
	}
}

// NewTierPolicy builds the configured policy. Without an enabled policy tiers
// are never touched by recomputation.
func NewTierPolicy(cfg config.VIPPolicy) (TierPolicy, error) {
	if !cfg.Enabled {
		return unchangedTierPolicy{}, nil
	}

	vip, err := decimal.NewFromString(cfg.VIPThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid VIP_POLICY_VIP_THRESHOLD %q: %w", cfg.VIPThreshold, err)
	}

	premium, err := decimal.NewFromString(cfg.PremiumThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid VIP_POLICY_PREMIUM_THRESHOLD %q: %w", cfg.PremiumThreshold, err)
	}

	if !vip.IsPositive() || premium.LessThanOrEqual(vip) {
		return nil, fmt.Errorf("vip policy thresholds must satisfy 0 < vip (%s) < premium (%s)", vip, premium)
	}

	return ThresholdTierPolicy{VIP: vip, Premium: premium}, nil
}
