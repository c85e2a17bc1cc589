package importing

import (
	"context"
	"fmt"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
)

// referenceSets is the read-only snapshot of attribution codes used for one batch.
type referenceSets struct {
	stores       map[string]struct{}
	salespersons map[string]struct{}
}

func (s *Service) loadReferences(ctx context.Context) (*referenceSets, error) {
	stores, err := s.references.ListStoreCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store codes: %w", err)
	}

	salespersons, err := s.references.ListSalespersonCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load salesperson codes: %w", err)
	}

	return newReferenceSets(stores, salespersons), nil
}

func newReferenceSets(stores, salespersons []string) *referenceSets {
	return &referenceSets{
		stores:       toSet(stores),
		salespersons: toSet(salespersons),
	}
}

// check rejects unknown codes. Empty codes are allowed since attribution is optional.
func (r *referenceSets) check(record domain.SaleRecord) error {
	if code := record.StoreCode; code != "" {
		if _, ok := r.stores[code]; !ok {
			return NewAttributionError("store code", code)
		}
	}

	if code := record.SalespersonCode; code != "" {
		if _, ok := r.salespersons[code]; !ok {
			return NewAttributionError("salesperson code", code)
		}
	}

	return nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
