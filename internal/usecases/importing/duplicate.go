package importing

import (
	"context"
	"fmt"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
)

// DuplicateDetector checks the (client, serial, sale date) key. Two sales of
// the same item to the same client on the same day are indistinguishable, so
// the later one is always reported as a duplicate.
type DuplicateDetector struct{}

func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{}
}

// Check returns the id of the sale already holding the key, if any. A miss is
// not an error.
func (d *DuplicateDetector) Check(ctx context.Context, sales repository.SaleRepository, clientID, serial string, saleDate time.Time) (bool, string, error) {
	existing, err := sales.FindByKey(ctx, clientID, serial, saleDate)
	if err != nil {
		return false, "", fmt.Errorf("lookup sale by key: %w", err)
	}

	if existing == nil {
		return false, "", nil
	}

	return true, existing.ID, nil
}
