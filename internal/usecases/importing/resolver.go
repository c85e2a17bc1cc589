package importing

import (
	"context"
	"fmt"
	"strings"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/utils"
)

const (
	matchedByCustomerCode = "customer_code"
	matchedByEmail        = "email"
	matchedByName         = "name"
)

// ClientResolver maps the loose customer identity of a sale record to a
// stored client, creating one when nothing matches.
type ClientResolver struct {
	generateCode func() (string, error)
}

func NewClientResolver() *ClientResolver {
	return &ClientResolver{
		generateCode: utils.GenerateCustomerCode,
	}
}

// Resolve tries customer code, then email, then case-insensitive full name.
// The first match wins.
func (r *ClientResolver) Resolve(ctx context.Context, clients repository.ClientRepository, record domain.SaleRecord) (domain.ClientResolution, error) {
	code := strings.TrimSpace(record.CustomerCode)
	email := normalizeEmail(record.CustomerEmail)
	name := strings.TrimSpace(record.CustomerName)

	if code == "" && email == "" && name == "" {
		return domain.ClientResolution{}, NewValidationError(ErrMissingIdentity, "")
	}

	if code != "" {
		client, err := clients.FindByCustomerCode(ctx, code)
		if err != nil {
			return domain.ClientResolution{}, fmt.Errorf("lookup client by code: %w", err)
		}
		if client != nil {
			return domain.Found(client.ID, matchedByCustomerCode), nil
		}
	}

	if email != "" {
		client, err := clients.FindByEmail(ctx, email)
		if err != nil {
			return domain.ClientResolution{}, fmt.Errorf("lookup client by email: %w", err)
		}
		if client != nil {
			return domain.Found(client.ID, matchedByEmail), nil
		}
	}

	if name != "" {
		client, err := clients.FindByName(ctx, name)
		if err != nil {
			return domain.ClientResolution{}, fmt.Errorf("lookup client by name: %w", err)
		}
		if client != nil {
			return domain.Found(client.ID, matchedByName), nil
		}
	}

	client, err := r.newClient(code, email, name, record.CustomerPhone)
	if err != nil {
		return domain.ClientResolution{}, err
	}

	if err := clients.Create(ctx, client); err != nil {
		return domain.ClientResolution{}, fmt.Errorf("create client: %w", err)
	}

	return domain.Created(client.ID), nil
}

func (r *ClientResolver) newClient(code, email, name, phone string) (*domain.Client, error) {
	if code == "" {
		generated, err := r.generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate customer code: %w", err)
		}
		code = generated
	}

	if name == "" {
		name = email
		if name == "" {
			name = code
		}
	}

	return &domain.Client{
		CustomerCode: code,
		Name:         name,
		Email:        optionalString(email),
		Phone:        optionalString(strings.TrimSpace(phone)),
		VIPTier:      domain.VIPTierRegular,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
