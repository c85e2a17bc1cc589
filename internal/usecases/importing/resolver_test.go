package importing

import (
	"context"
	"errors"
	"testing"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository/mocks"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestClientResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		record   domain.SaleRecord
		setup    func(clients *mocks.MockClientRepository)
		validate func(t *testing.T, resolution domain.ClientResolution, err error)
	}{
		{
			name:   "customer code match wins",
			record: domain.SaleRecord{CustomerCode: "C1", CustomerEmail: "ana@vault.com"},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByCustomerCode(ctx, "C1").Return(&domain.Client{ID: "client-1"}, nil)
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.NoError(t, err)
				assert.Equal(t, domain.Found("client-1", "customer_code"), resolution)
			},
		},
		{
			name:   "falls back to normalized email",
			record: domain.SaleRecord{CustomerCode: "C9", CustomerEmail: " Ana@Vault.COM "},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByCustomerCode(ctx, "C9").Return(nil, nil)
				clients.EXPECT().FindByEmail(ctx, "ana@vault.com").Return(&domain.Client{ID: "client-2"}, nil)
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.NoError(t, err)
				assert.Equal(t, domain.Found("client-2", "email"), resolution)
			},
		},
		{
			name:   "falls back to name",
			record: domain.SaleRecord{CustomerName: " Bruno Costa "},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByName(ctx, "Bruno Costa").Return(&domain.Client{ID: "client-3"}, nil)
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.NoError(t, err)
				assert.Equal(t, domain.Found("client-3", "name"), resolution)
			},
		},
		{
			name:   "creates client with the given code",
			record: domain.SaleRecord{CustomerCode: "C1", CustomerName: "Ana Pereira", CustomerPhone: "555"},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByCustomerCode(ctx, "C1").Return(nil, nil)
				clients.EXPECT().FindByName(ctx, "Ana Pereira").Return(nil, nil)
				clients.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, client *domain.Client) error {
					assert.Equal(t, "C1", client.CustomerCode)
					assert.Equal(t, "Ana Pereira", client.Name)
					assert.Nil(t, client.Email)
					assert.Equal(t, "555", *client.Phone)
					assert.Equal(t, domain.VIPTierRegular, client.VIPTier)
					client.ID = "client-new"
					return nil
				})
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.NoError(t, err)
				assert.Equal(t, domain.Created("client-new"), resolution)
			},
		},
		{
			name:   "creates client with generated code and email as name",
			record: domain.SaleRecord{CustomerEmail: "carla@vault.com"},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByEmail(ctx, "carla@vault.com").Return(nil, nil)
				clients.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, client *domain.Client) error {
					assert.Equal(t, "CL-FIXED001", client.CustomerCode)
					assert.Equal(t, "carla@vault.com", client.Name)
					client.ID = "client-gen"
					return nil
				})
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.NoError(t, err)
				assert.True(t, resolution.IsCreated())
				assert.Equal(t, "client-gen", resolution.ClientID)
			},
		},
		{
			name:   "empty identity is a validation error",
			record: domain.SaleRecord{CustomerCode: " ", CustomerName: "\t"},
			setup:  func(clients *mocks.MockClientRepository) {},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.ErrorIs(t, err, ErrMissingIdentity)
				assert.Equal(t, KindValidation, KindOf(err))
				assert.Empty(t, resolution.ClientID)
			},
		},
		{
			name:   "lookup failure is a storage error",
			record: domain.SaleRecord{CustomerCode: "C1"},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByCustomerCode(ctx, "C1").Return(nil, errors.New("connection refused"))
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.ErrorContains(t, err, "connection refused")
				assert.Equal(t, KindStorage, KindOf(err))
			},
		},
		{
			name:   "code taken during create is surfaced for retry",
			record: domain.SaleRecord{CustomerCode: "C1"},
			setup: func(clients *mocks.MockClientRepository) {
				clients.EXPECT().FindByCustomerCode(ctx, "C1").Return(nil, nil)
				clients.EXPECT().Create(ctx, gomock.Any()).Return(repository.ErrCustomerCodeTaken)
			},
			validate: func(t *testing.T, resolution domain.ClientResolution, err error) {
				assert.ErrorIs(t, err, repository.ErrCustomerCodeTaken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			clients := mocks.NewMockClientRepository(ctrl)
			tt.setup(clients)

			resolver := NewClientResolver()
			resolver.generateCode = func() (string, error) { return "CL-FIXED001", nil }

			resolution, err := resolver.Resolve(ctx, clients, tt.record)
			tt.validate(t, resolution, err)
		})
	}
}
