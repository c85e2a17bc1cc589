package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api/handler"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/clients"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/inventory"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fakeImporter struct {
	csv     string
	rows    []importing.ParsedRow
	records []domain.SaleRecord
	opts    importing.Options
	err     error
}

func (f *fakeImporter) Import(_ context.Context, records []domain.SaleRecord, opts importing.Options) (*domain.ImportReport, error) {
	f.records = records
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	report := domain.NewImportReport("batch-1", opts.Actor, len(records))
	for i, record := range records {
		report.Add(domain.ImportEntry{Index: i, Record: record, Outcome: domain.OutcomeCommitted})
	}
	return report, nil
}

func (f *fakeImporter) ImportRows(ctx context.Context, rows []importing.ParsedRow, opts importing.Options) (*domain.ImportReport, error) {
	f.rows = rows
	records := make([]domain.SaleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record)
	}
	return f.Import(ctx, records, opts)
}

func (f *fakeImporter) ImportCSV(_ context.Context, r io.Reader, opts importing.Options) (*domain.ImportReport, error) {
	raw, _ := io.ReadAll(r)
	f.csv = string(raw)
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return domain.NewImportReport("batch-1", opts.Actor, 0), nil
}

type fakeClients struct{}

func (fakeClients) GetClient(_ context.Context, id string) (*domain.Client, error) {
	if id != "client-1" {
		return nil, clients.NewClientError(clients.ErrClientNotFound, apiErrors.ErrResourceNotFound, id, id)
	}
	return &domain.Client{ID: id, CustomerCode: "C1", Name: "Ana Pereira", VIPTier: domain.VIPTierRegular}, nil
}

func (f fakeClients) ListSales(ctx context.Context, id string) ([]*domain.SaleTransaction, error) {
	if _, err := f.GetClient(ctx, id); err != nil {
		return nil, err
	}
	return []*domain.SaleTransaction{{ID: "sale-1", ClientID: id, SalePrice: decimal.NewFromInt(45000)}}, nil
}

func (f fakeClients) RecalculateStats(ctx context.Context, id string) (*domain.Client, error) {
	return f.GetClient(ctx, id)
}

type fakeInventory struct{}

func (fakeInventory) GetItem(_ context.Context, serial string) (*domain.InventoryItem, error) {
	if serial != "20" {
		return nil, &inventory.InventoryError{Err: inventory.ErrItemNotFound, Code: apiErrors.ErrResourceNotFound, Serial: serial}
	}
	return &domain.InventoryItem{ID: "item-1", SerialNumber: "20", Status: domain.InventoryStatusSold}, nil
}

func (f fakeInventory) History(ctx context.Context, serial string) (*inventory.ItemHistory, error) {
	item, err := f.GetItem(ctx, serial)
	if err != nil {
		return nil, err
	}
	return &inventory.ItemHistory{Item: item, Changes: []*domain.StatusChangeRecord{}}, nil
}

type fakeCronJob struct{ triggered int }

func (f *fakeCronJob) TriggerManualSync() bool {
	f.triggered++
	return true
}

func (f *fakeCronJob) GetStatus() map[string]any {
	return map[string]any{"sync_enabled": false}
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type testServer struct {
	handler  http.Handler
	importer *fakeImporter
	cron     *fakeCronJob
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log.SetupTestLogger()

	importer := &fakeImporter{}
	cron := &fakeCronJob{}
	cfg := &config.Config{CORS: config.CORS{AllowedOrigins: []string{"http://localhost:3000"}}}

	return &testServer{
		handler: NewHandler(cfg, Services{
			DB:        fakePinger{},
			Importer:  importer,
			Clients:   fakeClients{},
			Inventory: fakeInventory{},
			CronJobs:  handler.CronJobServices{handler.CronJobTypeClientStats: cron},
		}),
		importer: importer,
		cron:     cron,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "healthcheck", method: http.MethodGet, path: "/healthcheck", wantStatus: http.StatusOK, wantBody: `"status":"ok"`},
		{name: "client", method: http.MethodGet, path: "/v1/clients/client-1", wantStatus: http.StatusOK, wantBody: `"customer_code":"C1"`},
		{name: "unknown client", method: http.MethodGet, path: "/v1/clients/nope", wantStatus: http.StatusNotFound, wantBody: apiErrors.ErrResourceNotFound},
		{name: "client sales", method: http.MethodGet, path: "/v1/clients/client-1/sales", wantStatus: http.StatusOK, wantBody: `"sale_price":"45000"`},
		{name: "recalculate", method: http.MethodPost, path: "/v1/clients/client-1/stats/recalculate", wantStatus: http.StatusOK, wantBody: `"id":"client-1"`},
		{name: "inventory item", method: http.MethodGet, path: "/v1/inventory/20", wantStatus: http.StatusOK, wantBody: `"status":"sold"`},
		{name: "inventory history", method: http.MethodGet, path: "/v1/inventory/20/history", wantStatus: http.StatusOK, wantBody: `"changes":[]`},
		{name: "unknown item", method: http.MethodGet, path: "/v1/inventory/99/history", wantStatus: http.StatusNotFound},
		{name: "cron status", method: http.MethodGet, path: "/v1/cron", wantStatus: http.StatusOK, wantBody: `"client-stats"`},
		{name: "unknown cron", method: http.MethodPost, path: "/v1/cron/nope/run", wantStatus: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, path: "/v1/nothing", wantStatus: http.StatusNotFound, wantBody: apiErrors.ErrResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_HealthcheckDatabaseDown(t *testing.T) {
	log.SetupTestLogger()
	h := NewHandler(&config.Config{}, Services{DB: fakePinger{err: assert.AnError}, CronJobs: handler.CronJobServices{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_RunCronJob(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/cron/client-stats/run", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, srv.cron.triggered)

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/v1/cron/all/run", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 2, srv.cron.triggered)
}

func TestServer_ImportCSV(t *testing.T) {
	csvBody := "customer_code,serial,price,date\nC1,20,45000,2025-06-26\n"

	t.Run("raw body", func(t *testing.T) {
		srv := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/sales/import?actor=ana", strings.NewReader(csvBody))
		req.Header.Set("Content-Type", "text/csv")

		rec := srv.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, csvBody, srv.importer.csv)
		assert.Equal(t, "ana", srv.importer.opts.Actor)
		assert.Contains(t, rec.Body.String(), `"batch_id":"batch-1"`)
	})

	t.Run("multipart upload", func(t *testing.T) {
		srv := newTestServer(t)

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "sales.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csvBody))
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/sales/import", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		rec := srv.do(req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, csvBody, srv.importer.csv)
	})

	t.Run("multipart without file", func(t *testing.T) {
		srv := newTestServer(t)

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("actor", "ana"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/sales/import", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		rec := srv.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), apiErrors.ErrMissingRequiredData)
	})

	t.Run("batch level error keeps its code", func(t *testing.T) {
		srv := newTestServer(t)
		srv.importer.err = &importing.ImportError{Err: importing.ErrTooManyRows, Kind: importing.KindValidation, Code: apiErrors.ErrPayloadTooLarge}

		rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/sales/import", strings.NewReader(csvBody)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("storage error", func(t *testing.T) {
		srv := newTestServer(t)
		srv.importer.err = assert.AnError

		rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/sales/import", strings.NewReader(csvBody)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), apiErrors.ErrDatabaseOperation)
	})
}

func TestServer_ImportRecords(t *testing.T) {
	t.Run("records are converted", func(t *testing.T) {
		srv := newTestServer(t)
		body := `{"actor":"ana","records":[
			{"customer_code":"C1","serial_number":"20","sale_price":"45000","sale_date":"2025-06-26","store_code":"001","salesperson_code":"AP"},
			{"customer_name":"Bruno","serial_number":"21","sale_price":99.5,"sale_date":"not a date"}
		]}`

		rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/sales/import/records", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, srv.importer.records, 2)
		assert.Equal(t, "ana", srv.importer.opts.Actor)

		first := srv.importer.records[0]
		assert.Equal(t, 1, first.Row)
		assert.Equal(t, "C1", first.CustomerCode)
		assert.True(t, decimal.NewFromInt(45000).Equal(first.SalePrice))
		assert.Equal(t, "2025-06-26", first.SaleDate.Format("2006-01-02"))
		assert.Equal(t, "001", first.StoreCode)

		second := srv.importer.records[1]
		assert.Equal(t, 2, second.Row)
		assert.True(t, decimal.RequireFromString("99.5").Equal(second.SalePrice))
		assert.True(t, second.SaleDate.IsZero())

		require.Len(t, srv.importer.rows, 2)
		assert.NoError(t, srv.importer.rows[0].Err)
		assert.Equal(t, importing.KindValidation, importing.KindOf(srv.importer.rows[1].Err))
		assert.ErrorContains(t, srv.importer.rows[1].Err, `"not a date"`)

		var report domain.ImportReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 2, report.Summary.Total)
	})

	t.Run("empty records", func(t *testing.T) {
		srv := newTestServer(t)

		rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/sales/import/records", strings.NewReader(`{"records":[]}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		srv := newTestServer(t)

		rec := srv.do(httptest.NewRequest(http.MethodPost, "/v1/sales/import/records", strings.NewReader(`{"records":`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), apiErrors.ErrInvalidFormat)
	})
}
