package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

const MaxImportBodyBytes = 20 << 20

// saleRecordRequest is the JSON form of one sale record. Dates are strings so
// the same formats as the CSV import are accepted.
type saleRecordRequest struct {
	CustomerCode    string          `json:"customer_code"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	SerialNumber    string          `json:"serial_number"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	SaleDate        string          `json:"sale_date"`
	StoreCode       string          `json:"store_code"`
	SalespersonCode string          `json:"salesperson_code"`
}

type importRecordsRequest struct {
	Actor   string              `json:"actor"`
	Records []saleRecordRequest `json:"records"`
}

// ImportSalesCSV accepts a CSV body or a multipart upload in the "file" field.
func ImportSalesCSV(importer importing.SalesImporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		logger.Info("INIT - ImportSalesCSV")

		body, closeBody, err := csvBody(r)
		if err != nil {
			writeBodyError(w, err)
			return
		}
		defer closeBody()

		report, err := importer.ImportCSV(r.Context(), body, importing.Options{Actor: r.URL.Query().Get("actor")})
		if err != nil {
			logger.WithError(err).Error("Sales CSV import failed")
			writeImportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, report)
	})
}

// ImportSalesRecords accepts the records as JSON.
func ImportSalesRecords(importer importing.SalesImporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.ForContext(r.Context())
		logger.Info("INIT - ImportSalesRecords")

		var req importRecordsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeBodyError(w, err)
			return
		}

		if len(req.Records) == 0 {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "records must not be empty", nil)
			return
		}

		actor := req.Actor
		if q := r.URL.Query().Get("actor"); q != "" {
			actor = q
		}

		rows := make([]importing.ParsedRow, 0, len(req.Records))
		for i, rec := range req.Records {
			rows = append(rows, rec.toRow(i+1))
		}

		report, err := importer.ImportRows(r.Context(), rows, importing.Options{Actor: actor})
		if err != nil {
			logger.WithError(err).Error("Sales records import failed")
			writeImportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, report)
	})
}

// toRow keeps a bad sale date as the row error, so the record is rejected
// with the offending value instead of failing the whole request.
func (req saleRecordRequest) toRow(row int) importing.ParsedRow {
	record := domain.SaleRecord{
		Row:             row,
		CustomerCode:    req.CustomerCode,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		SerialNumber:    req.SerialNumber,
		SalePrice:       req.SalePrice,
		StoreCode:       req.StoreCode,
		SalespersonCode: req.SalespersonCode,
	}

	saleDate, err := importing.ParseSaleDate(req.SaleDate)
	record.SaleDate = saleDate

	return importing.ParsedRow{Row: row, Record: record, Err: err}
}

func csvBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

func writeBodyError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		apiErrors.WriteError(w, apiErrors.ErrPayloadTooLarge, "request body too large", nil)
	case errors.Is(err, http.ErrMissingFile):
		apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "multipart field \"file\" is required", nil)
	default:
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "invalid request body", err.Error())
	}
}

func writeImportError(w http.ResponseWriter, err error) {
	if importing.KindOf(err) == importing.KindStorage {
		apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "import could not start", nil)
		return
	}
	writeError(w, err, apiErrors.ErrInvalidRequest)
}
