package importing

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/utils"
	"github.com/pkg/errors"
)

const (
	colCustomerCode    = "customer_code"
	colCustomerEmail   = "customer_email"
	colCustomerName    = "customer_name"
	colCustomerPhone   = "customer_phone"
	colSerialNumber    = "serial_number"
	colSalePrice       = "sale_price"
	colSaleDate        = "sale_date"
	colStoreCode       = "store_code"
	colSalespersonCode = "salesperson_code"
)

var headerAliases = map[string]string{
	"customer_code":    colCustomerCode,
	"client_code":      colCustomerCode,
	"customer_id":      colCustomerCode,
	"customer_email":   colCustomerEmail,
	"email":            colCustomerEmail,
	"customer_name":    colCustomerName,
	"client_name":      colCustomerName,
	"name":             colCustomerName,
	"customer_phone":   colCustomerPhone,
	"phone":            colCustomerPhone,
	"serial_number":    colSerialNumber,
	"serial":           colSerialNumber,
	"item_serial":      colSerialNumber,
	"sale_price":       colSalePrice,
	"price":            colSalePrice,
	"sale_date":        colSaleDate,
	"date":             colSaleDate,
	"store_code":       colStoreCode,
	"store":            colStoreCode,
	"salesperson_code": colSalespersonCode,
	"salesperson":      colSalespersonCode,
	"person":           colSalespersonCode,
}

// ParsedRow is one data row of an import file. Err is set when the row could
// not be turned into a SaleRecord.
type ParsedRow struct {
	Row    int
	Record domain.SaleRecord
	Err    error
}

// ParseSalesCSV reads a sales sheet with a header row. Row numbers count the
// header as row 1, matching what a spreadsheet shows. A maxRows of zero or less
// means no limit.
func ParseSalesCSV(r io.Reader, maxRows int) ([]ParsedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, NewValidationError(ErrMalformedRow, "file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	rows := make([]ParsedRow, 0)
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, ParsedRow{Row: parseErr.StartLine, Err: NewValidationError(ErrMalformedRow, parseErr.Error())})
				continue
			}
			return nil, errors.Wrap(err, "read csv row")
		}

		if isBlank(fields) {
			continue
		}

		if maxRows > 0 && len(rows) >= maxRows {
			return nil, newTooManyRowsError(maxRows)
		}

		line, _ := reader.FieldPos(0)
		record, err := parseRecord(fields, columns)
		record.Row = line
		rows = append(rows, ParsedRow{Row: line, Record: record, Err: err})
	}

	return rows, nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")

		canonical, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, seen := columns[canonical]; !seen {
			columns[canonical] = i
		}
	}

	for _, required := range []string{colSerialNumber, colSalePrice, colSaleDate} {
		if _, ok := columns[required]; !ok {
			return nil, NewValidationError(ErrMalformedRow, "missing column "+required)
		}
	}

	_, hasCode := columns[colCustomerCode]
	_, hasEmail := columns[colCustomerEmail]
	_, hasName := columns[colCustomerName]
	if !hasCode && !hasEmail && !hasName {
		return nil, NewValidationError(ErrMalformedRow, "missing customer identifier column")
	}

	return columns, nil
}

func parseRecord(fields []string, columns map[string]int) (domain.SaleRecord, error) {
	get := func(column string) string {
		i, ok := columns[column]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	record := domain.SaleRecord{
		CustomerCode:    get(colCustomerCode),
		CustomerEmail:   get(colCustomerEmail),
		CustomerName:    get(colCustomerName),
		CustomerPhone:   get(colCustomerPhone),
		SerialNumber:    get(colSerialNumber),
		StoreCode:       get(colStoreCode),
		SalespersonCode: get(colSalespersonCode),
	}

	if raw := get(colSalePrice); raw != "" {
		price, err := utils.ParseMoney(raw)
		if err != nil {
			return record, NewValidationError(ErrInvalidPrice, err.Error())
		}
		record.SalePrice = price
	}

	saleDate, err := ParseSaleDate(get(colSaleDate))
	if err != nil {
		return record, err
	}
	record.SaleDate = saleDate

	return record, nil
}

// ParseSaleDate accepts the spreadsheet date formats. An empty value gives the
// zero date, which record validation rejects; an unrecognized one is a
// validation error naming the value.
func ParseSaleDate(raw string) (time.Time, error) {
	saleDate, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, NewValidationError(ErrMissingDate, err.Error())
	}
	if saleDate == nil {
		return time.Time{}, nil
	}
	return *saleDate, nil
}

func isBlank(fields []string) bool {
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
