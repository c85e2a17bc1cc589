package importing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
	"github.com/google/uuid"
)

// maxRecordAttempts covers a lost race on customer code creation: the second
// attempt finds the client the other writer created.
const maxRecordAttempts = 2

// ReferenceLookup lists the store and salesperson codes a sale may be
// attributed to.
type ReferenceLookup interface {
	ListStoreCodes(ctx context.Context) ([]string, error)
	ListSalespersonCodes(ctx context.Context) ([]string, error)
}

type SalesImporter interface {
	Import(ctx context.Context, records []domain.SaleRecord, opts Options) (*domain.ImportReport, error)
	ImportRows(ctx context.Context, rows []ParsedRow, opts Options) (*domain.ImportReport, error)
	ImportCSV(ctx context.Context, r io.Reader, opts Options) (*domain.ImportReport, error)
}

type Options struct {
	Actor string
}

type Service struct {
	transactions repository.TransactionManager
	references   ReferenceLookup
	aggregator   StatsAggregator
	resolver     *ClientResolver
	detector     *DuplicateDetector
	transitioner *InventoryTransitioner
	cfg          config.Import
}

func NewService(
	transactions repository.TransactionManager,
	references ReferenceLookup,
	aggregator StatsAggregator,
	cfg config.Import,
) *Service {
	return &Service{
		transactions: transactions,
		references:   references,
		aggregator:   aggregator,
		resolver:     NewClientResolver(),
		detector:     NewDuplicateDetector(),
		transitioner: NewInventoryTransitioner(),
		cfg:          cfg,
	}
}

func (s *Service) ImportCSV(ctx context.Context, r io.Reader, opts Options) (*domain.ImportReport, error) {
	rows, err := ParseSalesCSV(r, s.cfg.MaxRows)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, rows, opts)
}

func (s *Service) Import(ctx context.Context, records []domain.SaleRecord, opts Options) (*domain.ImportReport, error) {
	rows := make([]ParsedRow, 0, len(records))
	for i, record := range records {
		rows = append(rows, ParsedRow{Row: record.Row, Record: record})
		if record.Row == 0 {
			rows[i].Row = i + 1
		}
	}

	return s.ImportRows(ctx, rows, opts)
}

// ImportRows runs rows that were decoded elsewhere. A row carrying Err is
// reported as rejected without touching storage.
func (s *Service) ImportRows(ctx context.Context, rows []ParsedRow, opts Options) (*domain.ImportReport, error) {
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, newTooManyRowsError(s.cfg.MaxRows)
	}

	return s.run(ctx, rows, opts)
}

// run processes the rows in order. Each record commits or rolls back on its
// own; only a failure to load the reference lists stops the batch, and that
// happens before any record is touched.
func (s *Service) run(ctx context.Context, rows []ParsedRow, opts Options) (*domain.ImportReport, error) {
	actor := strings.TrimSpace(opts.Actor)
	if actor == "" {
		actor = s.cfg.DefaultActor
	}

	batchID := log.GetCorrelationID(ctx)
	if batchID == "" {
		batchID = uuid.NewString()
	}

	logger := log.ForContext(ctx).WithFields(log.Fields{
		"batch_id": batchID,
		"records":  len(rows),
		"actor":    actor,
	})
	logger.Info("Sales import started")

	refs, err := s.loadReferences(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to load attribution reference lists")
		return nil, err
	}

	report := domain.NewImportReport(batchID, actor, len(rows))

	for i, row := range rows {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Add(domain.ImportEntry{
				Index:     i,
				Record:    row.Record,
				Outcome:   domain.OutcomeFailed,
				ErrorKind: string(KindStorage),
				Reason:    fmt.Sprintf("import interrupted: %v", ctxErr),
			})
			continue
		}

		entry := s.processRow(ctx, i, row, refs, actor)
		report.Add(entry)

		entryLogger := logger.WithFields(log.Fields{
			"record_index": i,
			"row":          row.Row,
			"outcome":      entry.Outcome,
		})
		switch entry.Outcome {
		case domain.OutcomeCommittedStatsStale, domain.OutcomeFailed:
			entryLogger.Error("Sale record needs attention: ", entry.Reason)
		default:
			entryLogger.Debug("Sale record processed")
		}
	}

	report.FinishedAt = time.Now()

	logger.WithFields(log.Fields{
		"committed":                report.Count(domain.OutcomeCommitted),
		"committed_stats_stale":    report.Count(domain.OutcomeCommittedStatsStale),
		"skipped_duplicate":        report.Count(domain.OutcomeSkippedDuplicate),
		"rejected_validation":      report.Count(domain.OutcomeRejectedValidation),
		"rejected_inventory_state": report.Count(domain.OutcomeRejectedInventoryState),
		"rejected_attribution":     report.Count(domain.OutcomeRejectedAttribution),
		"failed":                   report.Count(domain.OutcomeFailed),
		"duration_ms":              report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	}).Info("Sales import finished")

	return report, nil
}

func (s *Service) processRow(ctx context.Context, index int, row ParsedRow, refs *referenceSets, actor string) domain.ImportEntry {
	entry := domain.ImportEntry{
		Index:  index,
		Record: row.Record,
	}

	if row.Err != nil {
		return reject(entry, row.Err)
	}

	record := normalizeRecord(row.Record)

	if err := validateRecord(record); err != nil {
		return reject(entry, err)
	}

	if err := refs.check(record); err != nil {
		return reject(entry, err)
	}

	var result committedSale
	var err error
	for attempt := 1; attempt <= maxRecordAttempts; attempt++ {
		result, err = s.commitRecord(ctx, record, actor)
		if !errors.Is(err, repository.ErrCustomerCodeTaken) {
			break
		}
	}
	if err != nil {
		entry = reject(entry, err)
		var importErr *ImportError
		if errors.As(err, &importErr) && importErr.Kind == KindDuplicate {
			entry.ExistingSaleID = importErr.Ref
		}
		return entry
	}

	entry.Outcome = domain.OutcomeCommitted
	entry.Client = &result.client
	entry.ItemID = result.itemID
	entry.SaleID = result.saleID

	if _, err := s.aggregator.Recompute(ctx, result.client.ClientID); err != nil {
		if KindOf(err) != KindAggregation {
			err = NewAggregationError(result.client.ClientID, err)
		}
		entry.Outcome = domain.OutcomeCommittedStatsStale
		entry.ErrorKind = string(KindAggregation)
		entry.Reason = err.Error()
	}

	return entry
}

type committedSale struct {
	client domain.ClientResolution
	itemID string
	saleID string
}

// commitRecord runs resolver, detector, transitioner and the sale insert in
// one transaction, so a failure at any step leaves nothing behind for the
// record, including a client created a moment earlier.
func (s *Service) commitRecord(ctx context.Context, record domain.SaleRecord, actor string) (committedSale, error) {
	var result committedSale

	err := s.transactions.Execute(ctx, func(repos repository.RepositoryFactory) error {
		resolution, err := s.resolver.Resolve(ctx, repos.Clients(), record)
		if err != nil {
			return err
		}

		duplicate, existingID, err := s.detector.Check(ctx, repos.Sales(), resolution.ClientID, record.SerialNumber, record.SaleDate)
		if err != nil {
			return err
		}
		if duplicate {
			return NewDuplicateError(existingID)
		}

		item, err := s.transitioner.Transition(ctx, repos, record.SerialNumber, domain.InventoryStatusSold, actor)
		if err != nil {
			return err
		}

		sale := &domain.SaleTransaction{
			ClientID:        resolution.ClientID,
			ItemID:          item.ID,
			SerialNumber:    item.SerialNumber,
			SalePrice:       record.SalePrice,
			SaleDate:        record.SaleDate,
			StoreCode:       optionalString(record.StoreCode),
			SalespersonCode: optionalString(record.SalespersonCode),
		}
		if err := repos.Sales().Create(ctx, sale); err != nil {
			if errors.Is(err, repository.ErrDuplicateSale) {
				return NewDuplicateError("")
			}
			return fmt.Errorf("record sale: %w", err)
		}

		result = committedSale{
			client: resolution,
			itemID: item.ID,
			saleID: sale.ID,
		}
		return nil
	})

	return result, err
}

func reject(entry domain.ImportEntry, err error) domain.ImportEntry {
	kind := KindOf(err)
	entry.Outcome = outcomeFor(kind)
	entry.ErrorKind = string(kind)
	entry.Reason = err.Error()
	return entry
}

func normalizeRecord(record domain.SaleRecord) domain.SaleRecord {
	record.CustomerCode = strings.TrimSpace(record.CustomerCode)
	record.CustomerEmail = normalizeEmail(record.CustomerEmail)
	record.CustomerName = strings.TrimSpace(record.CustomerName)
	record.CustomerPhone = strings.TrimSpace(record.CustomerPhone)
	record.SerialNumber = strings.TrimSpace(record.SerialNumber)
	record.StoreCode = strings.TrimSpace(record.StoreCode)
	record.SalespersonCode = strings.TrimSpace(record.SalespersonCode)
	if !record.SaleDate.IsZero() {
		record.SaleDate = domain.SaleDay(record.SaleDate)
	}
	return record
}

func validateRecord(record domain.SaleRecord) error {
	if !record.HasIdentity() {
		return NewValidationError(ErrMissingIdentity, "")
	}
	if record.SerialNumber == "" {
		return NewValidationError(ErrMissingSerial, "")
	}
	if !record.SalePrice.IsPositive() {
		return NewValidationError(ErrInvalidPrice, record.SalePrice.String())
	}
	if record.SaleDate.IsZero() {
		return NewValidationError(ErrMissingDate, "")
	}
	return nil
}
