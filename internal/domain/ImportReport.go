package domain

import "time"

type ImportOutcome string

const (
	OutcomeCommitted              ImportOutcome = "committed"
	OutcomeCommittedStatsStale    ImportOutcome = "committed-stats-stale"
	OutcomeSkippedDuplicate       ImportOutcome = "skipped-duplicate"
	OutcomeRejectedValidation     ImportOutcome = "rejected-validation"
	OutcomeRejectedInventoryState ImportOutcome = "rejected-inventory-state"
	OutcomeRejectedAttribution    ImportOutcome = "rejected-attribution"
	OutcomeFailed                 ImportOutcome = "failed"
)

// IsCommitted reports whether the sale behind the entry was persisted.
func (o ImportOutcome) IsCommitted() bool {
	return o == OutcomeCommitted || o == OutcomeCommittedStatsStale
}

type ImportEntry struct {
	Index          int               `json:"index"`
	Record         SaleRecord        `json:"record"`
	Outcome        ImportOutcome     `json:"outcome"`
	ErrorKind      string            `json:"error_kind,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Client         *ClientResolution `json:"client,omitempty"`
	ItemID         string            `json:"item_id,omitempty"`
	SaleID         string            `json:"sale_id,omitempty"`
	ExistingSaleID string            `json:"existing_sale_id,omitempty"`
}

type ImportSummary struct {
	Total    int                   `json:"total"`
	Outcomes map[ImportOutcome]int `json:"outcomes"`
}

type ImportReport struct {
	BatchID    string        `json:"batch_id"`
	Actor      string        `json:"actor"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Entries    []ImportEntry `json:"entries"`
	Summary    ImportSummary `json:"summary"`
}

func NewImportReport(batchID, actor string, size int) *ImportReport {
	return &ImportReport{
		BatchID:   batchID,
		Actor:     actor,
		StartedAt: time.Now(),
		Entries:   make([]ImportEntry, 0, size),
		Summary: ImportSummary{
			Outcomes: make(map[ImportOutcome]int),
		},
	}
}

func (r *ImportReport) Add(entry ImportEntry) {
	r.Entries = append(r.Entries, entry)
	r.Summary.Total++
	r.Summary.Outcomes[entry.Outcome]++
}

func (r *ImportReport) Count(outcome ImportOutcome) int {
	return r.Summary.Outcomes[outcome]
}

// NeedsAttention is true when a record failed unexpectedly or committed with stale stats.
func (r *ImportReport) NeedsAttention() bool {
	return r.Count(OutcomeFailed) > 0 || r.Count(OutcomeCommittedStatsStale) > 0
}
