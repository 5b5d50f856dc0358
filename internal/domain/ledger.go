package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency assumed for records stored without one.
const DefaultCurrency = "USD"

// EntryKind distinguishes income from expense entries.
type EntryKind string

const (
	KindExpense EntryKind = "EXPENSE"
	KindIncome  EntryKind = "INCOME"
)

// ParseEntryKind maps free-form input to an EntryKind. Anything that is not "income" is an expense.
func ParseEntryKind(s string) EntryKind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindIncome)) {
		return KindIncome
	}
	return KindExpense
}

// LedgerEntry is a single income or expense record.
type LedgerEntry struct {
	ID           string
	Amount       decimal.Decimal
	Currency     string
	Category     string
	Date         Date
	Kind         EntryKind
	Description  string
	Merchant     string
	CreatedAt    time.Time
	SourceScanID string
	// IsRecurring marks entries created from a recurring payment reminder.
	IsRecurring bool
	RecurringID string
	// DisplayDate is the client's localized rendering of Date, kept as stored.
	DisplayDate string

	repairs []string
	extra   extraFields
}

// RecordID returns the entry id.
func (e LedgerEntry) RecordID() string { return e.ID }

// WithID returns a copy of the entry carrying id.
func (e LedgerEntry) WithID(id string) LedgerEntry {
	e.ID = id
	return e
}

// Repairs lists the fields that were coerced while decoding.
func (e LedgerEntry) Repairs() []string { return e.repairs }

// IsExpense reports whether the entry counts towards spending.
func (e LedgerEntry) IsExpense() bool { return e.Kind != KindIncome }

type ledgerEntryJSON struct {
	ID              flexString  `json:"id"`
	Amount          flexDecimal `json:"amount"`
	Currency        string      `json:"currency,omitempty"`
	Category        string      `json:"category"`
	Date            Date        `json:"date"`
	Kind            string      `json:"kind"`
	Type            string      `json:"type,omitempty"`
	TransactionType string      `json:"transactionType,omitempty"`
	Description     string      `json:"description,omitempty"`
	Merchant        string      `json:"merchant,omitempty"`
	CreatedAt       flexTime    `json:"createdAt"`
	SourceScanID    flexString  `json:"sourceScanId,omitempty"`
	IsRecurring     flexBool    `json:"isRecurring,omitempty"`
	RecurringID     flexString  `json:"recurringId,omitempty"`
	DisplayDate     string      `json:"displayDate,omitempty"`
}

var ledgerEntryKeys = jsonKeys(ledgerEntryJSON{})

func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(ledgerEntryJSON{
		ID:           flexString(e.ID),
		Amount:       someDecimal(e.Amount),
		Currency:     e.Currency,
		Category:     e.Category,
		Date:         e.Date,
		Kind:         string(ParseEntryKind(string(e.Kind))),
		Description:  e.Description,
		Merchant:     e.Merchant,
		CreatedAt:    flexTime(e.CreatedAt),
		SourceScanID: flexString(e.SourceScanID),
		IsRecurring:  flexBool(e.IsRecurring),
		RecurringID:  flexString(e.RecurringID),
		DisplayDate:  e.DisplayDate,
	})
	if err != nil {
		return nil, err
	}
	return e.extra.appendTo(data), nil
}

// UnmarshalJSON accepts legacy shapes: numeric ids, string amounts, and the kind stored under
// "type" or "transactionType". A non-numeric amount decodes as zero and is recorded in Repairs.
// Keys the entry does not model are kept and re-encoded by MarshalJSON.
func (e *LedgerEntry) UnmarshalJSON(b []byte) error {
	var w ledgerEntryJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	kind := w.Kind
	if kind == "" {
		kind = w.Type
	}
	if kind == "" {
		kind = w.TransactionType
	}

	*e = LedgerEntry{
		ID:           string(w.ID),
		Amount:       w.Amount.Value,
		Currency:     strings.ToUpper(strings.TrimSpace(w.Currency)),
		Category:     strings.TrimSpace(w.Category),
		Date:         w.Date,
		Kind:         ParseEntryKind(kind),
		Description:  w.Description,
		Merchant:     w.Merchant,
		CreatedAt:    time.Time(w.CreatedAt),
		SourceScanID: string(w.SourceScanID),
		IsRecurring:  bool(w.IsRecurring),
		RecurringID:  string(w.RecurringID),
		DisplayDate:  w.DisplayDate,
		extra:        captureExtra(b, ledgerEntryKeys),
	}
	if !w.Amount.Valid {
		e.repairs = append(e.repairs, "amount")
	}
	return nil
}

// Inherit fills what e leaves unset from old, the stored copy of the same entry: keys the
// entry does not model, the recurring-payment markers, the display date and the creation time.
func (e LedgerEntry) Inherit(old LedgerEntry) LedgerEntry {
	e.extra = old.extra.with(e.extra)
	if !e.IsRecurring && e.RecurringID == "" {
		e.IsRecurring, e.RecurringID = old.IsRecurring, old.RecurringID
	}
	if e.DisplayDate == "" && e.Date.Equal(old.Date) {
		e.DisplayDate = old.DisplayDate
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = old.CreatedAt
	}
	return e
}

// ScanDraft is a best-effort receipt reading produced by an OCR collaborator.
// Confidence is advisory only.
type ScanDraft struct {
	ID         string          `json:"id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency,omitempty"`
	Date       Date            `json:"date"`
	Merchant   string          `json:"merchant"`
	Category   string          `json:"category"`
	Confidence decimal.Decimal `json:"confidence"`
}

// Entry converts the draft into an expense entry traceable to the scan.
func (d ScanDraft) Entry(now time.Time) LedgerEntry {
	date := d.Date
	if date.IsZero() {
		date = DateOf(now)
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = "Other"
	}
	return LedgerEntry{
		Amount:       d.Amount,
		Currency:     d.Currency,
		Category:     category,
		Date:         date,
		Kind:         KindExpense,
		Description:  d.Merchant,
		Merchant:     d.Merchant,
		CreatedAt:    now,
		SourceScanID: d.ID,
	}
}
