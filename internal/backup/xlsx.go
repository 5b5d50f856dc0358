package backup

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

// column describes one spreadsheet column and how to read it from a record.
type column[T any] struct {
	header string
	value  func(T) any
}

var ledgerColumns = []column[domain.LedgerEntry]{
	{"ID", func(e domain.LedgerEntry) any { return e.ID }},
	{"Date", func(e domain.LedgerEntry) any { return e.Date.String() }},
	{"Kind", func(e domain.LedgerEntry) any { return string(e.Kind) }},
	{"Category", func(e domain.LedgerEntry) any { return e.Category }},
	{"Amount", func(e domain.LedgerEntry) any { return toFloat(e.Amount) }},
	{"Currency", func(e domain.LedgerEntry) any { return e.Currency }},
	{"Merchant", func(e domain.LedgerEntry) any { return e.Merchant }},
	{"Description", func(e domain.LedgerEntry) any { return e.Description }},
	{"Scan ID", func(e domain.LedgerEntry) any { return e.SourceScanID }},
}

var assetColumns = []column[domain.Asset]{
	{"ID", func(a domain.Asset) any { return a.ID }},
	{"Name", func(a domain.Asset) any { return a.Name }},
	{"Type", func(a domain.Asset) any { return string(a.Type) }},
	{"Purchase Price", func(a domain.Asset) any { return toFloat(a.PurchasePrice) }},
	{"Market Price", func(a domain.Asset) any { return ptrFloat(a.CurrentMarketPrice) }},
	{"Currency", func(a domain.Asset) any { return a.Currency }},
	{"Quantity", func(a domain.Asset) any { return ptrFloat(a.Quantity) }},
	{"Unit", func(a domain.Asset) any { return a.Unit }},
	{"Purity", func(a domain.Asset) any { return ptrFloat(a.Purity) }},
	{"Purchase Year", func(a domain.Asset) any {
		if a.PurchaseYear == nil {
			return nil
		}
		return *a.PurchaseYear
	}},
	{"Mileage", func(a domain.Asset) any { return ptrFloat(a.Mileage) }},
	{"Condition", func(a domain.Asset) any { return a.Condition }},
	{"Location", func(a domain.Asset) any { return a.StorageLocation }},
	{"Last Verified", func(a domain.Asset) any { return a.LastVerifiedDate.String() }},
}

var budgetColumns = []column[domain.BudgetDefinition]{
	{"ID", func(b domain.BudgetDefinition) any { return b.ID }},
	{"Name", func(b domain.BudgetDefinition) any { return b.Name }},
	{"Amount", func(b domain.BudgetDefinition) any { return toFloat(b.Amount) }},
	{"Currency", func(b domain.BudgetDefinition) any { return b.Currency }},
}

// Sheet names in the spreadsheet backup.
const (
	LedgerSheet  = "Ledger"
	AssetsSheet  = "Assets"
	BudgetsSheet = "Budgets"
)

// WriteXLSX writes b as a workbook with one sheet per collection. The ledger sheet holds the
// merged logical ledger.
func WriteXLSX(w io.Writer, b Bundle) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LedgerSheet); err != nil {
		return fmt.Errorf("naming ledger sheet: %w", err)
	}
	if err := writeSheet(f, LedgerSheet, buildRows(ledgerColumns, store.Merge(b.Transactions, b.MonthlyExpenses))); err != nil {
		return err
	}
	if err := writeSheet(f, AssetsSheet, buildRows(assetColumns, b.Assets)); err != nil {
		return err
	}
	if err := writeSheet(f, BudgetsSheet, buildRows(budgetColumns, b.Budgets)); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// buildRows builds a header row followed by one row per record.
func buildRows[T any](cols []column[T], records []T) [][]any {
	data := make([][]any, 0, len(records)+1)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	data = append(data, header)

	for _, r := range records {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = c.value(r)
		}
		data = append(data, row)
	}
	return data
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
