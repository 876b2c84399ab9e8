package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Veraticus/audithawk/internal/model"
)

// Recognized header names.
const (
	ColumnTransactionID = "transaction_id"
	ColumnAmount        = "amount"
	ColumnMerchant      = "merchant"
	ColumnCategory      = "category"
	ColumnDate          = "date"
	ColumnAccountID     = "account_id"
)

// utf8BOM is written at the start of spreadsheet exports.
const utf8BOM = "\ufeff"

// csvLayout holds the position of each recognized column, -1 when absent.
type csvLayout struct {
	transactionID int
	amount        int
	merchant      int
	category      int
	date          int
	accountID     int
}

// ParseCSV parses comma separated audit input. The first line is the header;
// transaction_id and amount are required. Fields are split on every comma:
// quoting is not supported, so a comma inside a value misaligns that row.
func ParseCSV(content string) ([]model.TransactionRecord, error) {
	content = strings.TrimPrefix(content, utf8BOM)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	if len(lines) < 2 {
		return nil, ErrNoDataRows
	}

	layout, err := parseHeader(lines[0])
	if err != nil {
		return nil, err
	}

	rows := lines[1:]
	records := make([]model.TransactionRecord, 0, len(rows))
	for i, line := range rows {
		records = append(records, layout.record(i+1, splitRow(line)))
	}

	return records, nil
}

func parseHeader(line string) (csvLayout, error) {
	headers := splitRow(line)
	for i := range headers {
		headers[i] = strings.ToLower(headers[i])
	}

	layout := csvLayout{
		transactionID: indexOf(headers, ColumnTransactionID),
		amount:        indexOf(headers, ColumnAmount),
		merchant:      indexOf(headers, ColumnMerchant),
		category:      indexOf(headers, ColumnCategory),
		date:          indexOf(headers, ColumnDate),
		accountID:     indexOf(headers, ColumnAccountID),
	}

	var missing []string
	if layout.transactionID == -1 {
		missing = append(missing, ColumnTransactionID)
	}
	if layout.amount == -1 {
		missing = append(missing, ColumnAmount)
	}
	if len(missing) > 0 {
		return csvLayout{}, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return layout, nil
}

func (l csvLayout) record(index int, cols []string) model.TransactionRecord {
	txnID := cell(cols, l.transactionID)
	if txnID == "" {
		txnID = model.SyntheticTransactionID(index)
	}

	return model.TransactionRecord{
		Index:         index,
		TransactionID: txnID,
		Date:          cell(cols, l.date),
		Amount:        ParseAmount(cell(cols, l.amount)),
		Merchant:      cell(cols, l.merchant),
		Category:      cell(cols, l.category),
		AccountID:     cell(cols, l.accountID),
		Status:        model.StatusPending,
	}
}

// ParseAmount parses a money cell leniently: anything that is not a finite
// number becomes 0 instead of rejecting the row.
func ParseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func splitRow(line string) []string {
	cols := strings.Split(line, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

// cell returns the value at idx, or "" when the column is absent or the row
// is too short.
func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return cols[idx]
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
