package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/money"
)

// ParsedRow is one transaction as the model returns it: strict JSON with an
// ISO date, a signed decimal amount and a category label.
type ParsedRow struct {
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
}

// transformRows converts model output into normalized statement rows. A row
// that fails to parse aborts the whole statement; a half-parsed statement is
// worse than a retried one.
func transformRows(parsed []ParsedRow) ([]ledger.RawTransaction, error) {
	rows := make([]ledger.RawTransaction, 0, len(parsed))
	for i, p := range parsed {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("transformRows: row %d: invalid date %q: %w", i, p.Date, err)
		}
		amount, err := money.Parse(p.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("transformRows: row %d: invalid amount %q: %w", i, p.Amount, err)
		}
		rows = append(rows, ledger.RawTransaction{
			Description: p.Description,
			Date:        date,
			Amount:      amount,
			Category:    p.Category,
		})
	}
	return rows, nil
}
