// Package statement handles the parsed-row representation of a credit-card
// statement. Processing stores rows as CSV on the statement record
// (Date,Description,Amount,Category); entry generation reads them back as
// raw transactions.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/money"
)

const dateFormat = "2006-01-02"

var csvHeader = []string{"Date", "Description", "Amount", "Category"}

// ParseCSV parses statement CSV output into raw transactions. The first
// record must be a header naming at least Date and Amount; Description and
// Category are optional columns. Amounts keep their sign (positive =
// purchase, negative = payment/refund).
func ParseCSV(csvOutput string) ([]ledger.RawTransaction, error) {
	reader := csv.NewReader(strings.NewReader(csvOutput))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ParseCSV: empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Date", "Amount"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("ParseCSV: missing required column %q", required)
		}
	}

	var rows []ledger.RawTransaction
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: line %d: %w", line, err)
		}

		date, err := time.Parse(dateFormat, field(record, columns, "Date"))
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: line %d: invalid date %q: %w", line, field(record, columns, "Date"), err)
		}

		amount, err := money.Parse(field(record, columns, "Amount"))
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: line %d: %w", line, err)
		}

		rows = append(rows, ledger.RawTransaction{
			Date:        date,
			Description: field(record, columns, "Description"),
			Amount:      amount,
			Category:    field(record, columns, "Category"),
		})
	}

	return rows, nil
}

// WriteCSV renders raw transactions back into the canonical statement CSV,
// header included. Inverse of ParseCSV.
func WriteCSV(rows []ledger.RawTransaction) (string, error) {
	var b strings.Builder
	writer := csv.NewWriter(&b)

	if err := writer.Write(csvHeader); err != nil {
		return "", fmt.Errorf("WriteCSV: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Date.Format(dateFormat),
			row.Description,
			row.Amount.String(),
			row.Category,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("WriteCSV: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("WriteCSV: %w", err)
	}

	return b.String(), nil
}

func field(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
