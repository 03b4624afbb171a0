// Package analytics exports posted ledger entries to BigQuery for reporting.
// The export sits outside the commit path: a failed export is logged and
// retried on the next commit, it never rolls back the ledger.
package analytics

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/cc-ledger/internal/logger"
	"github.com/dvloznov/cc-ledger/internal/money"
	"github.com/dvloznov/cc-ledger/internal/store"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

const entriesTable = "ledger_entries"

// EntryRow is one posted entry as stored in BigQuery.
type EntryRow struct {
	EntryID       int64      `bigquery:"entry_id"`
	TransactionID int64      `bigquery:"transaction_id"`
	Reference     string     `bigquery:"reference"`
	UserID        int64      `bigquery:"user_id"`
	AccountID     int64      `bigquery:"account_id"`
	EntryType     string     `bigquery:"entry_type"`
	Amount        *big.Rat   `bigquery:"amount"` // NUMERIC
	Currency      string     `bigquery:"currency"`
	Description   string     `bigquery:"description"`
	Date          civil.Date `bigquery:"transaction_date"`
	CreatedTS     time.Time  `bigquery:"created_ts"`
}

// AccountSpend is the total debited to one account over a period.
type AccountSpend struct {
	AccountID int64    `bigquery:"account_id"`
	Total     *big.Rat `bigquery:"total"`
}

// Exporter streams entries into a BigQuery dataset and answers spend
// queries over what was exported.
type Exporter struct {
	projectID string
	datasetID string
	log       zerolog.Logger
}

func NewExporter(projectID, datasetID string, log zerolog.Logger) *Exporter {
	return &Exporter{
		projectID: projectID,
		datasetID: datasetID,
		log:       logger.ForComponent(log, "analytics"),
	}
}

// Export inserts the entries of the given transactions. Amounts are NUMERIC
// so downstream SQL aggregates without float drift.
func (e *Exporter) Export(ctx context.Context, userID int64, transactions []*store.Transaction) error {
	rows := buildRows(userID, transactions)
	if len(rows) == 0 {
		return nil
	}

	client, err := bigquery.NewClient(ctx, e.projectID)
	if err != nil {
		return fmt.Errorf("Export: bigquery client: %w", err)
	}
	defer client.Close()

	inserter := client.DatasetInProject(e.projectID, e.datasetID).Table(entriesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("Export: inserting %d rows: %w", len(rows), err)
	}
	return nil
}

// ObserveCommit is the post-commit hook shape: it logs export failures
// instead of returning them, keeping the export best effort.
func (e *Exporter) ObserveCommit(ctx context.Context, userID int64, transactions []*store.Transaction) {
	if err := e.Export(ctx, userID, transactions); err != nil {
		e.log.Error().Err(err).
			Int64("user_id", userID).
			Int("transactions", len(transactions)).
			Msg("Entry export failed")
		return
	}
	e.log.Info().
		Int64("user_id", userID).
		Int("transactions", len(transactions)).
		Msg("Exported entries")
}

// SpendByAccount sums the debits per account between two dates inclusive.
func (e *Exporter) SpendByAccount(ctx context.Context, userID int64, start, end time.Time) ([]AccountSpend, error) {
	client, err := bigquery.NewClient(ctx, e.projectID)
	if err != nil {
		return nil, fmt.Errorf("SpendByAccount: bigquery client: %w", err)
	}
	defer client.Close()

	q := client.Query(fmt.Sprintf(`
		SELECT
			account_id,
			SUM(amount) AS total
		FROM %s.%s
		WHERE user_id = @user_id
		  AND entry_type = 'debit'
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		GROUP BY account_id
		ORDER BY total DESC
	`, e.datasetID, entriesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start.Format("2006-01-02")},
		{Name: "end_date", Value: end.Format("2006-01-02")},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SpendByAccount: query read: %w", err)
	}

	var result []AccountSpend
	for {
		var row AccountSpend
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SpendByAccount: iterating rows: %w", err)
		}
		result = append(result, row)
	}
	return result, nil
}

func buildRows(userID int64, transactions []*store.Transaction) []*EntryRow {
	var rows []*EntryRow
	for _, txn := range transactions {
		date := civil.DateOf(txn.Date)
		for _, entry := range txn.Entries {
			rows = append(rows, &EntryRow{
				EntryID:       entry.ID,
				TransactionID: txn.ID,
				Reference:     txn.Reference,
				UserID:        userID,
				AccountID:     entry.AccountID,
				EntryType:     string(entry.Type),
				Amount:        entry.Amount.Decimal().Rat(),
				Currency:      money.Currency,
				Description:   entry.Description,
				Date:          date,
				CreatedTS:     time.Now(),
			})
		}
	}
	return rows
}
