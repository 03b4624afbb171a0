package ledger

import (
	"github.com/dvloznov/cc-ledger/internal/money"
)

// Validate sums every posting across the batch and checks that total debits
// equal total credits exactly. Each transaction already balances by
// construction, so a mismatch here means a defect in generation or Money
// arithmetic, and comes back as a hard InternalInconsistencyError rather
// than a validation failure.
func Validate(transactions []Transaction) (BatchResult, error) {
	var totalDebits, totalCredits money.Money

	for _, txn := range transactions {
		for _, p := range txn.Postings {
			switch p.Type {
			case Debit:
				totalDebits = totalDebits.Add(p.Amount)
			case Credit:
				totalCredits = totalCredits.Add(p.Amount)
			}
		}
	}

	result := BatchResult{
		Transactions: transactions,
		TotalDebits:  totalDebits,
		TotalCredits: totalCredits,
		IsBalanced:   totalDebits.Equal(totalCredits),
	}

	if !result.IsBalanced {
		return result, &InternalInconsistencyError{
			TotalDebits:  totalDebits,
			TotalCredits: totalCredits,
		}
	}

	return result, nil
}
