package ledger

import (
	"context"
	"errors"
)

// Generator turns raw statement rows into balanced double-entry
// transactions. It consults nothing but the resolver; given the same row and
// config it always produces the same postings.
//
// Posting rules, branching on the sign of the row amount:
//
//	positive (purchase):        debit expense account, credit credit-card liability
//	negative (payment/refund):  debit credit-card liability, credit bank account,
//	                            falling back to the category/default expense
//	                            account when no bank account is configured
//	zero:                       no postings, row is reported as skipped
type Generator struct {
	resolver *Resolver
}

func NewGenerator(resolver *Resolver) *Generator {
	return &Generator{resolver: resolver}
}

// Generate produces one balanced transaction for a single statement row.
// The returned transaction has exactly two postings of equal amount, debit
// first. Row-level conditions (zero amount, unresolvable contra account)
// come back as DegenerateTransactionError / NotConfiguredError; account
// lookups can additionally surface AccountNotFoundError.
func (g *Generator) Generate(ctx context.Context, userID int64, row RawTransaction, cfg RoleConfig) (*Transaction, error) {
	if row.Amount.IsZero() {
		return nil, &DegenerateTransactionError{Description: row.Description}
	}

	var debitID, creditID int64
	amount := row.Amount.Abs()

	if !row.Amount.IsNegative() {
		// Purchase: expense up, liability up.
		debitID = g.resolver.ResolveCategory(row.Category, cfg)
		if debitID == 0 {
			return nil, &NotConfiguredError{Role: RoleDefaultExpense}
		}
		ccID, err := g.resolver.ResolveRole(RoleCreditCard, cfg)
		if err != nil {
			return nil, err
		}
		creditID = ccID
	} else {
		// Payment or refund: liability down, offset against the bank
		// account, or reverse the expense when no bank account is known.
		ccID, err := g.resolver.ResolveRole(RoleCreditCard, cfg)
		if err != nil {
			return nil, err
		}
		debitID = ccID
		creditID, err = g.resolver.ResolveRole(RoleBank, cfg)
		if err != nil {
			creditID = g.resolver.ResolveCategory(row.Category, cfg)
			if creditID == 0 {
				return nil, &NotConfiguredError{Role: RoleBank}
			}
		}
	}

	debitName, err := g.resolver.AccountName(ctx, userID, debitID)
	if err != nil {
		return nil, err
	}
	creditName, err := g.resolver.AccountName(ctx, userID, creditID)
	if err != nil {
		return nil, err
	}

	return &Transaction{
		Description: row.Description,
		Date:        row.Date,
		Postings: []Posting{
			{AccountID: debitID, AccountName: debitName, Type: Debit, Amount: amount, Description: row.Description},
			{AccountID: creditID, AccountName: creditName, Type: Credit, Amount: amount, Description: row.Description},
		},
	}, nil
}

// GenerateBatch runs Generate over every row. Degenerate and not-configured
// rows are collected as skipped and the batch continues; any other error
// (unknown account, lookup failure) aborts the whole batch.
func (g *Generator) GenerateBatch(ctx context.Context, userID int64, rows []RawTransaction, cfg RoleConfig) ([]Transaction, []RowError, error) {
	transactions := make([]Transaction, 0, len(rows))
	var skipped []RowError

	for i, row := range rows {
		txn, err := g.Generate(ctx, userID, row, cfg)
		if err != nil {
			var degenerate *DegenerateTransactionError
			var notConfigured *NotConfiguredError
			if errors.As(err, &degenerate) || errors.As(err, &notConfigured) {
				skipped = append(skipped, RowError{Index: i, Description: row.Description, Err: err})
				continue
			}
			return nil, nil, err
		}
		transactions = append(transactions, *txn)
	}

	return transactions, skipped, nil
}
