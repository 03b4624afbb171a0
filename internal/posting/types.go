package posting

import (
	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/money"
)

// Request is the shared input shape for preview and commit. The same
// request previews and commits; nothing is remembered between the two
// calls.
type Request struct {
	StatementID             int64                    `json:"statement_id"`
	UserID                  int64                    `json:"user_id"`
	CreditCardAccountID     int64                    `json:"credit_card_account_id"`
	DefaultExpenseAccountID int64                    `json:"default_expense_account_id"`
	BankAccountID           *int64                   `json:"bank_account_id,omitempty"`
	CategoryMappings        []ledger.CategoryMapping `json:"category_mappings,omitempty"`
}

func (r Request) roleConfig() ledger.RoleConfig {
	return ledger.RoleConfig{
		CreditCardAccountID:     r.CreditCardAccountID,
		DefaultExpenseAccountID: r.DefaultExpenseAccountID,
		BankAccountID:           r.BankAccountID,
		CategoryMappings:        r.CategoryMappings,
	}
}

// EntryPreview is one posting as shown to the caller.
type EntryPreview struct {
	AccountID   int64            `json:"account_id"`
	AccountName string           `json:"account_name"`
	EntryType   ledger.EntryType `json:"entry_type"`
	Amount      money.Money      `json:"amount"`
	Description string           `json:"description"`
}

// TransactionPreview is one generated transaction as shown to the caller.
type TransactionPreview struct {
	Description     string         `json:"description"`
	TransactionDate string         `json:"transaction_date"`
	Entries         []EntryPreview `json:"entries"`
}

// SkippedRow reports a statement row that was excluded from the batch and
// why, so callers can tell "all rows processed" from "N rows skipped".
type SkippedRow struct {
	Index       int    `json:"index"`
	Description string `json:"description"`
	Reason      string `json:"reason"`
}

// PrepareResult is the preview response. Producing it has no durable side
// effects.
type PrepareResult struct {
	StatementID       int64                `json:"statement_id"`
	StatementFilename string               `json:"statement_filename"`
	Transactions      []TransactionPreview `json:"transactions"`
	TotalTransactions int                  `json:"total_transactions"`
	SkippedRows       []SkippedRow         `json:"skipped_rows,omitempty"`
	TotalDebits       money.Money          `json:"total_debits"`
	TotalCredits      money.Money          `json:"total_credits"`
	IsBalanced        bool                 `json:"is_balanced"`
}

// CreateResult is the commit response.
type CreateResult struct {
	StatementID         int64        `json:"statement_id"`
	TransactionsCreated int          `json:"transactions_created"`
	SkippedRows         []SkippedRow `json:"skipped_rows,omitempty"`
	Message             string       `json:"message"`
}
