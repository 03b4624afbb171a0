package ledger

import (
	"time"

	"github.com/dvloznov/cc-ledger/internal/money"
)

// EntryType is the side of a posting.
type EntryType string

const (
	Debit  EntryType = "debit"
	Credit EntryType = "credit"
)

// Role names the special account roles a statement row can resolve to.
type Role string

const (
	RoleCreditCard     Role = "credit_card"
	RoleBank           Role = "bank"
	RoleDefaultExpense Role = "default_expense"
)

// RawTransaction is one parsed statement row, as produced by the statement
// processing pipeline. Immutable input to entry generation; the sign of
// Amount drives the posting rules (positive = purchase, negative =
// payment/refund).
type RawTransaction struct {
	Description string
	Date        time.Time
	Amount      money.Money
	Category    string // empty when the parser assigned none
}

// CategoryMapping routes one category label to an expense account.
type CategoryMapping struct {
	Category  string `json:"category"`
	AccountID int64  `json:"account_id"`
}

// RoleConfig carries the per-request account configuration. It is supplied
// by the caller on every invocation and never persisted.
type RoleConfig struct {
	CreditCardAccountID     int64
	DefaultExpenseAccountID int64
	BankAccountID           *int64
	CategoryMappings        []CategoryMapping
}

// Posting is a single debit or credit line against one account. Amount is
// always non-negative; the side is carried by Type.
type Posting struct {
	AccountID   int64
	AccountName string
	Type        EntryType
	Amount      money.Money
	Description string
}

// Transaction is one balanced set of postings generated from a single
// statement row. It carries the row's description and date unchanged.
// Postings are ordered debit first, then credit.
type Transaction struct {
	Description string
	Date        time.Time
	Postings    []Posting
}

// RowError records a statement row that was excluded from the batch, with
// the reason. The batch continues past these; callers must be able to tell
// "all rows processed" apart from "N rows skipped".
type RowError struct {
	Index       int
	Description string
	Err         error
}

// BatchResult is the read-only summary of a generation run. Recomputed on
// every invocation, never mutated in place.
type BatchResult struct {
	Transactions []Transaction
	Skipped      []RowError
	TotalDebits  money.Money
	TotalCredits money.Money
	IsBalanced   bool
}
