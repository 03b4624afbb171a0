package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/cc-ledger/internal/money"
)

// mapLookup is a test double for the account store.
type mapLookup struct {
	names map[int64]string
}

func (m *mapLookup) AccountName(ctx context.Context, userID, accountID int64) (string, error) {
	if name, ok := m.names[accountID]; ok {
		return name, nil
	}
	return "", &AccountNotFoundError{AccountID: accountID}
}

func testGenerator() *Generator {
	lookup := &mapLookup{names: map[int64]string{
		5:  "DBS Savings",
		10: "UOB Credit Card",
		20: "General Expenses",
		21: "Food",
	}}
	return NewGenerator(NewResolver(lookup))
}

func testDate() time.Time {
	return time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_Purchase(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
		CategoryMappings:        []CategoryMapping{{Category: "Food", AccountID: 21}},
	}
	row := RawTransaction{
		Description: "HAWKER CENTRE SG",
		Date:        testDate(),
		Amount:      money.MustParse("24.31"),
		Category:    "Food",
	}

	txn, err := g.Generate(context.Background(), 1, row, cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(txn.Postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(txn.Postings))
	}

	debit, credit := txn.Postings[0], txn.Postings[1]
	if debit.Type != Debit || debit.AccountID != 21 || !debit.Amount.Equal(money.MustParse("24.31")) {
		t.Errorf("debit = %+v, want debit of 24.31 on account 21", debit)
	}
	if debit.AccountName != "Food" {
		t.Errorf("debit account name = %q, want Food", debit.AccountName)
	}
	if credit.Type != Credit || credit.AccountID != 10 || !credit.Amount.Equal(money.MustParse("24.31")) {
		t.Errorf("credit = %+v, want credit of 24.31 on account 10", credit)
	}
	if txn.Description != row.Description || !txn.Date.Equal(row.Date) {
		t.Error("transaction must carry description and date unchanged")
	}
}

func TestGenerate_PaymentWithBankAccount(t *testing.T) {
	g := testGenerator()
	bank := int64(5)
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
		BankAccountID:           &bank,
	}
	row := RawTransaction{
		Description: "PAYMENT - THANK YOU",
		Date:        testDate(),
		Amount:      money.MustParse("-100.00"),
	}

	txn, err := g.Generate(context.Background(), 1, row, cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	debit, credit := txn.Postings[0], txn.Postings[1]
	if debit.Type != Debit || debit.AccountID != 10 {
		t.Errorf("debit = %+v, want liability account 10", debit)
	}
	if credit.Type != Credit || credit.AccountID != 5 {
		t.Errorf("credit = %+v, want bank account 5", credit)
	}
	want := money.MustParse("100.00")
	if !debit.Amount.Equal(want) || !credit.Amount.Equal(want) {
		t.Errorf("amounts = %s / %s, want 100.00 on both sides", debit.Amount, credit.Amount)
	}
}

func TestGenerate_RefundWithoutBankFallsBackToCategory(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
		CategoryMappings:        []CategoryMapping{{Category: "Food", AccountID: 21}},
	}
	row := RawTransaction{
		Description: "REFUND HAWKER CENTRE",
		Date:        testDate(),
		Amount:      money.MustParse("-50.00"),
		Category:    "Food",
	}

	txn, err := g.Generate(context.Background(), 1, row, cfg)
	if err != nil {
		t.Fatalf("refund without bank account must not fail when the category resolves: %v", err)
	}

	debit, credit := txn.Postings[0], txn.Postings[1]
	if debit.AccountID != 10 {
		t.Errorf("debit account = %d, want liability account 10", debit.AccountID)
	}
	if credit.AccountID != 21 {
		t.Errorf("credit account = %d, want category account 21", credit.AccountID)
	}
}

func TestGenerate_UnmappedCategoryUsesDefault(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
		CategoryMappings:        []CategoryMapping{{Category: "Food", AccountID: 21}},
	}
	row := RawTransaction{
		Description: "MYSTERY SHOP",
		Date:        testDate(),
		Amount:      money.MustParse("9.99"),
		Category:    "Unknown Category",
	}

	txn, err := g.Generate(context.Background(), 1, row, cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if txn.Postings[0].AccountID != 20 {
		t.Errorf("debit account = %d, want default expense account 20", txn.Postings[0].AccountID)
	}
}

func TestGenerate_CategoryMatchIsCaseSensitive(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
		CategoryMappings:        []CategoryMapping{{Category: "Food", AccountID: 21}},
	}
	row := RawTransaction{
		Description: "HAWKER CENTRE",
		Date:        testDate(),
		Amount:      money.MustParse("5.00"),
		Category:    "food",
	}

	txn, err := g.Generate(context.Background(), 1, row, cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if txn.Postings[0].AccountID != 20 {
		t.Errorf("lowercase category matched mapping; debit = %d, want default 20", txn.Postings[0].AccountID)
	}
}

func TestGenerate_ZeroAmount(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{CreditCardAccountID: 10, DefaultExpenseAccountID: 20}
	row := RawTransaction{Description: "ANNUAL FEE WAIVED", Date: testDate(), Amount: money.MustParse("0.00")}

	_, err := g.Generate(context.Background(), 1, row, cfg)
	var degenerate *DegenerateTransactionError
	if !errors.As(err, &degenerate) {
		t.Fatalf("err = %v, want DegenerateTransactionError", err)
	}
}

func TestGenerate_PaymentWithoutAnyContraAccount(t *testing.T) {
	g := testGenerator()
	// No bank, no default expense account, no mapping for the category.
	cfg := RoleConfig{CreditCardAccountID: 10}
	row := RawTransaction{Description: "PAYMENT", Date: testDate(), Amount: money.MustParse("-10.00")}

	_, err := g.Generate(context.Background(), 1, row, cfg)
	var notConfigured *NotConfiguredError
	if !errors.As(err, &notConfigured) {
		t.Fatalf("err = %v, want NotConfiguredError", err)
	}
	if notConfigured.Role != RoleBank {
		t.Errorf("role = %s, want %s", notConfigured.Role, RoleBank)
	}
}

func TestGenerate_UnknownAccountSurfaces(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{CreditCardAccountID: 10, DefaultExpenseAccountID: 999}
	row := RawTransaction{Description: "SHOP", Date: testDate(), Amount: money.MustParse("1.00")}

	_, err := g.Generate(context.Background(), 1, row, cfg)
	var notFound *AccountNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want AccountNotFoundError", err)
	}
	if notFound.AccountID != 999 {
		t.Errorf("offending account id = %d, want 999", notFound.AccountID)
	}
}

func TestGenerateBatch_SkipsRowsAndContinues(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{
		CreditCardAccountID:     10,
		DefaultExpenseAccountID: 20,
	}
	rows := []RawTransaction{
		{Description: "SHOP A", Date: testDate(), Amount: money.MustParse("10.00")},
		{Description: "ZERO ROW", Date: testDate(), Amount: money.MustParse("0")},
		{Description: "SHOP B", Date: testDate(), Amount: money.MustParse("5.50")},
	}

	txns, skipped, err := g.GenerateBatch(context.Background(), 1, rows, cfg)
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	if len(txns) != 2 {
		t.Errorf("got %d transactions, want 2", len(txns))
	}
	if len(skipped) != 1 || skipped[0].Index != 1 {
		t.Fatalf("skipped = %+v, want one entry for row index 1", skipped)
	}
	var degenerate *DegenerateTransactionError
	if !errors.As(skipped[0].Err, &degenerate) {
		t.Errorf("skip reason = %v, want DegenerateTransactionError", skipped[0].Err)
	}

	// The surviving subset still balances.
	result, err := Validate(txns)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.IsBalanced {
		t.Error("batch with skipped rows must still balance over the surviving subset")
	}
}

func TestGenerateBatch_UnknownAccountIsFatal(t *testing.T) {
	g := testGenerator()
	cfg := RoleConfig{CreditCardAccountID: 77, DefaultExpenseAccountID: 20}
	rows := []RawTransaction{
		{Description: "SHOP", Date: testDate(), Amount: money.MustParse("10.00")},
	}

	_, _, err := g.GenerateBatch(context.Background(), 1, rows, cfg)
	var notFound *AccountNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want AccountNotFoundError to abort the batch", err)
	}
}
