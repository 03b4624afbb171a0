package statement

import (
	"strings"
	"testing"

	"github.com/dvloznov/cc-ledger/internal/money"
)

const sampleCSV = `Date,Description,Amount,Category
2024-03-01,HAWKER CENTRE SG,24.31,Food
2024-03-05,PAYMENT - THANK YOU,-100.00,
2024-03-07,ANNUAL FEE WAIVED,0.00,
`

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(sampleCSV)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	first := rows[0]
	if first.Description != "HAWKER CENTRE SG" {
		t.Errorf("description = %q", first.Description)
	}
	if !first.Amount.Equal(money.MustParse("24.31")) {
		t.Errorf("amount = %s, want 24.31", first.Amount)
	}
	if first.Category != "Food" {
		t.Errorf("category = %q, want Food", first.Category)
	}
	if got := first.Date.Format("2006-01-02"); got != "2024-03-01" {
		t.Errorf("date = %s, want 2024-03-01", got)
	}

	if !rows[1].Amount.IsNegative() {
		t.Error("payment row should keep its negative sign")
	}
	if rows[1].Category != "" {
		t.Errorf("empty category parsed as %q", rows[1].Category)
	}
	if !rows[2].Amount.IsZero() {
		t.Error("zero row should parse as zero, not be dropped")
	}
}

func TestParseCSV_ColumnOrderIndependent(t *testing.T) {
	rows, err := ParseCSV("Amount,Date,Description\n-5.00,2024-01-02,PAYMENT\n")
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(rows) != 1 || !rows[0].Amount.Equal(money.MustParse("-5.00")) {
		t.Errorf("rows = %+v, want one payment of -5.00", rows)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "missing amount column", input: "Date,Description\n2024-01-01,SHOP\n"},
		{name: "bad date", input: "Date,Amount\n01/03/2024,5.00\n"},
		{name: "bad amount", input: "Date,Amount\n2024-03-01,abc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(tt.input); err == nil {
				t.Errorf("ParseCSV(%q) expected error", tt.input)
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	rows, err := ParseCSV(sampleCSV)
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}

	out, err := WriteCSV(rows)
	if err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if !strings.HasPrefix(out, "Date,Description,Amount,Category\n") {
		t.Errorf("missing canonical header: %q", out)
	}

	again, err := ParseCSV(out)
	if err != nil {
		t.Fatalf("ParseCSV of written csv failed: %v", err)
	}
	if len(again) != len(rows) {
		t.Fatalf("round trip row count = %d, want %d", len(again), len(rows))
	}
	for i := range rows {
		if !again[i].Amount.Equal(rows[i].Amount) || again[i].Description != rows[i].Description {
			t.Errorf("row %d changed across round trip: %+v vs %+v", i, again[i], rows[i])
		}
	}
}
