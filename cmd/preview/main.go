// Command preview renders the entries a statement CSV would generate,
// without a server or any persistence. Useful for checking category
// mappings before committing through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/cc-ledger/internal/ledger"
	"github.com/dvloznov/cc-ledger/internal/logger"
	"github.com/dvloznov/cc-ledger/internal/statement"
)

// localNames resolves account names from the -names flag, falling back to a
// numeric placeholder.
type localNames map[int64]string

func (n localNames) AccountName(ctx context.Context, userID, accountID int64) (string, error) {
	if name, ok := n[accountID]; ok {
		return name, nil
	}
	return fmt.Sprintf("account %d", accountID), nil
}

func main() {
	var (
		csvPath  = flag.String("csv", "", "Path to the statement CSV (Date,Description,Amount,Category)")
		cc       = flag.Int64("cc", 0, "Credit card account ID (required)")
		expense  = flag.Int64("expense", 0, "Default expense account ID for unmapped categories")
		bank     = flag.Int64("bank", 0, "Bank account ID for payments (0 = use category mapping)")
		mappings = flag.String("map", "", "Category mappings, e.g. \"Food=4,Transport=7\"")
		names    = flag.String("names", "", "Account names, e.g. \"1=UOB Card,4=Food\"")
	)
	flag.Parse()

	log := logger.New()

	if *csvPath == "" || *cc == 0 {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *csvPath).Msg("Failed to read CSV")
	}

	rows, err := statement.ParseCSV(string(data))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse CSV")
	}

	cfg := ledger.RoleConfig{
		CreditCardAccountID:     *cc,
		DefaultExpenseAccountID: *expense,
	}
	if *bank != 0 {
		cfg.BankAccountID = bank
	}
	cfg.CategoryMappings, err = parseMappings(*mappings)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -map value")
	}

	accountNames, err := parseNames(*names)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -names value")
	}

	ctx := context.Background()
	generator := ledger.NewGenerator(ledger.NewResolver(accountNames))

	transactions, skipped, err := generator.GenerateBatch(ctx, 0, rows, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Entry generation failed")
	}

	batch, err := ledger.Validate(transactions)
	if err != nil {
		log.Fatal().Err(err).Msg("Balance check failed")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, txn := range transactions {
		fmt.Fprintf(w, "%s\t%s\n", txn.Date.Format("2006-01-02"), txn.Description)
		for _, p := range txn.Postings {
			fmt.Fprintf(w, "\t%s\t%s\t%s\n", p.Type, p.AccountName, p.Amount)
		}
	}
	w.Flush()

	fmt.Println()
	for _, re := range skipped {
		fmt.Printf("skipped row %d (%s): %v\n", re.Index, re.Description, re.Err)
	}
	fmt.Printf("transactions: %d  skipped: %d\n", len(transactions), len(skipped))
	fmt.Printf("debits: %s  credits: %s  balanced: %v\n", batch.TotalDebits, batch.TotalCredits, batch.IsBalanced)
}

func parseMappings(raw string) ([]ledger.CategoryMapping, error) {
	if raw == "" {
		return nil, nil
	}
	var result []ledger.CategoryMapping
	for _, pair := range strings.Split(raw, ",") {
		category, idPart, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed mapping %q", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed account ID in %q: %w", pair, err)
		}
		result = append(result, ledger.CategoryMapping{Category: strings.TrimSpace(category), AccountID: id})
	}
	return result, nil
}

func parseNames(raw string) (localNames, error) {
	names := make(localNames)
	if raw == "" {
		return names, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		idPart, name, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("malformed name %q", pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed account ID in %q: %w", pair, err)
		}
		names[id] = strings.TrimSpace(name)
	}
	return names, nil
}
