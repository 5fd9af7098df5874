// Package statement turns the lines of a CSV statement export into
// transactions.
package statement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/dvloznov/bank-portal-sync/internal/classify"
	"github.com/dvloznov/bank-portal-sync/internal/domain"
	"github.com/dvloznov/bank-portal-sync/internal/logger"
	"github.com/dvloznov/bank-portal-sync/internal/normalize"
	"github.com/dvloznov/bank-portal-sync/internal/textutil"
	"github.com/shopspring/decimal"
)

// Positional cells of a statement line: ValueDate;OperationDate;Label;Debit;Credit;
const (
	cellValueDate = iota
	cellOperationDate
	cellLabel
	cellDebit
	cellCredit
	minCells
)

// Lines this short or shorter are padding at the end of the export.
const minLineLength = 5

const cellSeparator = ";"

// Parser converts statement lines for one account at a time.
type Parser struct {
	classifier *classify.Classifier
	now        func() time.Time
}

// NewParser creates a parser using c to classify lines.
func NewParser(c *classify.Classifier) *Parser {
	return &Parser{classifier: c, now: time.Now}
}

// WithClock returns a copy of the parser stamping imports with now.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	cp := *p
	cp.now = now
	return &cp
}

// Parse discards the header line, converts every remaining line and then
// assigns vendor ids. Malformed lines are logged and skipped.
func (p *Parser) Parse(ctx context.Context, account domain.Account, lines []string) []domain.Transaction {
	log := logger.FromContext(ctx).With().Str("account_number", account.Number).Logger()

	if len(lines) <= 1 {
		return nil
	}

	importedAt := p.now().UTC()
	txs := make([]domain.Transaction, 0, len(lines)-1)

	for i, line := range lines[1:] {
		if len(line) <= minLineLength {
			continue
		}

		tx, err := p.ParseLine(line, account, importedAt)
		if err != nil {
			log.Error().Err(err).Int("line", i+2).Str("raw", line).Msg("Skipping malformed statement line")
			continue
		}
		if missingAmount(line) {
			log.Error().Int("line", i+2).Str("raw", line).Msg("Could not find an amount in this operation")
		}
		txs = append(txs, tx)
	}

	AssignVendorIDs(account.VendorID, txs)

	log.Info().Int("transactions", len(txs)).Msg("Parsed statement")
	return txs
}

// ParseLine converts one statement line. A line with neither debit nor credit
// yields a zero amount transaction of type none.
func (p *Parser) ParseLine(line string, account domain.Account, importedAt time.Time) (domain.Transaction, error) {
	cells := strings.Split(line, cellSeparator)
	if len(cells) < minCells {
		return domain.Transaction{}, fmt.Errorf("ParseLine: %w: %d cells, want at least %d", apperrors.ErrFormat, len(cells), minCells)
	}

	label := textutil.CleanLabel(cells[cellLabel])
	tokens := textutil.Tokenize(label)

	date, err := normalize.ParseDate(cells[cellValueDate])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ParseLine: value date: %w", err)
	}
	dateOperation, err := normalize.ParseDate(cells[cellOperationDate])
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ParseLine: operation date: %w", err)
	}

	amount := decimal.Zero
	result := classify.Unclassified

	debit := strings.TrimSpace(cells[cellDebit])
	credit := strings.TrimSpace(cells[cellCredit])
	switch {
	case debit != "":
		v, err := normalize.ParseAmount(debit)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("ParseLine: debit: %w", err)
		}
		amount = v.Abs().Neg()
		result = p.classifier.ClassifyDebit(tokens)
	case credit != "":
		v, err := normalize.ParseAmount(credit)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("ParseLine: credit: %w", err)
		}
		amount = v.Abs()
		result = p.classifier.ClassifyCredit(tokens)
	}

	return domain.Transaction{
		Label:              label,
		Type:               result.Type,
		Date:               date,
		DateOperation:      dateOperation,
		DateImport:         importedAt,
		Currency:           account.Currency,
		VendorAccountID:    account.Number,
		Amount:             amount,
		CategoryID:         result.CategoryID,
		CategoryConfidence: result.Confidence,
	}, nil
}

func missingAmount(line string) bool {
	cells := strings.Split(line, cellSeparator)
	return len(cells) >= minCells &&
		strings.TrimSpace(cells[cellDebit]) == "" &&
		strings.TrimSpace(cells[cellCredit]) == ""
}

// AssignVendorIDs numbers transactions within each value-date day in slice
// order and sets VendorID to "<account>_<day>_<index>".
func AssignVendorIDs(accountVendorID string, txs []domain.Transaction) {
	prefix := textutil.UnderscoreWhitespace(accountVendorID)
	perDay := make(map[string]int)

	for i := range txs {
		day := normalize.DayKey(txs[i].Date)
		txs[i].VendorID = fmt.Sprintf("%s_%s_%d", prefix, day, perDay[day])
		perDay[day]++
	}
}
