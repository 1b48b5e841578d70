package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

// Counterparty identifier patterns. The labelled forms must be tried before
// the bare fallbacks since the fallbacks also match labelled text.
// RE2 \b, \w and \s are ASCII only; boundaries and spaces use Unicode classes.
var (
	taxIDLabelled   = regexp.MustCompile(`ЄДРПОУ:[\s\p{Z}]*(\d+)`)
	taxIDBare       = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(\d{8,10})(?:$|[^\p{L}\p{N}_])`)
	accountLabelled = regexp.MustCompile(`Рахунок:[\s\p{Z}]*(UA[\p{L}\p{N}_]+)`)
	accountBare     = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])(UA\d{2,})(?:$|[^\p{L}\p{N}_])`)

	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
)

// normalizeSpaces joins cell lines into one string with single spaces.
func normalizeSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// joinCells merges the lines of several cells into one normalized string.
func joinCells(cells ...string) string {
	var lines []string
	for _, c := range cells {
		for _, l := range strings.Split(c, "\n") {
			lines = append(lines, strings.TrimSpace(l))
		}
	}
	return normalizeSpaces(strings.Join(lines, " "))
}

// findTaxID returns the counterparty ЄДРПОУ or "" when none is present.
func findTaxID(text string) string {
	if m := taxIDLabelled.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := taxIDBare.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// findAccount returns the counterparty IBAN-like account or "".
func findAccount(text string) string {
	if m := accountLabelled.FindStringSubmatch(text); m != nil {
		return strings.ReplaceAll(m[1], " ", "")
	}
	if m := accountBare.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

var (
	taxIDLabelStrip   = regexp.MustCompile(`ЄДРПОУ:[\s\p{Z}]*\d+`)
	accountLabelStrip = regexp.MustCompile(`Рахунок:[\s\p{Z}]*UA[\p{L}\p{N}_]+`)
)

// cleanName removes the identifiers and their labels, leaving the name.
func cleanName(text, taxID, account string) string {
	cleaned := taxIDLabelStrip.ReplaceAllString(text, "")
	if taxID != "" {
		cleaned = strings.ReplaceAll(cleaned, taxID, "")
	}
	cleaned = accountLabelStrip.ReplaceAllString(cleaned, "")
	if account != "" {
		cleaned = strings.ReplaceAll(cleaned, account, "")
	}
	return normalizeSpaces(cleaned)
}

// extractCounterparty recovers tax id, account and name from the
// counterparty cells of a row.
func extractCounterparty(cells ...string) models.Counterparty {
	full := joinCells(cells...)
	inn := findTaxID(full)
	account := findAccount(full)
	return models.Counterparty{
		Name:    cleanName(full, inn, account),
		INN:     inn,
		Account: account,
	}
}

// parseAmount converts a Ukrainian formatted amount like "-1 234,56".
// Text that is not a number yields zero.
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00A0", "")
	s = strings.ReplaceAll(s, "\n", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// dateParser tries the layouts of one bank in order.
type dateParser struct {
	layouts []string
	now     func() time.Time
}

// parse returns the first layout match. When nothing matches it falls back
// to the current time and reports ok=false so the caller can warn.
func (dp dateParser) parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	for _, layout := range dp.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if dp.now != nil {
		return dp.now(), false
	}
	return time.Now(), false
}

// rowContext carries what a row needs besides its own cells.
type rowContext struct {
	company models.Company
	info    *models.StatementInfo
	log     logrus.FieldLogger
}

func (rc rowContext) warnDate(number, raw string) {
	msg := fmt.Sprintf("document %s: unparsable date %q, using current date", number, raw)
	rc.info.Warnings = append(rc.info.Warnings, msg)
	rc.log.WithFields(logrus.Fields{
		"bank":     rc.info.Bank,
		"document": number,
		"date":     raw,
	}).Warn("unparsable operation date, falling back to current date")
}

// buildTransaction assigns payer and recipient roles by the amount sign.
// Our side always carries the OwnCompanyINN sentinel.
func buildTransaction(company models.Company, number string, opDate time.Time, amount decimal.Decimal,
	details string, cp models.Counterparty) models.Transaction {
	day := time.Date(opDate.Year(), opDate.Month(), opDate.Day(), 0, 0, 0, 0, opDate.Location())

	txn := models.Transaction{
		Number:         number,
		Date:           day,
		Amount:         amount,
		PaymentDetails: normalizeSpaces(details),
	}

	if amount.IsNegative() {
		txn.PayerINN = models.OwnCompanyINN
		txn.PayerName = company.DisplayName()
		txn.PayerAccount = company.Account
		txn.RecipientINN = cp.INN
		txn.RecipientName = cp.Name
		txn.RecipientAccount = cp.Account
		txn.DateOutcome = &day
	} else {
		txn.PayerINN = cp.INN
		txn.PayerName = cp.Name
		txn.PayerAccount = cp.Account
		txn.RecipientINN = models.OwnCompanyINN
		txn.RecipientName = company.DisplayName()
		txn.RecipientAccount = company.Account
		txn.DateIncome = &day
	}
	return txn
}

// cell returns the trimmed cell at idx, or "" when the row is too short.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// firstSubmatch returns the submatches of the first line matching re.
func firstSubmatch(re *regexp.Regexp, lines []string) []string {
	for _, line := range lines {
		if m := re.FindStringSubmatch(line); m != nil {
			return m
		}
	}
	return nil
}
