package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

var (
	// ErrUnsupportedBank is returned by New for an unknown bank type.
	ErrUnsupportedBank = errors.New("unsupported bank type")
	// ErrUnknownBank is returned by AutoDetect when no bank marker is found.
	ErrUnknownBank = errors.New("could not auto-detect bank from statement content")
	// ErrNoDocument is returned when Parse is called without a document.
	ErrNoDocument = errors.New("no document to parse")
)

// Parser defines the interface for bank statement parsers.
type Parser interface {
	// Parse turns the pages and tables of a statement into transactions.
	// Malformed rows are skipped, never reported as errors.
	Parse(doc *models.Document) (*models.StatementInfo, error)
	// BankName returns the human-readable bank name.
	BankName() string
}

// New returns the appropriate parser for the given bank type.
func New(bankType models.BankType, log logrus.FieldLogger) (Parser, error) {
	switch bankType {
	case models.BankPrivat:
		return NewPrivatBankParser(log), nil
	case models.BankTaskombank:
		return NewTaskombankParser(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBank, bankType)
	}
}

// ParseBankType maps user input such as "privat" or "taskombank_pdf" to a BankType.
func ParseBankType(s string) (models.BankType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "privat", "privatbank", "privat_pdf":
		return models.BankPrivat, nil
	case "taskom", "taskombank", "taskombank_pdf":
		return models.BankTaskombank, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: privat, taskombank)", ErrUnsupportedBank, s)
	}
}

// bankMarkers are upper-case statement fragments naming the issuing bank,
// in detection priority order.
var bankMarkers = []struct {
	marker string
	bank   models.BankType
}{
	{"ПРИВАТБАНК", models.BankPrivat},
	{"PRIVATBANK", models.BankPrivat},
	{"PRIVAT24", models.BankPrivat},
	{"ТАСКОМБАНК", models.BankTaskombank},
	{"TASKOMBANK", models.BankTaskombank},
}

var (
	// Matcher.Match is not safe for concurrent use.
	markerMu      sync.Mutex
	markerMatcher = newMarkerMatcher()
)

func newMarkerMatcher() *ahocorasick.Matcher {
	patterns := make([]string, len(bankMarkers))
	for i, m := range bankMarkers {
		patterns[i] = m.marker
	}
	return ahocorasick.NewStringMatcher(patterns)
}

// AutoDetect tries to identify the bank from the statement text. The issuer
// header on the first page decides; counterparty banks named in the tables
// only matter when no header is recognized.
func AutoDetect(doc *models.Document) (models.BankType, error) {
	if doc == nil {
		return "", ErrNoDocument
	}
	if len(doc.Pages) > 0 {
		if bank, ok := detectIssuer(doc.Pages[0].Lines()); ok {
			return bank, nil
		}
	}

	text := strings.ToUpper(doc.Text())

	markerMu.Lock()
	hits := markerMatcher.Match([]byte(text))
	markerMu.Unlock()
	if len(hits) == 0 {
		return "", ErrUnknownBank
	}

	best := hits[0]
	for _, h := range hits[1:] {
		if h < best {
			best = h
		}
	}
	return bankMarkers[best].bank, nil
}

// detectIssuer returns the bank whose header pattern matches the earliest line.
func detectIssuer(lines []string) (models.BankType, bool) {
	for _, line := range lines {
		if taskomBankPattern.MatchString(line) {
			return models.BankTaskombank, true
		}
		if m := privatBankPattern.FindStringSubmatch(line); m != nil &&
			strings.Contains(strings.ToUpper(m[1]), "ПРИВАТ") {
			return models.BankPrivat, true
		}
	}
	return "", false
}
