package writer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

const (
	// EndOfFile terminates a complete exchange file.
	EndOfFile = "КонецФайла"
	// EndOfDocument terminates one transaction block.
	EndOfDocument = "КонецДокумента"

	// DefaultSender is written to the Отправитель header field.
	DefaultSender = "BankStatementConverter"

	dateLayout = "02.01.2006"
	timeLayout = "15:04:05"
)

// ExchangeGenerator renders transactions as 1CClientBankExchange documents.
type ExchangeGenerator struct {
	Sender string
	Now    func() time.Time
}

// NewExchangeGenerator returns a generator stamping files with the wall clock.
func NewExchangeGenerator(sender string) *ExchangeGenerator {
	if sender == "" {
		sender = DefaultSender
	}
	return &ExchangeGenerator{Sender: sender, Now: time.Now}
}

// GenerateFileContent emits one self-contained block per transaction, in
// order, joined by newlines. The closing КонецФайла is left to Combine.
func (g *ExchangeGenerator) GenerateFileContent(txns []models.Transaction) string {
	now := g.now()
	created := now.Format(dateLayout)
	createdAt := now.Format(timeLayout)

	blocks := make([]string, 0, len(txns))
	for _, t := range txns {
		blocks = append(blocks, g.block(t, created, createdAt))
	}
	return strings.Join(blocks, "\n")
}

func (g *ExchangeGenerator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func (g *ExchangeGenerator) block(t models.Transaction, created, createdAt string) string {
	lines := []string{
		"1CClientBankExchange",
		"ВерсияФормата=1.01",
		"Кодировка=Windows",
		"Отправитель=" + g.Sender,
		"Получатель=",
		"ДатаСоздания=" + created,
		"ВремяСоздания=" + createdAt,
		"ДатаНачала=" + created,
		"ДатаКонца=" + created,
		"РасчСчет=" + t.PayerAccount,
		"Документ=Платежное поручение",
		"СекцияДокумент=Платежное поручение",
		"Номер=" + t.Number,
		"Дата=" + t.Date.Format(dateLayout),
		"Сумма=" + FormatAmount(t.Amount),
		"ПлательщикИНН=" + t.PayerINN,
		"Плательщик1=" + t.PayerName,
		"ПлательщикРасчСчет=" + t.PayerAccount,
		"ПолучательИНН=" + t.RecipientINN,
		"Получатель1=" + t.RecipientName,
		"ПолучательРасчСчет=" + t.RecipientAccount,
		"НазначениеПлатежа=" + t.PaymentDetails,
		"НазначениеПлатежа1=" + t.PaymentDetails,
		"ДатаПоступило=" + formatOptionalDate(t.DateIncome),
		"ДатаСписано=" + formatOptionalDate(t.DateOutcome),
		EndOfDocument,
	}
	return strings.Join(lines, "\n")
}

// FormatAmount renders the unsigned amount with exactly two decimals.
func FormatAmount(amount decimal.Decimal) string {
	return amount.Abs().StringFixed(2)
}

func formatOptionalDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(dateLayout)
}

// Combine merges generated statements into one exchange file. Any trailing
// КонецФайла of a part is dropped and a single one closes the result.
func Combine(parts ...string) string {
	kept := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimSpace(strings.TrimSuffix(p, EndOfFile))
		if p != "" {
			kept = append(kept, p)
		}
	}
	kept = append(kept, EndOfFile)
	return strings.Join(kept, "\n")
}
