package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

// TaskombankParser handles Taskombank statement PDFs.
//
// Taskombank statements have this table layout:
//
//	Date and time | Debit | Credit | Correspondent details | Payment purpose
//
// A filled Debit column is money spent, a filled Credit column money received.
// The document number is only present as "Номер док-та: N" inside the text.
type TaskombankParser struct {
	log   logrus.FieldLogger
	dates dateParser
}

// NewTaskombankParser returns a parser logging to log (standard logger when nil).
func NewTaskombankParser(log logrus.FieldLogger) *TaskombankParser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TaskombankParser{
		log: log,
		dates: dateParser{layouts: []string{
			"2.1.2006 15:04:05",
			"2.1.2006 15:04",
			"2.1.2006",
		}},
	}
}

func (p *TaskombankParser) BankName() string {
	return "Taskombank"
}

const (
	taskomMinRows    = 2
	taskomMinColumns = 5
)

var (
	// АТ "ТАСКОМБАНК" Київ, код ID НБУ 339500
	taskomBankPattern = regexp.MustCompile(`(?i)АТ\s+"ТАСКОМБАНК".*код\s+ID\s+НБУ\s+(\d+)`)
	// ТОВ "РЕВІ-НАЙТ", ЄДРПОУ 45619342
	taskomClientPattern = regexp.MustCompile(`(?i)ТОВ\s+"([^"]+)",\s*ЄДРПОУ\s+(\d+)`)
	// Виписка по рахунку N UA30 3395 0000 ...
	taskomAccountPattern = regexp.MustCompile(`(?i)Виписка\s+по\s+рахунку\s+N\s+(UA[\d\s]+)`)

	taskomDocNumberPattern = regexp.MustCompile(`Номер\s+док-та:\s*(\S+)`)
)

const taskomBankName = `АТ "ТАСКОМБАНК"`

func (p *TaskombankParser) Parse(doc *models.Document) (*models.StatementInfo, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	info := &models.StatementInfo{
		Bank: models.BankTaskombank,
	}
	if len(doc.Pages) > 0 {
		info.Company = p.extractCompany(doc.Pages[0])
	}

	rc := rowContext{company: info.Company, info: info, log: p.log}

	for _, page := range doc.Pages {
		for ti, table := range page.Tables {
			if len(table) < taskomMinRows || len(table[0]) < taskomMinColumns {
				p.log.WithFields(logrus.Fields{"page": page.Number, "table": ti}).Debug("skipping undersized table")
				continue
			}
			for _, row := range table[1:] {
				txn, ok := p.parseRow(rc, row)
				if !ok {
					continue
				}
				info.Transactions = append(info.Transactions, txn)
			}
		}
	}

	p.log.WithFields(logrus.Fields{
		"bank":         info.Bank,
		"company":      info.Company.Name,
		"transactions": len(info.Transactions),
	}).Info("parsed statement")

	return info, nil
}

func (p *TaskombankParser) parseRow(rc rowContext, row []string) (models.Transaction, bool) {
	if len(row) < taskomMinColumns {
		return models.Transaction{}, false
	}

	dateText := cell(row, 0)
	amount := debitCreditAmount(row[1], row[2])
	details := cell(row, 4)

	corr := joinCells(row[3])
	number := extractDocNumber(corr + " " + details)

	opDate, ok := p.dates.parse(dateText)
	if !ok {
		rc.warnDate(number, dateText)
	}

	return buildTransaction(rc.company, number, opDate, amount, details, extractCounterparty(corr)), true
}

// debitCreditAmount negates a filled debit; otherwise the credit is used.
func debitCreditAmount(debit, credit string) decimal.Decimal {
	debit = strings.TrimSpace(debit)
	credit = strings.TrimSpace(credit)
	switch {
	case debit != "":
		return parseAmount(debit).Neg()
	case credit != "":
		return parseAmount(credit)
	}
	return decimal.Zero
}

func extractDocNumber(text string) string {
	if m := taskomDocNumberPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return models.UnknownDocumentNumber
}

func (p *TaskombankParser) extractCompany(page models.Page) models.Company {
	lines := page.Lines()
	var c models.Company
	if m := firstSubmatch(taskomBankPattern, lines); m != nil {
		c.BankName, c.BankCode = taskomBankName, m[1]
	}
	if m := firstSubmatch(taskomClientPattern, lines); m != nil {
		c.Name, c.INN = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := firstSubmatch(taskomAccountPattern, lines); m != nil {
		c.Account = strings.Join(strings.Fields(m[1]), "")
	}
	return c
}
