package parser

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
)

// PrivatBankParser handles PrivatBank statement PDFs.
//
// The statement is one ruled table per page:
//
//	row 0      opening/closing balances
//	rows 1..2  two-storey column header
//	rows 3..   № | Date and time | Amount | Purpose | ... | Counterparty | Counterparty details
//
// The amount column is signed: negative for money spent.
type PrivatBankParser struct {
	log   logrus.FieldLogger
	dates dateParser
}

// NewPrivatBankParser returns a parser logging to log (standard logger when nil).
func NewPrivatBankParser(log logrus.FieldLogger) *PrivatBankParser {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PrivatBankParser{
		log: log,
		dates: dateParser{layouts: []string{
			"2.1.2006 15:04",
			"2.1.2006",
			"2/1/2006 15:04",
		}},
	}
}

func (p *PrivatBankParser) BankName() string {
	return "PrivatBank"
}

const (
	privatMinRows    = 4
	privatMinColumns = 7
)

// Header patterns of the first page.
var (
	// АТ КБ "ПРИВАТБАНК", ЄДРПОУ 14360570
	privatBankPattern = regexp.MustCompile(`(АТ\s+КБ\s+"[^"]+"),?\s*ЄДРПОУ\s+(\d+)`)
	// Клієнт БРУСКЕРДО ТОВ, ЄДРПОУ 37762243
	privatClientPattern = regexp.MustCompile(`Клієнт\s+(.+?),\s+ЄДРПОУ\s+(\d+)`)
	// Поточний рахунок №UA403052990000026003000000000
	privatAccountPattern = regexp.MustCompile(`Поточний рахунок\s+№(\w+)`)
)

func (p *PrivatBankParser) Parse(doc *models.Document) (*models.StatementInfo, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}

	info := &models.StatementInfo{
		Bank: models.BankPrivat,
	}
	if len(doc.Pages) > 0 {
		info.Company = p.extractCompany(doc.Pages[0])
	}

	rc := rowContext{company: info.Company, info: info, log: p.log}

	for _, page := range doc.Pages {
		for ti, table := range page.Tables {
			if len(table) < privatMinRows {
				continue
			}
			if len(table[1]) < privatMinColumns || len(table[2]) < privatMinColumns {
				p.log.WithFields(logrus.Fields{"page": page.Number, "table": ti}).Debug("skipping table without statement header")
				continue
			}
			for _, row := range table[3:] {
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

func (p *PrivatBankParser) parseRow(rc rowContext, row []string) (models.Transaction, bool) {
	if len(row) < privatMinColumns {
		return models.Transaction{}, false
	}

	number := cell(row, 0)
	dateText := cell(row, 1)
	amount := parseAmount(row[2])
	details := cell(row, 3)

	opDate, ok := p.dates.parse(dateText)
	if !ok {
		rc.warnDate(number, dateText)
	}

	cp := extractCounterparty(row[5], row[6])
	return buildTransaction(rc.company, number, opDate, amount, details, cp), true
}

// extractCompany reads our own requisites from the first page header.
func (p *PrivatBankParser) extractCompany(page models.Page) models.Company {
	lines := page.Lines()
	var c models.Company
	if m := firstSubmatch(privatBankPattern, lines); m != nil {
		c.BankName, c.BankCode = m[1], m[2]
	}
	if m := firstSubmatch(privatClientPattern, lines); m != nil {
		c.Name, c.INN = m[1], m[2]
	}
	if m := firstSubmatch(privatAccountPattern, lines); m != nil {
		c.Account = m[1]
	}
	return c
}
