package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OwnCompanyINN is the tax id written for our own side of every transaction.
// The back office matches its own company by this value, not by the real ЄДРПОУ.
const OwnCompanyINN = "1"

// PlaceholderCompanyName is used when the statement header carries no client name.
const PlaceholderCompanyName = "OUR_COMPANY"

// UnknownDocumentNumber marks transactions whose document number was not found.
const UnknownDocumentNumber = "UNKNOWN"

// Transaction is a single payment recovered from a bank statement.
type Transaction struct {
	Number string    `json:"number"`
	Date   time.Time `json:"date"`
	// Amount is negative for money spent and non-negative for money received.
	Amount decimal.Decimal `json:"amount"`

	PayerINN     string `json:"payerInn"`
	PayerName    string `json:"payerName"`
	PayerAccount string `json:"payerAccount"`

	RecipientINN     string `json:"recipientInn"`
	RecipientName    string `json:"recipientName"`
	RecipientAccount string `json:"recipientAccount"`

	PaymentDetails string `json:"paymentDetails"`

	// Exactly one of DateIncome and DateOutcome is set.
	DateIncome  *time.Time `json:"dateIncome,omitempty"`
	DateOutcome *time.Time `json:"dateOutcome,omitempty"`
}

// IsOutgoing reports whether our company paid this transaction.
func (t Transaction) IsOutgoing() bool {
	return t.Amount.IsNegative()
}

// Validate checks that the income/outcome dates agree with the amount sign.
func (t Transaction) Validate() error {
	switch {
	case t.DateIncome == nil && t.DateOutcome == nil:
		return errors.New("neither income nor outcome date is set")
	case t.DateIncome != nil && t.DateOutcome != nil:
		return errors.New("both income and outcome dates are set")
	case t.IsOutgoing() && t.DateOutcome == nil:
		return errors.New("negative amount without outcome date")
	case !t.IsOutgoing() && t.DateIncome == nil:
		return errors.New("non-negative amount without income date")
	}
	return nil
}

// Company identifies the statement owner, read from the first page header.
type Company struct {
	Name     string `json:"name,omitempty"`
	INN      string `json:"inn,omitempty"`
	Account  string `json:"account,omitempty"`
	BankName string `json:"bankName,omitempty"`
	BankCode string `json:"bankCode,omitempty"`
}

// DisplayName returns the company name or the placeholder when it is unknown.
func (c Company) DisplayName() string {
	if c.Name == "" {
		return PlaceholderCompanyName
	}
	return c.Name
}

// Counterparty is the other side of a transaction as found in a table cell.
type Counterparty struct {
	Name    string
	INN     string
	Account string
}

// BankType represents supported bank statement formats. The values double as
// parser registry keys.
type BankType string

const (
	BankPrivat     BankType = "privat_pdf"
	BankTaskombank BankType = "taskombank_pdf"
)

// StatementInfo holds everything extracted from one statement.
type StatementInfo struct {
	Bank         BankType
	Company      Company
	Transactions []Transaction
	// Warnings lists recoverable anomalies, e.g. dates that could not be parsed.
	Warnings []string
}
