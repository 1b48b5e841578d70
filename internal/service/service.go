// Package service ties a bank parser to the exchange-file generator.
package service

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
	"github.com/WoLand-Q/bank-exchange-converter/internal/parser"
	"github.com/WoLand-Q/bank-exchange-converter/internal/writer"
)

// ErrParserNotFound is returned when no parser is registered under a key.
var ErrParserNotFound = errors.New("parser not found")

// Loader opens a statement file as a document.
type Loader interface {
	Load(path string) (*models.Document, error)
}

// StatementService converts statement files into exchange text.
type StatementService struct {
	parsers   map[models.BankType]parser.Parser
	loader    Loader
	generator *writer.ExchangeGenerator
	log       logrus.FieldLogger
}

// New returns a service with no parsers registered.
func New(loader Loader, generator *writer.ExchangeGenerator, log logrus.FieldLogger) *StatementService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if generator == nil {
		generator = writer.NewExchangeGenerator("")
	}
	return &StatementService{
		parsers:   make(map[models.BankType]parser.Parser),
		loader:    loader,
		generator: generator,
		log:       log,
	}
}

// NewDefault returns a service with the PrivatBank and Taskombank parsers registered.
func NewDefault(loader Loader, generator *writer.ExchangeGenerator, log logrus.FieldLogger) *StatementService {
	s := New(loader, generator, log)
	s.RegisterParser(models.BankPrivat, parser.NewPrivatBankParser(s.log))
	s.RegisterParser(models.BankTaskombank, parser.NewTaskombankParser(s.log))
	return s
}

// RegisterParser makes p available under key, replacing any previous one.
func (s *StatementService) RegisterParser(key models.BankType, p parser.Parser) {
	s.parsers[key] = p
}

// Parser returns the parser registered under key.
func (s *StatementService) Parser(key models.BankType) (parser.Parser, error) {
	p, ok := s.parsers[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrParserNotFound, key)
	}
	return p, nil
}

// ProcessFile loads the statement at path, parses it with the parser
// registered under key and returns the generated exchange text.
func (s *StatementService) ProcessFile(path string, key models.BankType) (string, error) {
	p, err := s.Parser(key)
	if err != nil {
		return "", err
	}
	if s.loader == nil {
		return "", errors.New("no document loader configured")
	}

	log := s.log.WithFields(logrus.Fields{"file": path, "parser": key})
	log.Info("processing statement")

	doc, err := s.loader.Load(path)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}

	content, _, err := s.generate(p, doc, log)
	return content, err
}

// ProcessDocument parses an already loaded document and returns the
// generated exchange text along with the parsed statement.
func (s *StatementService) ProcessDocument(doc *models.Document, key models.BankType) (string, *models.StatementInfo, error) {
	p, err := s.Parser(key)
	if err != nil {
		return "", nil, err
	}
	return s.generate(p, doc, s.log.WithField("parser", key))
}

func (s *StatementService) generate(p parser.Parser, doc *models.Document, log logrus.FieldLogger) (string, *models.StatementInfo, error) {
	info, err := p.Parse(doc)
	if err != nil {
		return "", nil, fmt.Errorf("%s parsing failed: %w", p.BankName(), err)
	}

	log.WithFields(logrus.Fields{
		"company":      info.Company.DisplayName(),
		"transactions": len(info.Transactions),
		"warnings":     len(info.Warnings),
	}).Debug("statement parsed")
	if len(info.Transactions) == 0 {
		// extractor tables come only from rectangle rulings
		log.Warn("no transactions found: the table layout does not match, or the table grid is drawn with line paths instead of rectangles")
	}

	return s.generator.GenerateFileContent(info.Transactions), info, nil
}
