package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
	"github.com/WoLand-Q/bank-exchange-converter/internal/parser"
	"github.com/WoLand-Q/bank-exchange-converter/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// RequestIDHeader carries the per-request id on every response.
const RequestIDHeader = "X-Request-ID"

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error,omitempty"`
	Bank     string          `json:"bank,omitempty"`
	Company  *models.Company `json:"company,omitempty"`
	Count    int             `json:"count"`
	Warnings []string        `json:"warnings,omitempty"`
	Content  string          `json:"content,omitempty"`
}

// DocumentReader turns an uploaded PDF into a document.
type DocumentReader interface {
	LoadReader(r io.ReaderAt, size int64) (*models.Document, error)
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	svc    *service.StatementService
	reader DocumentReader
	log    logrus.FieldLogger
}

// NewHandler returns handlers converting uploads with svc.
func NewHandler(svc *service.StatementService, reader DocumentReader, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{svc: svc, reader: reader, log: log}
}

// NewApp returns a fiber app with all routes and middleware registered.
func NewApp(h *Handler, bodyLimit int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bank-exchange-converter",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestID)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	app.Get("/api/health", h.HandleHealth)
	app.Post("/api/convert", h.HandleConvert)
}

func requestID(c *fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("requestid", id)
	return c.Next()
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": Version,
	})
}

// HandleConvert accepts a multipart PDF upload in field "file" and an
// optional "bank" field, and returns the generated exchange text.
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	log := h.log.WithField("request_id", c.Locals("requestid"))

	bankParam := strings.TrimSpace(c.FormValue("bank"))
	var bankType models.BankType
	if bankParam != "" {
		bt, err := parser.ParseBankType(bankParam)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest,
				fmt.Sprintf("Unknown bank: %q. Use privat or taskombank.", bankParam))
		}
		bankType = bt
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "Failed to read uploaded file.")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "Failed to read uploaded file.")
	}

	doc, err := h.reader.LoadReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.WithError(err).Warn("PDF extraction failed")
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	if bankType == "" {
		detected, err := parser.AutoDetect(doc)
		if err != nil {
			return writeError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		bankType = detected
	}

	content, info, err := h.svc.ProcessDocument(doc, bankType)
	if err != nil {
		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, service.ErrParserNotFound) {
			status = fiber.StatusBadRequest
		}
		return writeError(c, status, fmt.Sprintf("Parsing failed: %v", err))
	}

	log.WithFields(logrus.Fields{
		"file":         fh.Filename,
		"bank":         bankType,
		"transactions": len(info.Transactions),
	}).Info("converted upload")

	company := info.Company
	return c.JSON(ConvertResponse{
		Success:  true,
		Bank:     string(bankType),
		Company:  &company,
		Count:    len(info.Transactions),
		Warnings: info.Warnings,
		Content:  content,
	})
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}
