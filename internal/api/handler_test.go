package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WoLand-Q/bank-exchange-converter/internal/models"
	"github.com/WoLand-Q/bank-exchange-converter/internal/service"
	"github.com/WoLand-Q/bank-exchange-converter/internal/writer"
)

type fakeReader struct {
	doc  *models.Document
	err  error
	size int64
}

func (r *fakeReader) LoadReader(_ io.ReaderAt, size int64) (*models.Document, error) {
	r.size = size
	return r.doc, r.err
}

func taskombankDocument() *models.Document {
	return &models.Document{Pages: []models.Page{{
		Number: 1,
		Text:   "АТ \"ТАСКОМБАНК\" Київ, код ID НБУ 339500\nТОВ \"РЕВІ-НАЙТ\", ЄДРПОУ 45619342",
		Tables: []models.Table{{
			{"Дата опер.", "Дебет", "Кредит", "Реквізити кореспондента", "Призначення платежу"},
			{"02.04.2024", "100,00", "", "ТОВ ПОСТАЧАННЯ 33445566", "Оплата. Номер док-та: 553"},
		}},
	}}}
}

func setupTestApp(reader DocumentReader) *fiber.App {
	log, _ := logtest.NewNullLogger()
	svc := service.NewDefault(nil, writer.NewExchangeGenerator("test"), log)
	return NewApp(NewHandler(svc, reader, log), 4<<20)
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response) ConvertResponse {
	t.Helper()
	var out ConvertResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(&fakeReader{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.Equal(t, Version, result["version"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := setupTestApp(&fakeReader{})

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestConvertEndpoint_AutoDetect(t *testing.T) {
	reader := &fakeReader{doc: taskombankDocument()}
	app := setupTestApp(reader)

	resp, err := app.Test(uploadRequest(t, "statement.pdf", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.True(t, out.Success)
	assert.Equal(t, string(models.BankTaskombank), out.Bank)
	assert.Equal(t, 1, out.Count)
	require.NotNil(t, out.Company)
	assert.Equal(t, "РЕВІ-НАЙТ", out.Company.Name)
	assert.Contains(t, out.Content, "Номер=553\n")
	assert.Contains(t, out.Content, "Сумма=100.00\n")
	assert.Equal(t, 1, strings.Count(out.Content, writer.EndOfDocument))
	assert.Equal(t, int64(len("%PDF-1.4 test")), reader.size)
}

func TestConvertEndpoint_ExplicitBank(t *testing.T) {
	app := setupTestApp(&fakeReader{doc: taskombankDocument()})

	// the document holds no PrivatBank-shaped table
	resp, err := app.Test(uploadRequest(t, "statement.PDF", map[string]string{"bank": "privat"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.Equal(t, string(models.BankPrivat), out.Bank)
	assert.Zero(t, out.Count)
}

func TestConvertEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name     string
		reader   *fakeReader
		req      func(t *testing.T) *http.Request
		expected int
		errPart  string
	}{
		{
			name:   "missing file",
			reader: &fakeReader{},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", nil)
			},
			expected: fiber.StatusBadRequest,
			errPart:  "No file uploaded",
		},
		{
			name:   "not a PDF",
			reader: &fakeReader{},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "statement.csv", nil)
			},
			expected: fiber.StatusBadRequest,
			errPart:  "Only PDF",
		},
		{
			name:   "unknown bank",
			reader: &fakeReader{},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "statement.pdf", map[string]string{"bank": "mono"})
			},
			expected: fiber.StatusBadRequest,
			errPart:  "Unknown bank",
		},
		{
			name:   "unreadable PDF",
			reader: &fakeReader{err: errors.New("malformed")},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "statement.pdf", nil)
			},
			expected: fiber.StatusUnprocessableEntity,
			errPart:  "malformed",
		},
		{
			name:   "bank not detected",
			reader: &fakeReader{doc: &models.Document{Pages: []models.Page{{Text: "Monobank"}}}},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "statement.pdf", nil)
			},
			expected: fiber.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(tt.reader)

			resp, err := app.Test(tt.req(t))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.StatusCode)

			out := decode(t, resp)
			assert.False(t, out.Success)
			assert.NotEmpty(t, out.Error)
			assert.Contains(t, out.Error, tt.errPart)
		})
	}
}
