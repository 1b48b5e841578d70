package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"LOG_LEVEL", "LOG_FORMAT", "EXCHANGE_SENDER", "OUTPUT_PATH", "OUTPUT_ENCODING",
	"PRIVAT_PDF", "TASKOMBANK_PDF", "HTTP_ADDR", "HTTP_BODY_LIMIT_MB",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		// Setenv registers the restore, Unsetenv lets .env files fill the key
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "BankStatementConverter", cfg.Exchange.Sender)
	assert.Equal(t, "out_for_syrve_combined.txt", cfg.Exchange.OutputPath)
	assert.Equal(t, "utf-8", cfg.Exchange.OutputEncoding)
	assert.Equal(t, "privat.pdf", cfg.Input.PrivatPDF)
	assert.Equal(t, "taskombank.pdf", cfg.Input.TaskombankPDF)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 32, cfg.Server.BodyLimitMB)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OUTPUT_ENCODING", "windows-1251")
	t.Setenv("HTTP_BODY_LIMIT_MB", "not-a-number")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "windows-1251", cfg.Exchange.OutputEncoding)
	assert.Equal(t, 32, cfg.Server.BodyLimitMB)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXCHANGE_SENDER", "from-env")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "EXCHANGE_SENDER=from-file\nPRIVAT_PDF=/data/privat.pdf\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Exchange.Sender)
	assert.Equal(t, "/data/privat.pdf", cfg.Input.PrivatPDF)
}

func TestLoad_InvalidBodyLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_BODY_LIMIT_MB", "0")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
