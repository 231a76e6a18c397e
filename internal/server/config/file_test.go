package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("json", func(t *testing.T) {
		path := writeTempFile(t, "cfg.json", `{
			"http_addr": ":9090",
			"database_dsn": "postgres://db/babypal",
			"secret_key": "my_secret_key",
			"access_token_validity_duration": "2h",
			"password_reset_validity_duration": "12h",
			"smtp_host": "smtp.example.com",
			"smtp_port": 2525,
			"github_client_id": "gh-id"
		}`)
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, ":9090", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db/babypal", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 12*time.Hour, cfg.PasswordResetValidityDuration)
		assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, "gh-id", cfg.GitHubClientID)
		// untouched
		assert.Equal(t, ":50051", cfg.GRPCHealthAddr)
		assert.Equal(t, 12, cfg.BcryptCost)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeTempFile(t, "cfg.yml", "redis_url: redis://localhost:6379/1\nmail_timeout: 3s\ns3_bucket: photos\n")
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		parseFile(cfg)

		assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
		assert.Equal(t, 3*time.Second, cfg.MailTimeout)
		assert.Equal(t, "photos", cfg.S3Bucket)
	})

	t.Run("no file, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}
		cfg := &Config{HTTPAddr: ":1"}
		parseFile(cfg)
		assert.Equal(t, &Config{HTTPAddr: ":1"}, cfg)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "absent.json")}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("malformed json panics", func(t *testing.T) {
		path := writeTempFile(t, "bad.json", `{"http_addr":`)
		os.Args = []string{"testbin", "-c", path}
		assert.Panics(t, func() { parseFile(&Config{}) })
	})
}
