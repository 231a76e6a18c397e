package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/babypal/internal/flagx"
	"github.com/dmitrijs2005/babypal/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for config files. Durations use timex.Duration so
// both "24h" and integer nanoseconds are accepted. Zero values leave the
// current setting untouched.
type FileConfig struct {
	HTTPAddr       string `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr string `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	GinMode        string `json:"gin_mode" yaml:"gin_mode"`
	LogLevel       string `json:"log_level" yaml:"log_level"`

	DatabaseDSN         string         `json:"database_dsn" yaml:"database_dsn"`
	DatabasePingTimeout timex.Duration `json:"database_ping_timeout" yaml:"database_ping_timeout"`
	HealthCheckInterval timex.Duration `json:"health_check_interval" yaml:"health_check_interval"`

	SecretKey                      string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration    timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	TwoFactorTokenValidityDuration timex.Duration `json:"two_factor_token_validity_duration" yaml:"two_factor_token_validity_duration"`
	PasswordResetValidityDuration  timex.Duration `json:"password_reset_validity_duration" yaml:"password_reset_validity_duration"`
	BcryptCost                     int            `json:"bcrypt_cost" yaml:"bcrypt_cost"`

	FrontendURL   string `json:"frontend_url" yaml:"frontend_url"`
	PublicBaseURL string `json:"public_base_url" yaml:"public_base_url"`
	RedisURL      string `json:"redis_url" yaml:"redis_url"`

	SMTPHost     string         `json:"smtp_host" yaml:"smtp_host"`
	SMTPPort     int            `json:"smtp_port" yaml:"smtp_port"`
	SMTPUsername string         `json:"smtp_username" yaml:"smtp_username"`
	SMTPPassword string         `json:"smtp_password" yaml:"smtp_password"`
	MailFrom     string         `json:"mail_from" yaml:"mail_from"`
	MailTimeout  timex.Duration `json:"mail_timeout" yaml:"mail_timeout"`

	GitHubClientID     string `json:"github_client_id" yaml:"github_client_id"`
	GitHubClientSecret string `json:"github_client_secret" yaml:"github_client_secret"`
	GoogleClientID     string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret" yaml:"google_client_secret"`

	S3RootUser               string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword           string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                 string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                 string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint           string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	PhotoURLValidityDuration timex.Duration `json:"photo_url_validity_duration" yaml:"photo_url_validity_duration"`

	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
}

// parseFile loads the file named by -c/-config, if any. YAML is used for
// .yaml and .yml files, JSON otherwise. An unreadable or malformed file is a
// startup error and panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.GinMode, c.GinMode)
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setDuration(&config.DatabasePingTimeout, c.DatabasePingTimeout)
	setDuration(&config.HealthCheckInterval, c.HealthCheckInterval)

	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.TwoFactorTokenValidityDuration, c.TwoFactorTokenValidityDuration)
	setDuration(&config.PasswordResetValidityDuration, c.PasswordResetValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)

	setString(&config.FrontendURL, c.FrontendURL)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.RedisURL, c.RedisURL)

	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setDuration(&config.MailTimeout, c.MailTimeout)

	setString(&config.GitHubClientID, c.GitHubClientID)
	setString(&config.GitHubClientSecret, c.GitHubClientSecret)
	setString(&config.GoogleClientID, c.GoogleClientID)
	setString(&config.GoogleClientSecret, c.GoogleClientSecret)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PhotoURLValidityDuration, c.PhotoURLValidityDuration)

	setString(&config.MetricsNamespace, c.MetricsNamespace)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
