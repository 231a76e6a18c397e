package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable, e.g. BABYPAL_DATABASE_DSN.
const EnvPrefix = "BABYPAL"

// dotEnvFiles are loaded before the environment is read. Variables already
// set in the process environment win over the file.
var dotEnvFiles = []string{".env"}

// parseEnv overlays BABYPAL_* variables. Unset variables keep the current
// value; a malformed value panics like a malformed config file does.
func parseEnv(config *Config) {
	for _, f := range dotEnvFiles {
		// a missing .env file is normal outside development
		_ = godotenv.Load(f)
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
