package tests

import (
	"os"
	"testing"

	"github.com/joho/godotenv"

	"github.com/GintGld/video-splitter/internal/config"
)

// Actual environment
var (
	_          = godotenv.Load("../.env")
	cfg        = loadConfig()
	sourceFile = os.Getenv("SOURCE_FILE")
)

func loadConfig() *config.Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		return nil
	}

	return config.MustLoadPath(path)
}

// skipWithoutEnv skips functional tests when no running
// instance is configured.
func skipWithoutEnv(t *testing.T) {
	t.Helper()

	if cfg == nil {
		t.Skip("CONFIG_PATH is not set, skipping functional tests")
	}
}
