package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates configuration defaults and store-driver validation.
// Scope: Unit Test
// Expected: The memory driver loads without a database password; postgres requires one.
// Test Case ID: CFG-01
func TestLoad_Drivers(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_PASSWORD", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Matches.DuplicateWindow)
	assert.Equal(t, 5, cfg.Ranking.BatchSize)
	assert.Equal(t, "+09:00", cfg.Calendar.UTCOffset)
	assert.True(t, cfg.Tenancy.LegacyNullCompat)

	t.Setenv("STORE_DRIVER", "postgres")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_PASSWORD")

	t.Setenv("DATABASE_URL", "postgres://clubledger@localhost:5432/clubledger")
	_, err = Load()
	assert.NoError(t, err)

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "STORE_DRIVER")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("STORE_DRIVER=memory\nTENANCY_MODE=strict\nRANKING_BATCH_SIZE=8\n"), 0o600))
	t.Setenv("RANKING_BATCH_SIZE", "3")
	// godotenv writes into the process environment.
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("TENANCY_MODE")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "strict", cfg.Tenancy.Mode)
	assert.Equal(t, 3, cfg.Ranking.BatchSize, "environment wins over .env")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			Tenancy:  TenancyConfig{Mode: "permissive"},
			Matches:  MatchConfig{DuplicateWindow: time.Minute},
			Ranking:  RankingConfig{BatchSize: 1},
		}
	}
	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Tenancy.Mode = "federated"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Ranking.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Matches.DuplicateWindow = 0
	assert.Error(t, cfg.Validate())
}
