package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET",
		"LOG_LEVEL", "LOG_FORMAT", "TX_TIMEOUT", "DEFAULT_MINIMUM_BALANCE", "DEFAULT_MONTHLY_BUDGET",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "./data/fintrack.db", cfg.DB.Path)
	assert.Equal(t, 5*time.Second, cfg.DB.TxTimeout)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.DefaultMinimumBalance.Equal(decimal.NewFromInt(250)))
	assert.True(t, cfg.DefaultMonthlyBudget.Equal(decimal.NewFromInt(5000)))
	assert.False(t, cfg.Production())
}

func TestOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/fintrack")
	t.Setenv("TX_TIMEOUT", "2s")
	t.Setenv("DEFAULT_MINIMUM_BALANCE", "0")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 2*time.Second, cfg.DB.TxTimeout)
	assert.True(t, cfg.DefaultMinimumBalance.IsZero())
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"PORT": "http"}},
		{"bad timeout", map[string]string{"TX_TIMEOUT": "soon"}},
		{"zero timeout", map[string]string{"TX_TIMEOUT": "0s"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}},
		{"negative minimum", map[string]string{"DEFAULT_MINIMUM_BALANCE": "-1"}},
		{"bad budget", map[string]string{"DEFAULT_MONTHLY_BUDGET": "lots"}},
		{"production without secret", map[string]string{"ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := fromEnv()
			assert.Error(t, err)
		})
	}
}
