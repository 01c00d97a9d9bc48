package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FEES_DEFAULT_MONTHLY", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN, "dbname=school_fees")
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Fees.DefaultMonthlyFee.Equal(decimal.NewFromInt(500)))
}

func TestLoad_MySQL(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "fees")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Contains(t, cfg.Database.DSN, "fees:@tcp(localhost:3306)")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.Origins)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("FEES_DEFAULT_MONTHLY", "lots")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvDuration_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	assert.Equal(t, time.Second, getEnvDuration("REQUEST_TIMEOUT", time.Second))
}
