package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.AppPort)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, "usd", cfg.StripeCurrency)
	assert.Equal(t, "payment.exchange", cfg.PaymentExchange)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBUser: "root", DBPassword: "pw", DBHost: "db", DBPort: "3306", DBName: "etuition"}
	assert.Equal(t, "root:pw@tcp(db:3306)/etuition?parseTime=true", cfg.DSN())
}
