package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("ENDPOINT_ADDR_HTTP", ":9999")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("BCRYPT_COST", "11")
	t.Setenv("SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("POSTMARK_SERVER_TOKEN", "tok")

	cfg := defaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 11, cfg.BcryptCost)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "tok", cfg.PostmarkServerToken)

	// untouched variables keep their previous value
	assert.Equal(t, "admin@example.com", cfg.MailFrom)
}

func TestParseEnv_InvalidValuePanics(t *testing.T) {
	t.Setenv("BCRYPT_COST", "lots")

	require.Panics(t, func() { parseEnv(defaults()) })
}
