package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bingo")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", c.Port)
	assert.Equal(t, 3500*time.Millisecond, c.CallInterval)
	assert.Equal(t, time.Duration(0), c.AutoResumeDelay)
	assert.Equal(t, 30*time.Minute, c.SessionRetention)
	assert.Equal(t, "bingo.events", c.RabbitExchange)
	assert.Equal(t, []string{"http://localhost:3000"}, c.Origins())

	margin, commission, referral, err := c.DefaultRates()
	require.NoError(t, err)
	assert.Equal(t, "0.2", margin.String())
	assert.Equal(t, "0.15", commission.String())
	assert.True(t, referral.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bingo")
	t.Setenv("CALL_INTERVAL", "0")
	t.Setenv("AUTO_RESUME_DELAY", "5s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), c.CallInterval)
	assert.Equal(t, 5*time.Second, c.AutoResumeDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.Origins())
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	_, err := Load()
	assert.Error(t, err, "DATABASE_URL is required")

	t.Setenv("DATABASE_URL", "postgres://localhost/bingo")
	t.Setenv("DEFAULT_PROFIT_MARGIN", "twenty")
	_, err = Load()
	assert.ErrorContains(t, err, "DEFAULT_PROFIT_MARGIN")
}
