package config_test

import (
	"testing"
	"time"

	"anonmatch/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANONMATCH_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ANONMATCH_ADMIN_JWT_SECRET", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, 10*time.Second, cfg.Telegram.SendTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Broadcast.Workers)
	assert.Empty(t, cfg.Admin.JWTSecret, "admin tokens need an explicit secret")
}

func TestPostgresDSN(t *testing.T) {
	c := config.PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "anon", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=anon port=5433 sslmode=disable", c.DSN())
}

func TestLoad_AdminIDs(t *testing.T) {
	t.Setenv("ANONMATCH_ADMIN_IDS", "111,222")
	t.Setenv("ANONMATCH_TELEGRAM_SEND_TIMEOUT", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Admin.IsAdmin(111))
	assert.True(t, cfg.Admin.IsAdmin(222))
	assert.False(t, cfg.Admin.IsAdmin(333))
	assert.Equal(t, 3*time.Second, cfg.Telegram.SendTimeout)
}

func TestSubscriptionPlansSeed(t *testing.T) {
	require.Len(t, config.SubscriptionPlans, 3)
	assert.Equal(t, 7, config.SubscriptionPlans[0].DurationDays)
	assert.Equal(t, 30, config.SubscriptionPlans[1].DurationDays)
	assert.Equal(t, 365, config.SubscriptionPlans[2].DurationDays)
}
