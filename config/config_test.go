package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ".NS", cfg.SymbolSuffix)
	assert.Equal(t, "data/signals.db", cfg.SQLitePath)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2.0, cfg.StopMult)
	assert.Equal(t, 3.0, cfg.TPMult)
	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, 45*time.Minute, cfg.RunAfterClose)
	assert.False(t, cfg.RedisEnabled())

	insts := cfg.Instruments()
	require.Len(t, insts, 20)
	assert.Equal(t, "TCS.NS", insts[0].ProviderSymbol())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SYMBOLS", "infy, tcs.ns ,INFY")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("STOP_MULT", "1.5")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 1.5, cfg.StopMult)
	assert.Equal(t, "debug", cfg.LogLevel)

	insts := cfg.Instruments()
	require.Len(t, insts, 2)
	assert.Equal(t, "INFY", insts[0].Symbol)
	assert.Equal(t, "TCS", insts[1].Symbol)
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"lookback too small": {"LOOKBACK_DAYS", "50"},
		"zero workers":       {"WORKERS", "0"},
		"bad level":          {"LOG_LEVEL", "loud"},
		"bad webhook":        {"WEBHOOK_URL", "not a url"},
		"token without chat": {"TELEGRAM_BOT_TOKEN", "abc"},
		"non-numeric":        {"TP_MULT", "three"},
		"only commas":        {"SYMBOLS", " , ,"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"TCS", "RELIANCE"}, ParseSymbols(" tcs,RELIANCE.NS,,tcs"))
	assert.Empty(t, ParseSymbols(""))
	assert.Equal(t, []string{"LT"}, ParseSymbols("LT,BAD SYMBOL"))
}
