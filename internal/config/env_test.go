package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wsolMint = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TOKEN_MINTS", "TOKENS_FILE", "RPC_URL", "DB_PATH", "TOP_N",
		"THRESHOLD_PCT", "CHECK_INTERVAL", "AUTO_REFRESH_INTERVAL",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_MINTS", wsolMint)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{wsolMint}, cfg.TokenMints)
	assert.Equal(t, "https://api.mainnet-beta.solana.com", cfg.RPCURL)
	assert.Equal(t, "sellwatch.db", cfg.DBPath)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, "1", cfg.ThresholdPct.String())
	assert.Equal(t, 60*time.Second, cfg.CheckInterval)
	assert.Equal(t, time.Hour, cfg.AutoRefreshInterval)
	assert.False(t, cfg.TelegramEnabled())
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadNoTokensIsFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tokens configured")
}

func TestLoadRejectsMalformedMint(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_MINTS", "not-a-mint")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-mint")
}

func TestLoadMultipleMints(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_MINTS", wsolMint+" , "+usdcMint)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{wsolMint, usdcMint}, cfg.TokenMints)
}

func TestLoadTokensFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tokens.txt")
	require.NoError(t, os.WriteFile(path, []byte("# tracked mints\n"+wsolMint+"\n\n"+usdcMint+"\n"), 0o600))
	t.Setenv("TOKENS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{wsolMint, usdcMint}, cfg.TokenMints)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_MINTS", wsolMint)
	t.Setenv("TOP_N", "5")
	t.Setenv("THRESHOLD_PCT", "0.5")
	t.Setenv("CHECK_INTERVAL", "15")
	t.Setenv("AUTO_REFRESH_INTERVAL", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.TopN)
	assert.Equal(t, "0.5", cfg.ThresholdPct.String())
	assert.Equal(t, 15*time.Second, cfg.CheckInterval)
	assert.Zero(t, cfg.AutoRefreshInterval, "0 disables auto-refresh")
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"TOP_N", "0"},
		{"TOP_N", "21"},
		{"THRESHOLD_PCT", "-1"},
		{"THRESHOLD_PCT", "abc"},
		{"CHECK_INTERVAL", "0"},
		{"AUTO_REFRESH_INTERVAL", "-5"},
		{"LOG_LEVEL", "verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.val, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("TOKEN_MINTS", wsolMint)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadTelegramPairing(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN_MINTS", wsolMint)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:abcdef")

	_, err := Load()
	require.Error(t, err, "token without chat id must fail")

	t.Setenv("TELEGRAM_CHAT_ID", "987654")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(987654), cfg.TelegramChatID)
}
