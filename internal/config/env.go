package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for the service.
type Config struct {
	// Required
	TokenMints []string // tracked token mint addresses

	// Optional (with defaults)
	RPCURL              string          // default: public mainnet
	DBPath              string          // default: "sellwatch.db"
	TopN                int             // default: 10, watch-set size per mint
	ThresholdPct        decimal.Decimal // default: 1, alert on drops >= this percent
	CheckInterval       time.Duration   // default: 60s, balance poll cadence
	AutoRefreshInterval time.Duration   // default: 1h, holder refresh cadence; 0 disables
	LogLevel            string

	// Optional: Telegram sink. Both fields or neither.
	TelegramBotToken string
	TelegramChatID   int64
}

// TelegramEnabled reports whether a notification sink is configured.
func (c Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// Load reads environment variables, applies defaults, validates,
// and returns a Config instance. It attempts to load .env if present.
func Load() (Config, error) {
	// Load .env if it exists; ignore if missing.
	_ = godotenv.Load()

	var cfg Config
	var errs []string

	// --- Required: tracked token mints ---
	// TOKEN_MINTS is a comma-separated list; TOKENS_FILE is one mint per
	// line with '#' comments. Either works, TOKEN_MINTS wins if both set.
	mintsRaw := strings.TrimSpace(os.Getenv("TOKEN_MINTS"))
	if mintsRaw == "" {
		if path := strings.TrimSpace(os.Getenv("TOKENS_FILE")); path != "" {
			loaded, err := readTokensFile(path)
			if err != nil {
				errs = append(errs, fmt.Sprintf("TOKENS_FILE: %v", err))
			} else {
				cfg.TokenMints = loaded
			}
		}
	} else {
		for _, m := range strings.Split(mintsRaw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				cfg.TokenMints = append(cfg.TokenMints, m)
			}
		}
	}
	if len(cfg.TokenMints) == 0 && len(errs) == 0 {
		errs = append(errs, "no tokens configured: set TOKEN_MINTS (comma-separated mints) or TOKENS_FILE")
	}
	for _, m := range cfg.TokenMints {
		if err := validateAddress(m); err != nil {
			errs = append(errs, fmt.Sprintf("token mint %q: %v", m, err))
		}
	}

	// --- Optional Fields with Defaults ---

	// Optional: RPC_URL (default: public mainnet)
	cfg.RPCURL = strings.TrimSpace(os.Getenv("RPC_URL"))
	if cfg.RPCURL == "" {
		cfg.RPCURL = "https://api.mainnet-beta.solana.com"
	} else if !strings.HasPrefix(strings.ToLower(cfg.RPCURL), "http") {
		errs = append(errs, fmt.Sprintf("RPC_URL must be an http(s) endpoint, got %q", cfg.RPCURL))
	}

	// Optional: DB_PATH (default: sellwatch.db)
	cfg.DBPath = strings.TrimSpace(os.Getenv("DB_PATH"))
	if cfg.DBPath == "" {
		cfg.DBPath = "sellwatch.db"
	}

	// Optional: TOP_N (default: 10; the RPC caps getTokenLargestAccounts at 20)
	cfg.TopN = 10
	if raw := strings.TrimSpace(os.Getenv("TOP_N")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			errs = append(errs, fmt.Sprintf("TOP_N must be an integer in 1..20, got %q", raw))
		} else {
			cfg.TopN = n
		}
	}

	// Optional: THRESHOLD_PCT (default: 1). Parsed as decimal, never float,
	// so values like 0.5 compare exactly against computed drops.
	cfg.ThresholdPct = decimal.NewFromInt(1)
	if raw := strings.TrimSpace(os.Getenv("THRESHOLD_PCT")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			errs = append(errs, fmt.Sprintf("THRESHOLD_PCT must be a non-negative decimal, got %q", raw))
		} else {
			cfg.ThresholdPct = d
		}
	}

	// Optional: CHECK_INTERVAL seconds (default: 60)
	cfg.CheckInterval = 60 * time.Second
	if raw := strings.TrimSpace(os.Getenv("CHECK_INTERVAL")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			errs = append(errs, fmt.Sprintf("CHECK_INTERVAL must be a positive integer (seconds), got %q", raw))
		} else {
			cfg.CheckInterval = time.Duration(secs) * time.Second
		}
	}

	// Optional: AUTO_REFRESH_INTERVAL seconds (default: 3600; 0 disables)
	cfg.AutoRefreshInterval = time.Hour
	if raw := strings.TrimSpace(os.Getenv("AUTO_REFRESH_INTERVAL")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			errs = append(errs, fmt.Sprintf("AUTO_REFRESH_INTERVAL must be a non-negative integer (seconds), got %q", raw))
		} else {
			cfg.AutoRefreshInterval = time.Duration(secs) * time.Second
		}
	}

	// Optional: TELEGRAM_BOT_TOKEN + TELEGRAM_CHAT_ID. Absence disables
	// delivery; alerts are still recorded and echoed to stdout.
	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	chatStr := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	if chatStr != "" {
		id, err := strconv.ParseInt(chatStr, 10, 64)
		if err != nil || id == 0 {
			errs = append(errs, fmt.Sprintf("TELEGRAM_CHAT_ID must be a valid integer, got %q", chatStr))
		} else {
			cfg.TelegramChatID = id
		}
	}
	if (cfg.TelegramBotToken == "") != (chatStr == "") {
		errs = append(errs, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together (or both omitted)")
	}

	// Optional: LOG_LEVEL (default: info)
	logLevel := strings.TrimSpace(strings.ToLower(os.Getenv("LOG_LEVEL")))
	switch logLevel {
	case "", "info", "debug", "warn", "error":
		// OK (empty becomes "info")
	default:
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of debug|info|warn|error, got %q", logLevel))
	}
	if logLevel == "" {
		logLevel = "info"
	}
	cfg.LogLevel = logLevel

	if len(errs) > 0 {
		return Config{}, errors.New("config validation error:\n  - " + strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// MustLoad is a convenience for main(): exit fast with a readable error.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		// Print a clean error (no stack trace) so non-Go users can fix env quickly.
		fmt.Fprintf(os.Stderr, "\nFATAL: %v\n\n", err)
		os.Exit(1)
	}
	return cfg
}

// validateAddress checks that s is a plausible base58-encoded 32-byte key.
func validateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("not valid base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decodes to %d bytes, want 32", len(raw))
	}
	return nil
}

// readTokensFile parses one mint per line; blank lines and '#' comments allowed.
func readTokensFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var mints []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mints = append(mints, line)
	}
	if len(mints) == 0 {
		return nil, fmt.Errorf("no mints found in %s", path)
	}
	return mints, nil
}

// RedactedSummary returns a safe human-readable snapshot of the config.
// Useful to log at startup for quick debugging without leaking secrets.
func (c Config) RedactedSummary() string {
	return fmt.Sprintf(
		"config{ mints=%d, rpc=%s, db=%s, top_n=%d, threshold_pct=%s, check_interval=%s, refresh_interval=%s, telegram=%s, chat_id=%d, log_level=%s }",
		len(c.TokenMints),
		redactURL(c.RPCURL),
		c.DBPath,
		c.TopN,
		c.ThresholdPct.String(),
		c.CheckInterval,
		c.AutoRefreshInterval,
		redactToken(c.TelegramBotToken),
		c.TelegramChatID,
		c.LogLevel,
	)
}

func redactToken(tok string) string {
	if len(tok) > 6 {
		return tok[:6] + "...(redacted)"
	}
	if tok == "" {
		return "(disabled)"
	}
	return "***"
}

func redactURL(u string) string {
	parts := strings.Split(u, "api-key=")
	if len(parts) < 2 {
		return u
	}
	tail := parts[1]
	if i := strings.IndexAny(tail, "&;"); i >= 0 {
		tail = tail[:i]
	}
	return strings.Replace(u, "api-key="+tail, "api-key=***", 1)
}
