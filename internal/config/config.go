package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/eval-trainer-bot/internal/domain"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	RedisURL       string
	DatabaseURL    string
	DatabaseDriver string

	PositionsFile string
	MessagesDir   string

	AllowedRooms []string

	DefaultTimeControl domain.TimeControl
	LeaderboardLimit   int
	LeaderboardSync    time.Duration
	StoreTimeout       time.Duration

	HTTPAddr string

	EgressMode   string
	EgressDryRun bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		DatabaseDriver:     "postgres",
		DefaultTimeControl: domain.TC30s,
		LeaderboardLimit:   30,
		LeaderboardSync:    10 * time.Minute,
		StoreTimeout:       3 * time.Second,
		HTTPAddr:           ":8080",
		EgressMode:         "auto",
	}

	cfg.IrisBaseURL = strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	cfg.IrisWSURL = strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))

	cfg.XUserID = strings.TrimSpace(os.Getenv("X_USER_ID"))
	cfg.XUserEmail = strings.TrimSpace(os.Getenv("X_USER_EMAIL"))
	cfg.XSessionID = strings.TrimSpace(os.Getenv("X_SESSION_ID"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_DRIVER"))); v != "" {
		cfg.DatabaseDriver = v
	} else if looksLikeSQLite(cfg.DatabaseURL) {
		cfg.DatabaseDriver = "sqlite3"
	}
	cfg.PositionsFile = strings.TrimSpace(os.Getenv("POSITIONS_FILE"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	cfg.AllowedRooms = splitList(os.Getenv("ALLOWED_ROOMS"))

	if v := strings.TrimSpace(os.Getenv("DEFAULT_TIME_CONTROL")); v != "" {
		tc, err := domain.ParseTimeControl(v)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_TIME_CONTROL: %w", err)
		}
		cfg.DefaultTimeControl = tc
	}
	if n, ok := positiveInt("LEADERBOARD_LIMIT"); ok {
		cfg.LeaderboardLimit = n
	}
	if n, ok := positiveInt("LEADERBOARD_SYNC_MINUTES"); ok {
		cfg.LeaderboardSync = time.Duration(n) * time.Minute
	}
	if n, ok := positiveInt("STORE_TIMEOUT_MS"); ok {
		cfg.StoreTimeout = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv("EGRESS_MODE"))); v == "http" || v == "ws" || v == "auto" {
		cfg.EgressMode = v
	}
	if v := strings.TrimSpace(os.Getenv("EGRESS_DRYRUN")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EgressDryRun = b
		}
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER %q is not supported", cfg.DatabaseDriver)
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}

	return cfg, nil
}

func looksLikeSQLite(dsn string) bool {
	d := strings.ToLower(dsn)
	return strings.HasPrefix(d, "file:") || d == ":memory:" || strings.HasSuffix(d, ".db") || strings.HasSuffix(d, ".sqlite")
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func positiveInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
