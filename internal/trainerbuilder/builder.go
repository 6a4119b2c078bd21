package trainerbuilder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/eval-trainer-bot/internal/adapter/trainerpresenter"
	"github.com/park285/eval-trainer-bot/internal/config"
	"github.com/park285/eval-trainer-bot/internal/leaderboard"
	"github.com/park285/eval-trainer-bot/internal/msgcat"
	svc "github.com/park285/eval-trainer-bot/internal/service/trainer"
)

type Deps struct {
	Service   *svc.Service
	Repo      svc.Repository
	Board     *leaderboard.Board
	Syncer    *leaderboard.Syncer
	Formatter *trainerpresenter.Formatter

	db  *sqlx.DB
	rdb *redis.Client
}

type prefixProvider struct{ prefix string }

func (p prefixProvider) Prefix() string { return p.prefix }

// New builds the trainer service and its stores. Without DATABASE_URL positions and
// profiles live in memory; without REDIS_URL leaderboards are read from the repository.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := openDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.db = db
		if err := svc.Migrate(ctx, db); err != nil {
			deps.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		deps.Repo = svc.NewSQLRepository(db)
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory trainer repository")
		deps.Repo = svc.NewMemoryRepository()
	}

	if err := seedIfEmpty(ctx, deps.Repo, cfg.PositionsFile, logger); err != nil {
		deps.Close()
		return nil, err
	}

	var board svc.Board
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		deps.rdb = redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = deps.rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		deps.Board = leaderboard.NewBoard(deps.rdb, "")
		board = deps.Board
	}

	service, err := svc.NewService(deps.Repo, board, svc.Config{
		AllowedRooms:       append([]string(nil), cfg.AllowedRooms...),
		DefaultTimeControl: cfg.DefaultTimeControl,
		StoreTimeout:       cfg.StoreTimeout,
		LeaderboardLimit:   cfg.LeaderboardLimit,
	}, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Service = service

	if deps.Board != nil {
		deps.Syncer = leaderboard.NewSyncer(deps.Board, deps.Repo, cfg.LeaderboardSync, logger)
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		deps.Close()
		return nil, fmt.Errorf("load messages: %w", err)
	}
	deps.Formatter = trainerpresenter.NewFormatter(prefixProvider{prefix: cfg.BotPrefix}, cat)
	return deps, nil
}

// Close stops countdowns and releases connections. It is safe on a partially built Deps.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Syncer != nil {
		d.Syncer.Stop()
	}
	if d.Service != nil {
		d.Service.Close()
	}
	if d.rdb != nil {
		_ = d.rdb.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}

func openDB(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		// one writer; :memory: would otherwise give each connection its own database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func seedIfEmpty(ctx context.Context, repo svc.Repository, path string, logger *zap.Logger) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	n, err := repo.CountPositions(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	positions, err := svc.LoadPositionsFile(path)
	if err != nil {
		return err
	}
	inserted, err := repo.InsertPositions(ctx, positions)
	if err != nil {
		return fmt.Errorf("seed positions: %w", err)
	}
	logger.Info("seeded positions", zap.String("file", path), zap.Int("inserted", inserted))
	return nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		return nil, err
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("redis db %q: %w", p, err)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{
		Addr:     host + ":" + portStr,
		Username: u.User.Username(),
		Password: pass,
		DB:       db,
	}, nil
}
