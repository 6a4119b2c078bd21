package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/park285/eval-trainer-bot/internal/obslog"
	svc "github.com/park285/eval-trainer-bot/internal/service/trainer"
)

func main() {
	file := flag.String("file", "", "JSONL position file (defaults to POSITIONS_FILE)")
	dryRun := flag.Bool("dry-run", false, "validate without writing")
	flag.Parse()

	_ = godotenv.Load()
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	path := strings.TrimSpace(*file)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("POSITIONS_FILE"))
	}
	if path == "" {
		log.Fatal("-file or POSITIONS_FILE is required")
	}

	positions, err := svc.LoadPositionsFile(path)
	if err != nil {
		log.Fatalf("read positions: %v", err)
	}
	logger.Info("positions parsed", zap.String("file", path), zap.Int("count", len(positions)))
	if *dryRun {
		return
	}

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DATABASE_DRIVER")))
	if driver == "" {
		driver = "postgres"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		log.Fatalf("connect %s: %v", driver, err)
	}
	defer db.Close()

	if err := svc.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	inserted, err := svc.NewSQLRepository(db).InsertPositions(ctx, positions)
	if err != nil {
		log.Fatalf("insert: %v", err)
	}
	logger.Info("positions imported", zap.Int("inserted", inserted), zap.Int("skipped", len(positions)-inserted))
}
