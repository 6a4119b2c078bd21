package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/eval-trainer-bot/internal/bot"
	appcfg "github.com/park285/eval-trainer-bot/internal/config"
	"github.com/park285/eval-trainer-bot/internal/httpapi"
	"github.com/park285/eval-trainer-bot/internal/irisfast"
	"github.com/park285/eval-trainer-bot/internal/obslog"
	"github.com/park285/eval-trainer-bot/internal/trainerbuilder"
)

func main() {
	_ = godotenv.Load()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger)
	_ = logger.Sync()
	if err != nil {
		log.Printf("evaltrainer exited: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appcfg.AppConfig, logger *zap.Logger) error {
	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XUserEmail != "" {
			h["X-User-Email"] = cfg.XUserEmail
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	deps, err := trainerbuilder.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})

	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger)
	handler := bot.New(cfg.BotPrefix, deps.Service, deps.Formatter, egress, logger)

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil || !handler.Matches(msg.Msg) {
			return
		}
		// keep the read loop free
		go handler.Handle(ctx, msg)
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		return err
	}
	logger.Info("evaltrainer started", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode))

	g, gctx := errgroup.WithContext(ctx)

	if deps.Syncer != nil {
		if err := deps.Syncer.Start(); err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.HTTPAddr) != "" {
		srv := httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(deps.Service, logger))
		g.Go(func() error {
			logger.Info("http api listening", zap.String("addr", cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ws.Close(cctx)
	})

	err = g.Wait()
	if err != nil {
		logger.Error("evaltrainer stopped with error", zap.Error(err))
	} else {
		logger.Info("evaltrainer stopped")
	}
	return err
}
