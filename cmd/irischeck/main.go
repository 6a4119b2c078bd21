package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/park285/eval-trainer-bot/internal/irisfast"
)

func main() {
	room := flag.String("room", "", "send a test reply to this room")
	mode := flag.String("egress", irisfast.ModeAuto, "egress mode for -room: http|ws|auto")
	watch := flag.Duration("watch", 10*time.Second, "how long to print incoming WS messages")
	flag.Parse()

	_ = godotenv.Load()
	baseURL := os.Getenv("IRIS_BASE_URL")
	wsURL := os.Getenv("IRIS_WS_URL")
	userID := os.Getenv("X_USER_ID")
	userEmail := os.Getenv("X_USER_EMAIL")
	sessionID := os.Getenv("X_SESSION_ID")

	if baseURL == "" {
		log.Fatal("IRIS_BASE_URL is required")
	}

	headers := func() map[string]string {
		m := map[string]string{}
		if userID != "" {
			m["X-User-Id"] = userID
		}
		if userEmail != "" {
			m["X-User-Email"] = userEmail
		}
		if sessionID != "" {
			m["X-Session-Id"] = sessionID
		}
		return m
	}

	client := irisfast.NewClient(baseURL,
		irisfast.WithHeaderProvider(headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cfg, err := client.GetConfig(ctx)
	if err != nil {
		log.Printf("/config error: %v", err)
	} else {
		log.Printf("/config ok: port=%d polling=%d rate=%d endpoint=%s", cfg.Port, cfg.PollingSpeed, cfg.MessageRate, cfg.WebserverEndpoint)
	}

	if wsURL == "" {
		log.Println("IRIS_WS_URL not set; skipping WS check")
		return
	}

	ws := irisfast.NewWebSocket(wsURL, 0, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		log.Printf("WS state: %s", state)
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		fmt.Printf("WS msg room=%s from=%s user=%s text=%q\n", msg.Room, msg.SenderName(), msg.UserID(), msg.Msg)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	if *room != "" {
		eg := irisfast.NewEgress(*mode, false, client, ws, nil)
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := eg.SendText(sctx, *room, "irischeck "+time.Now().Format(time.RFC3339))
		scancel()
		if err != nil {
			log.Printf("send via %s failed: %v", *mode, err)
		} else {
			log.Printf("send via %s ok", *mode)
		}
	}

	t := time.NewTimer(*watch)
	<-t.C

	_ = ws.Close(context.Background())
}
