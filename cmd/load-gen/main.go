package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"civicpost/internal/telemetry"
)

var zips = []string{"62704", "10001", "94110", "73301", "98101"}
var topics = []string{"public transit funding", "clean water", "school lunches", "broadband access", "park maintenance"}
var sendOptions = []string{"single", "double", "triple"}

func apiAddr() string {
	if v := os.Getenv("API_ADDR"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, _, _, shutdown, err := telemetry.Setup(ctx, "load-gen")
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down load-gen...")
		cancel()
	}()

	interval := 2 * time.Second
	if v := os.Getenv("INTERVAL_MS"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			interval = ms
		}
	}

	addr := apiAddr()
	client := &http.Client{Timeout: 10 * time.Second}

	log.Info("load-gen started",
		zap.String("target", addr),
		zap.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runFlow(ctx, client, addr, log)
		}
	}
}

// runFlow exercises lookup then session creation, the two endpoints a user
// always hits before the payment redirect.
func runFlow(ctx context.Context, client *http.Client, addr string, log *zap.Logger) {
	zip := zips[rand.IntN(len(zips))]

	resp, err := client.Get(fmt.Sprintf("%s/representatives?zip=%s", addr, zip))
	if err != nil {
		log.Warn("lookup request failed", zap.Error(err))
		return
	}
	resp.Body.Close()

	opt := sendOptions[rand.IntN(len(sendOptions))]
	topic := topics[rand.IntN(len(topics))]
	email := fmt.Sprintf("loadgen+%d@example.com", rand.IntN(1000))

	body, _ := json.Marshal(map[string]any{
		"email":     email,
		"full_name": "Load Gen",
		"order": map[string]any{
			"send_option":    opt,
			"message":        "Please support " + topic + ".",
			"sender_address": "123 Main St, Springfield, IL " + zip,
			"representative": map[string]any{
				"name":        "Jane Smith",
				"official_id": "rep-" + zip,
				"chamber":     "house",
			},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, addr+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = client.Do(req)
	if err != nil {
		log.Warn("session request failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	log.Info("flow sent",
		zap.String("zip", zip),
		zap.String("send_option", opt),
		zap.Int("http_status", resp.StatusCode),
	)
}
