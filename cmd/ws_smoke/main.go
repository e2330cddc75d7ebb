package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"avatar_bot/internal/logger"
	"avatar_bot/internal/service"
	"avatar_bot/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// Smoke test against a running app: connects a websocket as user A, credits
// A through the service API and waits for the balance event.
func main() {
	_ = godotenv.Load()
	logger.Init("info", "text")

	secret := os.Getenv("JWT_SECRET")
	serviceKey := os.Getenv("SERVICE_API_KEY")
	if secret == "" || serviceKey == "" {
		logger.Fatal("JWT_SECRET and SERVICE_API_KEY must be set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base := "127.0.0.1:" + port
	const userID = int64(3001)

	call := func(path string, body any) {
		b, _ := json.Marshal(body)
		req, err := http.NewRequest(http.MethodPost, "http://"+base+path, bytes.NewReader(b))
		if err != nil {
			logger.Fatal("build request", "error", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Service-Key", serviceKey)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			logger.Fatal("request", "path", path, "error", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			logger.Fatal("unexpected status", "path", path, "status", resp.StatusCode)
		}
	}

	call(fmt.Sprintf("/api/v1/accounts/%d", userID), nil)

	token, err := service.NewTokenIssuer(secret, time.Hour).Generate(userID)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?token=%s", base, token), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	waitFor := func(msgType string) *ws.Envelope {
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			_ = conn.SetReadDeadline(deadline)
			var env ws.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				logger.Fatal("read", "error", err)
			}
			if env.Type == msgType {
				return &env
			}
		}
		logger.Fatal("timed out", "waiting_for", msgType)
		return nil
	}

	waitFor(ws.MsgReady)
	call(fmt.Sprintf("/api/v1/accounts/%d/credit", userID), map[string]any{"amount": 1})

	env := waitFor(ws.MsgEvent)
	logger.Info("event received", "kind", env.Data.Kind, "balance", env.Data.Balance)
	logger.Info("smoke test finished")
}
