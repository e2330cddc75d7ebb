package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"avatar_bot/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type staticTokens map[string]int64

func (s staticTokens) Parse(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid token")
}

func startServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, staticTokens{"t1": 1}, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(u, nil)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var env Envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	return env
}

func waitConnections(t *testing.T, hub *Hub, userID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for hub.Connections(userID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("connections of %d = %d, want %d", userID, hub.Connections(userID), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)

	conn, _, err := dial(t, srv, "t1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if env := readEnvelope(t, conn); env.Type != MsgReady {
		t.Fatalf("first message = %+v", env)
	}
	waitConnections(t, hub, 1, 1)

	// events for other users are not delivered
	_ = hub.Notify(context.Background(), domain.Event{Kind: domain.EventBalance, UserID: 2, Balance: 99})
	ev := domain.Event{Kind: domain.EventReferralBonus, UserID: 1, RelatedID: 5, Amount: 2, Balance: 12}
	if err := hub.Notify(context.Background(), ev); err != nil {
		t.Fatal(err)
	}

	env := readEnvelope(t, conn)
	if env.Type != MsgEvent || env.Data == nil {
		t.Fatalf("event message = %+v", env)
	}
	if env.Data.Kind != domain.EventReferralBonus || env.Data.Balance != 12 || env.Data.RelatedID != 5 {
		t.Fatalf("event data = %+v", env.Data)
	}
}

func TestHubPingPongAndDisconnect(t *testing.T) {
	hub := NewHub()
	srv := startServer(t, hub)

	conn, _, err := dial(t, srv, "t1")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readEnvelope(t, conn)

	if err := conn.WriteJSON(ClientMessage{Type: MsgPing}); err != nil {
		t.Fatal(err)
	}
	if env := readEnvelope(t, conn); env.Type != MsgPong {
		t.Fatalf("reply = %+v", env)
	}

	conn.Close()
	waitConnections(t, hub, 1, 0)

	if err := hub.Notify(context.Background(), domain.Event{Kind: domain.EventBalance, UserID: 1}); err != nil {
		t.Fatalf("notify without connections: %v", err)
	}
}

func TestHandleWSRejectsBadToken(t *testing.T) {
	srv := startServer(t, NewHub())

	_, res, err := dial(t, srv, "nope")
	if err == nil {
		t.Fatal("dial with bad token succeeded")
	}
	if res == nil || res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %+v", res)
	}
}
