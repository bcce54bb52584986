package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"math-worksheet-backend/internal/domain"
	"github.com/gorilla/websocket"
)

func TestLiveLeaderboardFeed(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	server := httptest.NewServer(env.handler)
	defer server.Close()

	header := http.Header{}
	header.Set("User-Agent", chromeUA)
	header.Set("Origin", localOrigin)

	u := "ws" + server.URL[len("http"):] + "/api/scores/live"
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	initial := readLeaderboard(t, conn)
	if len(initial) != 0 {
		t.Fatalf("expected empty initial leaderboard, got %+v", initial)
	}

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/scores", strings.NewReader(allCorrectBody("Ann")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Origin", localOrigin)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	update := readLeaderboard(t, conn)
	if len(update) != 1 || update[0].Name != "Ann" || update[0].Score != 12 {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestLiveFeedRejectsBots(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	server := httptest.NewServer(env.handler)
	defer server.Close()

	header := http.Header{}
	header.Set("User-Agent", "python-requests/2.31")
	u := "ws" + server.URL[len("http"):] + "/api/scores/live"
	_, resp, err := websocket.DefaultDialer.Dial(u, header)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 handshake response, got %+v", resp)
	}
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) []domain.PublicScore {
	t.Helper()
	var msg outboundMessage[[]domain.PublicScore]
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "leaderboard" {
		t.Fatalf("expected leaderboard message, got %s", msg.Type)
	}
	return msg.Payload
}
