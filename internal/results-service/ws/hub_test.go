package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radieske/quiniela-platform/pkg/contracts/events"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_SubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", DrawDate: "2026-10-15"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return hub.Subscribers("2026-10-15") == 1 })

	// outra data não chega ao cliente
	hub.Broadcast(toUpdate(events.ResultPublished{DrawDate: "2026-10-14", LotteryName: "nacional"}))
	hub.Broadcast(toUpdate(events.ResultPublished{DrawDate: "2026-10-15", LotteryName: "provincia", Numbers: []int{1234}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got struct {
		Type     string                 `json:"type"`
		DrawDate string                 `json:"drawDate"`
		Payload  events.ResultPublished `json:"payload"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "result" || got.DrawDate != "2026-10-15" || got.Payload.LotteryName != "provincia" {
		t.Fatalf("update = %+v", got)
	}

	if err := conn.WriteJSON(ClientMsg{Type: "unsubscribe", DrawDate: "2026-10-15"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return hub.Subscribers("2026-10-15") == 0 })
}

func TestHub_PingAndDisconnect(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn := dial(t, srv)
	if err := conn.WriteJSON(ClientMsg{Type: "ping"}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v err=%v", pong, err)
	}

	_ = conn.WriteJSON(ClientMsg{Type: "subscribe", DrawDate: "2026-10-15"})
	waitFor(t, func() bool { return hub.Subscribers("2026-10-15") == 1 })
	conn.Close()
	waitFor(t, func() bool { return hub.Subscribers("2026-10-15") == 0 })
}

func TestToUpdate_Retracted(t *testing.T) {
	u := toUpdate(events.ResultPublished{DrawDate: "2026-10-15", Retracted: true})
	if u.Type != "retracted" {
		t.Fatalf("type = %s", u.Type)
	}
	if _, err := decodeResult([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
