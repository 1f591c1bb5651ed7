package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/textspan/speechmark/core/quote"
	"github.com/textspan/speechmark/internal/batch"
)

func TestWebSocketProgressBroadcast(t *testing.T) {
	srv := NewServer(Config{EngineConfig: quote.DefaultConfig()})
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", wsURL, err)
	}
	defer conn.Close()

	// Registration goes through the hub loop; give it a moment before
	// broadcasting so the message is not dropped.
	time.Sleep(200 * time.Millisecond)
	srv.Hub().BroadcastProgress(batch.Progress{
		RunID: "run-7", DocID: "novel", Completed: 1, Total: 3, Spans: 2,
	})

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("no progress message received: %v", err)
	}

	var msg ProgressMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if msg.Type != "progress" || msg.Progress == nil || msg.Progress.DocID != "novel" {
		t.Errorf("message = %+v, want progress for novel", msg)
	}
	if msg.Timestamp == "" {
		t.Error("message missing timestamp")
	}
}

func TestBroadcastCompleteMessage(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// No clients connected: broadcasting must not block or panic.
	hub.BroadcastComplete("run finished")
	hub.BroadcastProgress(batch.Progress{DocID: "x", Completed: 1, Total: 1})
}
