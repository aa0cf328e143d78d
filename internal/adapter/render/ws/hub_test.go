package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sarsim/internal/domain/rescue"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/observe/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f Frame
	if err := json.Unmarshal(b, &f); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	return f
}

func waitClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("clients got=%d want=%d", h.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_SendsLatestThenLiveFrames(t *testing.T) {
	h := NewHub(4)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	h.Publish("ep-1", rescue.Snapshot{Tick: 1, GridSize: 10})

	conn := dial(t, srv, "?episode=ep-1")
	defer conn.Close()

	if f := readFrame(t, conn); f.EpisodeID != "ep-1" || f.Snapshot.Tick != 1 {
		t.Fatalf("unexpected first frame: %+v", f)
	}

	h.Publish("ep-2", rescue.Snapshot{Tick: 7})
	h.Publish("ep-1", rescue.Snapshot{Tick: 2})
	if f := readFrame(t, conn); f.EpisodeID != "ep-1" || f.Snapshot.Tick != 2 {
		t.Fatalf("expected filtered live frame, got %+v", f)
	}
}

func TestHub_UnfilteredClientSeesAllEpisodes(t *testing.T) {
	h := NewHub(4)
	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv, "")
	defer conn.Close()
	waitClients(t, h, 1)

	h.Publish("ep-a", rescue.Snapshot{Tick: 1})
	h.Publish("ep-b", rescue.Snapshot{Tick: 1})
	if got := readFrame(t, conn).EpisodeID; got != "ep-a" {
		t.Fatalf("first episode got=%q want=ep-a", got)
	}
	if got := readFrame(t, conn).EpisodeID; got != "ep-b" {
		t.Fatalf("second episode got=%q want=ep-b", got)
	}

	conn.Close()
	waitClients(t, h, 0)
}

func TestHub_PublishDropsForFullClient(t *testing.T) {
	h := NewHub(1)
	c := &client{out: make(chan []byte, 1)}
	h.clients[c] = struct{}{}

	h.Publish("ep", rescue.Snapshot{Tick: 1})
	h.Publish("ep", rescue.Snapshot{Tick: 2})

	if got := h.Dropped(); got != 1 {
		t.Fatalf("dropped got=%d want=1", got)
	}
	if got := len(c.out); got != 1 {
		t.Fatalf("buffered got=%d want=1", got)
	}
}
