package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	exchanger "HeatX/internal/calc/exchanger"

	"github.com/gorilla/websocket"
)

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(New(&exchanger.Handler{}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, payload string) Message {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHandler_Recompute(t *testing.T) {
	conn := dial(t)

	msg := roundTrip(t, conn, `{"surface_area_m2":0.157,"readings":[{"m":0.22,"th_in":78,"th_out":65,"tc_in":29,"tc_out":46}]}`)
	if msg.Event != EventResult || msg.Data == nil || len(msg.Data.Results) != 1 {
		t.Fatalf("first result: %+v", msg)
	}
	first := msg.Data.Results[0].OverallCoefficient

	// the same connection recomputes after an edit
	msg = roundTrip(t, conn, `{"surface_area_m2":0.314,"readings":[{"m":0.22,"th_in":78,"th_out":65,"tc_in":29,"tc_out":46}]}`)
	if msg.Event != EventResult || msg.Data == nil {
		t.Fatalf("second result: %+v", msg)
	}
	if got := msg.Data.Results[0].OverallCoefficient; got >= first {
		t.Errorf("U should drop with a larger area: %v -> %v", first, got)
	}
}

func TestHandler_Errors(t *testing.T) {
	conn := dial(t)

	msg := roundTrip(t, conn, `{not json`)
	if msg.Event != EventError || msg.Kind != "invalid_payload" {
		t.Errorf("bad payload: %+v", msg)
	}

	msg = roundTrip(t, conn, `{"surface_area_m2":1,"readings":[]}`)
	if msg.Event != EventError || msg.Kind != "empty_batch" {
		t.Errorf("empty batch: %+v", msg)
	}

	// connection survives errors
	msg = roundTrip(t, conn, `{"surface_area_m2":1,"readings":[{"m":0.3,"th_in":90,"th_out":75,"tc_in":35,"tc_out":55}]}`)
	if msg.Event != EventResult {
		t.Errorf("after errors: %+v", msg)
	}
}
