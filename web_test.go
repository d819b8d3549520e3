/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func testRouter(t *testing.T, mutate func(*Config)) (*Config, *httprouter.Router) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	errs := make(chan error, 16)
	mux, err := newRouter(cfg, errs)
	if err != nil {
		t.Fatalf("Expected router, got %v", err)
	}

	return cfg, mux
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	_, mux := testRouter(t, nil)

	rec := get(t, mux, "/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "Ok\n" {
		t.Errorf("Expected 200 Ok, got %d %q", rec.Code, rec.Body.String())
	}

	rec = get(t, mux, "/version")
	if want := "fingerpick v" + releaseVersion + "\n"; rec.Body.String() != want {
		t.Errorf("Expected %q, got %q", want, rec.Body.String())
	}
}

func TestHomeRedirectsToNewGame(t *testing.T) {
	_, mux := testRouter(t, nil)

	rec := get(t, mux, "/")
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != "/picker" {
		t.Fatalf("Expected redirect to /picker, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = get(t, mux, "/picker")
	loc := rec.Header().Get("Location")
	if rec.Code != http.StatusTemporaryRedirect || !strings.HasPrefix(loc, "/picker/") {
		t.Fatalf("Expected redirect to a game, got %d %q", rec.Code, loc)
	}
	if id := strings.TrimPrefix(loc, "/picker/"); len(id) != 8 {
		t.Errorf("Expected 8 character game id, got %q", id)
	}
}

func TestGamePageUsesPrefix(t *testing.T) {
	_, mux := testRouter(t, func(c *Config) { c.prefix = "/fun/" })

	rec := get(t, mux, "/fun/picker/abcdefgh")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`src="/fun/assets/picker/app.js"`,
		`href="/fun/assets/picker/app.css"`,
		`src="/fun/assets/picker/countdown.wav"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %s", want)
		}
	}
	if strings.Contains(body, "{{prefix}}") {
		t.Error("Expected prefix placeholder to be replaced")
	}
}

func TestStaticAssets(t *testing.T) {
	_, mux := testRouter(t, nil)

	tests := map[string]string{
		"/assets/picker/app.js":        "text/javascript; charset=utf-8",
		"/assets/picker/app.css":       "text/css; charset=utf-8",
		"/favicons/favicon.svg":        "image/svg+xml",
		"/assets/picker/countdown.wav": "audio/wav",
		"/favicons/site.webmanifest":   "application/manifest+json",
	}

	for path, want := range tests {
		rec := get(t, mux, path)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 for %s, got %d", path, rec.Code)
			continue
		}
		if got := rec.Header().Get("Content-Type"); got != want {
			t.Errorf("Expected %s for %s, got %s", want, path, got)
		}
	}

	rec := get(t, mux, "/assets/picker/countdown.wav")
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("RIFF")) {
		t.Error("Expected countdown track to be a RIFF file")
	}
}

func TestQRCode(t *testing.T) {
	_, mux := testRouter(t, nil)

	rec := get(t, mux, "/picker/abcdefgh/qr")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Expected image/png, got %s", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}

func TestMetricsToggle(t *testing.T) {
	_, mux := testRouter(t, nil)
	if rec := get(t, mux, "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 with metrics disabled, got %d", rec.Code)
	}

	_, mux = testRouter(t, func(c *Config) { c.metrics = true })
	rec := get(t, mux, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with metrics enabled, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fingerpick_surfaces_connected") {
		t.Error("Expected surfaces gauge in metrics output")
	}
}

func TestSecurityHeaders(t *testing.T) {
	_, mux := testRouter(t, nil)

	rec := get(t, mux, "/healthz")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Expected no HSTS over plain http, got %q", got)
	}
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5000"

	if got := realIP(r); got != "10.0.0.1:5000" {
		t.Errorf("Expected remote address, got %s", got)
	}

	r.Header.Set("X-Real-IP", "192.0.2.7")
	if got := realIP(r); got != "192.0.2.7:5000" {
		t.Errorf("Expected forwarded address, got %s", got)
	}

	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	if got := realIP(r); got != "[2001:db8::1]:5000" {
		t.Errorf("Expected bracketed v6 address, got %s", got)
	}
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Expected websocket connection, got %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

type wireOp struct {
	Op      string `json:"op"`
	Target  string `json:"target"`
	Visible *bool  `json:"visible"`
	Action  string `json:"action"`
}

type wireMessage struct {
	Type    string   `json:"type"`
	Message string   `json:"message"`
	Ops     []wireOp `json:"ops"`
}

// readUntil reads messages until match reports true or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireMessage) bool) wireMessage {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer conn.SetReadDeadline(time.Time{})

	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("Expected matching message, got %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func hasWireOp(msg wireMessage, pred func(wireOp) bool) bool {
	for _, op := range msg.Ops {
		if pred(op) {
			return true
		}
	}
	return false
}

func TestWebSocketSession(t *testing.T) {
	_, mux := testRouter(t, nil)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dial(t, srv, "/picker/testgame/ws")

	if err := conn.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	readUntil(t, conn, func(m wireMessage) bool {
		return hasWireOp(m, func(op wireOp) bool {
			return op.Op == "show" && op.Target == "welcome" && op.Visible != nil && !*op.Visible
		})
	})

	start := map[string]any{
		"type": "touchstart",
		"touches": []map[string]any{
			{"id": 1, "x": 10, "y": 10},
			{"id": 2, "x": 200, "y": 200},
		},
	}
	if err := conn.WriteJSON(start); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}

	readUntil(t, conn, func(m wireMessage) bool {
		return hasWireOp(m, func(op wireOp) bool {
			return op.Op == "audio" && op.Action == "play"
		})
	})

	// Frames keep arriving while the countdown runs.
	readUntil(t, conn, func(m wireMessage) bool {
		return hasWireOp(m, func(op wireOp) bool { return op.Op == "clear" })
	})
}

func TestWebSocketSecondSurfaceIsBusy(t *testing.T) {
	_, mux := testRouter(t, nil)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	first := dial(t, srv, "/picker/busygame/ws")
	if err := first.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}
	readUntil(t, first, func(m wireMessage) bool { return m.Type == "ops" })

	second := dial(t, srv, "/picker/busygame/ws")
	msg := readUntil(t, second, func(m wireMessage) bool { return true })
	if msg.Type != "busy" {
		t.Errorf("Expected busy message, got %q", msg.Type)
	}

	other := dial(t, srv, "/picker/othergame/ws")
	if err := other.WriteJSON(ClientMessage{Type: "start"}); err != nil {
		t.Fatalf("Expected write to succeed, got %v", err)
	}
	msg = readUntil(t, other, func(m wireMessage) bool { return true })
	if msg.Type != "ops" {
		t.Errorf("Expected separate game to accept a surface, got %q", msg.Type)
	}
}

func TestClientMessageEvents(t *testing.T) {
	known := []string{"start", "touchstart", "touchmove", "touchend", "touchcancel", "tap", "visibility", "resize"}
	for _, typ := range known {
		if _, ok := (ClientMessage{Type: typ}).event(); !ok {
			t.Errorf("Expected %s to map to an event", typ)
		}
	}

	if _, ok := (ClientMessage{Type: "dance"}).event(); ok {
		t.Error("Expected unknown type to be ignored")
	}
}

func TestReapClosesIdleHubs(t *testing.T) {
	cfg := testConfig()
	if err := cfg.validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	gm := newGameManager(0, newMetrics())
	hub := gm.getHub(cfg, "idlegame")

	gm.reap(time.Now().Add(time.Minute))

	select {
	case <-hub.quit:
	default:
		t.Fatal("Expected idle hub to be closed")
	}

	gm.mu.Lock()
	_, ok := gm.hubs["idlegame"]
	gm.mu.Unlock()
	if ok {
		t.Error("Expected idle hub to be removed")
	}
}
