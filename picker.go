// Fingerpick picker game
//
// Everyone puts a finger on one phone. After a short countdown every disc but
// one shrinks away and the remaining color is announced as the winner.
//
// Features:
// - One game per 8-char ID: /path/:gameid and /path/:gameid/ws
// - The browser only forwards touches; the session state machine runs here
//   and streams drawing, text, vibration and audio operations back
// - One touch surface per game; a second connection is told the game is busy
// - Sessions are reaped after a configurable idle timeout
// - QR code for opening the current game on a phone
// - Countdown ticks synthesized at startup with beep

package main

import (
	"bytes"
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/fingerpick/games/picker"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type    string         `json:"type"`              // "start", "touchstart", "touchmove", "touchend", "tap", "visibility", "resize"
	Touches []picker.Touch `json:"touches,omitempty"` // touch*
	Hidden  bool           `json:"hidden,omitempty"`  // visibility
	Width   float64        `json:"width,omitempty"`   // resize
	Height  float64        `json:"height,omitempty"`  // resize
}

// event converts a client message into a session event.
func (m ClientMessage) event() (picker.Event, bool) {
	switch m.Type {
	case "start":
		return picker.Start{}, true
	case "touchstart":
		return picker.TouchesBegan{Touches: m.Touches}, true
	case "touchmove":
		return picker.TouchesMoved{Touches: m.Touches}, true
	case "touchend", "touchcancel":
		return picker.TouchesEnded{Touches: m.Touches}, true
	case "tap":
		return picker.QuickTap{}, true
	case "visibility":
		return picker.VisibilityChanged{Hidden: m.Hidden}, true
	case "resize":
		return picker.Resized{Width: m.Width, Height: m.Height}, true
	default:
		return nil, false
	}
}

// OpsMessage carries everything a session drew or toggled in one dispatch.
type OpsMessage struct {
	Type string      `json:"type"` // "ops"
	Ops  []picker.Op `json:"ops"`
}

// SimpleMessage is for generic notifications ("busy", "closed").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
}

type clientEvent struct {
	client *Client
	event  picker.Event
}

// Hub owns one game: at most one attached surface and the session driving it.
type Hub struct {
	id      string
	cfg     *Config
	metrics *metrics

	client  *Client
	session *picker.Session
	out     *picker.Batch

	register chan *Client
	unreg    chan *Client
	events   chan clientEvent
	quit     chan struct{}
	quitOnce sync.Once

	mu         sync.RWMutex
	createdAt  time.Time
	lastActive time.Time
}

func newHub(cfg *Config, m *metrics, gameID string) *Hub {
	now := time.Now()
	return &Hub{
		id:         gameID,
		cfg:        cfg,
		metrics:    m,
		out:        &picker.Batch{},
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		events:     make(chan clientEvent, 32),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
	}
}

func (h *Hub) newSession() *picker.Session {
	return picker.New(h.out, picker.Config{
		Countdown:     h.cfg.countdown,
		FrameInterval: h.cfg.frameInterval(),
		IdleDelay:     h.cfg.idleDelay,
		HiddenDelay:   h.cfg.hiddenDelay,
		Palette:       h.cfg.palette,
		Logf:          gameLogger(h.cfg, h.id),
		Observer:      h.metrics,
	})
}

// run is the only goroutine that touches the session. Every event and every
// timer expiry is handled to completion before the next one is read.
func (h *Hub) run() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case c := <-h.register:
			h.touch()

			if h.client != nil {
				c.send <- SimpleMessage{
					Type:    "busy",
					Message: "Someone is already playing this game. Start a new one instead.",
				}
				close(c.send)
				continue
			}

			h.client = c
			h.out.Flush()
			h.session = h.newSession()
			h.metrics.surfaces.Inc()
			logf(h.cfg, "GAMES: Surface %s attached to %s", c.id, h.id)

		case c := <-h.unreg:
			h.touch()

			if c != h.client {
				continue
			}
			close(c.send)
			h.detach()

		case ev := <-h.events:
			if ev.client != h.client || h.session == nil {
				continue
			}
			h.touch()
			h.session.Dispatch(ev.event)

		case <-timer.C:
			if h.session != nil {
				h.session.RunDue()
			}

		case <-h.quit:
			if h.client != nil {
				close(h.client.send)
				h.detach()
			}
			return
		}

		h.flush()
		h.rearm(timer)
	}
}

// detach drops the current surface and its session.
func (h *Hub) detach() {
	logf(h.cfg, "GAMES: Surface %s left %s", h.client.id, h.id)

	h.client = nil
	h.session = nil
	h.out.Flush()
	h.metrics.surfaces.Dec()
}

// flush sends the operations produced by the last dispatch. A client that
// cannot keep up is disconnected rather than shown a partial frame.
func (h *Hub) flush() {
	if h.out.Len() == 0 {
		return
	}

	ops := h.out.Flush()
	if h.client == nil {
		return
	}

	select {
	case h.client.send <- OpsMessage{Type: "ops", Ops: ops}:
	default:
		logf(h.cfg, "GAMES: Surface %s fell behind in %s, disconnecting", h.client.id, h.id)
		close(h.client.send)
		h.detach()
	}
}

func (h *Hub) rearm(timer *time.Timer) {
	if h.session == nil {
		timer.Stop()
		return
	}

	next, ok := h.session.NextDeadline()
	if !ok {
		timer.Stop()
		return
	}

	timer.Reset(time.Until(next))
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

// closeAll disconnects the surface and stops the hub (used by reaper).
func (h *Hub) closeAll() {
	h.quitOnce.Do(func() {
		close(h.quit)
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	idleTimeout time.Duration
	metrics     *metrics
}

func newGameManager(idleTimeout time.Duration, m *metrics) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		idleTimeout: idleTimeout,
		metrics:     m,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gm.metrics, gameID)
	gm.hubs[gameID] = hub
	go hub.run()
	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically removes hubs that have been idle longer than idleTimeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

func (gm *GameManager) reap(cutoff time.Time) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			hub.closeAll()
			logf(hub.cfg, "GAMES: Reaped %s after %s", id, time.Since(hub.createdAt).Round(time.Second))
		}
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 256),
			id:   uuid.NewString(),
		}

		go client.writePump()

		select {
		case hub.register <- client:
		case <-hub.quit:
			close(client.send)
			return
		}

		logf(cfg, "GAMES: Connection %s from %s to %s", client.id, realIP(r), gameID)

		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		ev, ok := msg.event()
		if !ok {
			// ignore unknown types
			continue
		}

		select {
		case h.events <- clientEvent{client: c, event: ev}:
		case <-h.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed assets/picker/index.html
var pickerHTML []byte

func getIndexHandler(cfg *Config) httprouter.Handle {
	page := bytes.ReplaceAll(pickerHTML, []byte("{{prefix}}"), []byte(cfg.prefix))

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_, _ = w.Write(page)
	}
}

func getAudioHandler(cfg *Config, track []byte) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType("countdown.wav"))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		http.ServeContent(w, r, "countdown.wav", time.Time{}, bytes.NewReader(track))
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerPickerGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerPickerGame(cfg *Config, path string, m *metrics, mux *httprouter.Router, errs chan<- error) error {
	track, err := renderCountdownTrack(cfg.countdown)
	if err != nil {
		return err
	}
	logf(cfg, "GAMES: Rendered countdown track (%s)", humanReadableSize(int64(len(track))))

	gm := newGameManager(cfg.sessionTimeout, m)

	// Root path → redirect to new random game
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	// Per-game client view (HTML)
	mux.GET(cfg.prefix+path+"/:gameid", getIndexHandler(cfg))

	// Shared assets (no gameid in route)
	mux.GET(cfg.prefix+"/assets/picker/app.css", serveAssets(cfg, errs))
	mux.GET(cfg.prefix+"/assets/picker/app.js", serveAssets(cfg, errs))
	mux.GET(cfg.prefix+"/assets/picker/countdown.wav", getAudioHandler(cfg, track))

	// Per-game websocket
	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	// Per-game QR code
	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)

	return nil
}
