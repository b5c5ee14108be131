package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ivlev/airtour/internal/chapter"
	"github.com/ivlev/airtour/internal/config"
	"github.com/ivlev/airtour/internal/input"
	"github.com/ivlev/airtour/internal/tour"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

var errClientGone = errors.New("client disconnected")

// Server hosts one tour session per websocket connection. The browser
// sends raw input and renders the frames it gets back.
type Server struct {
	cfg      *config.Config
	table    *chapter.Table
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu      sync.Mutex
	clients map[string]*client
}

func New(cfg *config.Config, table *chapter.Table) *Server {
	s := &Server{
		cfg:     cfg,
		table:   table,
		mux:     http.NewServeMux(),
		clients: make(map[string]*client),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/chapters", s.handleChapters)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves until ctx is cancelled. Open sessions are closed
// with it.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Server.Addr,
		Handler:     s.mux,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[*] Listening on %s", s.cfg.Server.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Sessions is the number of connected clients
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// checkOrigin allows the same host when no origins are configured, "*"
// allows everything.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	allowed := s.cfg.Server.AllowedOrigins
	if len(allowed) == 0 {
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	return false
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.table); err != nil {
		log.Printf("[!] encode chapters: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "sessions": s.Sessions()})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[!] websocket upgrade: %v", err)
		return
	}

	q := r.URL.Query()
	width, _ := strconv.Atoi(q.Get("w"))
	height, _ := strconv.Atoi(q.Get("h"))
	dpr, _ := strconv.ParseFloat(q.Get("dpr"), 64)
	profile := input.DetectProfile(r.UserAgent(), width, height, dpr)

	interval := s.cfg.Tour.FrameInterval()
	session := tour.NewSession(s.cfg, s.table, tour.NewSequenceTimeline(interval), profile)

	buffer := s.cfg.Server.FrameBuffer
	if buffer <= 0 {
		buffer = 1
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Outbound, buffer),
		done: make(chan struct{}),
	}
	runner := tour.NewRunner(session, c, interval)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	log.Printf("[*] Session %s connected (%s %dx%d)", c.id, profile.Class, profile.Width, profile.Height)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		log.Printf("[*] Session %s disconnected", c.id)
	}()

	var ids []string
	for _, ch := range s.table.Anchored() {
		ids = append(ids, ch.ID)
	}
	c.enqueue(Outbound{Type: "hello", Session: c.id, Chapters: ids})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx)
		cancel()
	}()
	go func() {
		defer wg.Done()
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errClientGone) {
			log.Printf("[!] Session %s: %v", c.id, err)
		}
		cancel()
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	c.readLoop(runner)
	cancel()
	close(c.done)
	wg.Wait()
}

// client is one websocket connection. Only writeLoop writes to conn.
type client struct {
	id   string
	conn *websocket.Conn
	send chan Outbound
	done chan struct{}

	last    tour.Frame
	hasLast bool
}

// Render pushes a frame only when it differs from the last one sent.
// Events are never dropped; plain frames are when the buffer is full.
func (c *client) Render(frame tour.Frame, events []tour.Event) error {
	if len(events) == 0 && c.hasLast && frame.SameState(c.last) {
		return nil
	}
	c.last, c.hasLast = frame, true

	msg := Outbound{Type: "frame", Frame: &frame, Events: events}
	if len(events) == 0 {
		c.enqueue(msg)
		return nil
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errClientGone
	}
}

func (c *client) enqueue(msg Outbound) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) readLoop(runner *tour.Runner) {
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[!] Session %s read: %v", c.id, err)
			}
			return
		}

		cmd, err := Decode(data)
		if err != nil {
			log.Printf("[!] Session %s: %v", c.id, err)
			c.enqueue(Outbound{Type: "error", Error: err.Error()})
			continue
		}
		if !runner.Send(cmd) {
			return
		}
	}
}

func (c *client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("[!] Session %s write: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
