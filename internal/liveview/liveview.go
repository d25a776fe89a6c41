// Package liveview serves a running exploration's path-group state over a
// WebSocket so a dashboard can watch branches fork, complete, dead-end or
// error as they happen, adapted from the teacher's WebSocket server
// plumbing (internal/network/websocket.go's WebSocketListen/Upgrader
// pattern and internal/vm/network_websocket_server.go's broadcast-to-all
// client loop) wired to an explorer snapshot instead of a Sentra
// network_websocket_server.
package liveview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"symexec/internal/explorer"
	"symexec/internal/path"
)

// Snapshot is the JSON payload broadcast to every connected client each
// time the explorer advances a round.
type Snapshot struct {
	Round     int             `json:"round"`
	Active    int             `json:"active"`
	Completed int             `json:"completed"`
	Deadended int             `json:"deadended"`
	Errored   int             `json:"errored"`
	Paths     []PathSummary   `json:"paths"`
	Timestamp time.Time       `json:"timestamp"`
}

// PathSummary is the per-path detail a client renders in its path list.
type PathSummary struct {
	ID     int      `json:"id"`
	Status string   `json:"status"`
	Trace  []string `json:"trace"`
	Error  string   `json:"error,omitempty"`
}

// Server broadcasts explorer snapshots to every connected WebSocket
// client. One Server is created per exploration run.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	http     *http.Server

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// New constructs a liveview server bound to addr (e.g. "127.0.0.1:8765").
// It does not start listening until Start is called.
func New(addr string) *Server {
	return &Server{
		addr:    addr,
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start begins serving the WebSocket endpoint in the background. Callers
// should defer Close.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	s.http = &http.Server{Addr: s.addr, Handler: mux}
	go s.http.ListenAndServe()
}

// Close shuts down the HTTP listener and drops every client connection.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, c := range s.clients {
		c.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	id := fmt.Sprintf("client_%d", time.Now().UnixNano())
	s.mu.Lock()
	s.clients[id] = conn
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, id)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends groups as a Snapshot to every connected client,
// disconnecting any client whose write fails.
func (s *Server) Broadcast(round int, groups *explorer.Groups) error {
	snap := snapshotOf(round, groups)
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.clients {
		if werr := c.WriteMessage(websocket.TextMessage, payload); werr != nil {
			c.Close()
			delete(s.clients, id)
		}
	}
	return nil
}

func snapshotOf(round int, groups *explorer.Groups) Snapshot {
	snap := Snapshot{
		Round:     round,
		Active:    len(groups.Active),
		Completed: len(groups.Completed),
		Deadended: len(groups.Deadended),
		Errored:   len(groups.Errored),
		Timestamp: time.Now(),
	}
	all := make([]PathSummary, 0, snap.Active+snap.Completed+snap.Deadended+snap.Errored)
	for _, p := range groups.Active {
		all = append(all, summarize(p))
	}
	for _, p := range groups.Completed {
		all = append(all, summarize(p))
	}
	for _, p := range groups.Deadended {
		all = append(all, summarize(p))
	}
	for _, p := range groups.Errored {
		all = append(all, summarize(p))
	}
	snap.Paths = all
	return snap
}

func summarize(p *path.Path) PathSummary {
	s := PathSummary{ID: p.ID, Status: p.Status.String(), Trace: p.Trace}
	if p.Err != nil {
		s.Error = p.Err.Error()
	}
	return s
}
