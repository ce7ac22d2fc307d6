package output

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"pingmon/pkg/config"
)

// WS broadcasts every sample as JSON to all websocket clients connected
// to /live on its own listener.
type WS struct {
	name     string
	upgrader websocket.Upgrader
	srv      *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newWS(cfg config.OutputConfig) *WS {
	w := &WS{
		name:    cfg.Name,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/live", w.handleLive)
	w.srv = &http.Server{Addr: cfg.Listen, Handler: mux}
	return w
}

func (w *WS) Name() string { return w.name }

// Start launches the websocket listener in the background.
func (w *WS) Start(ctx context.Context) error {
	go func() {
		if err := w.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("ws output server failed", "output", w.name, "err", err)
		}
	}()
	return nil
}

func (w *WS) handleLive(rw http.ResponseWriter, req *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, req, nil)
	if err != nil {
		return
	}
	w.mu.Lock()
	w.clients[conn] = struct{}{}
	w.mu.Unlock()
}

// Send writes the sample to every client, dropping clients that fail.
func (w *WS) Send(s Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for c := range w.clients {
		if err := c.WriteJSON(s); err != nil {
			c.Close()
			delete(w.clients, c)
		}
	}
}

// Stop disconnects all clients and closes the listener.
func (w *WS) Stop() error {
	w.mu.Lock()
	for c := range w.clients {
		c.Close()
		delete(w.clients, c)
	}
	w.mu.Unlock()
	return w.srv.Close()
}
