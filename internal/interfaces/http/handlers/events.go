package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	httpContracts "github.com/propflow/propflow/internal/http"
)

// Hub fans selection events out to the websocket connections of each
// account, so an open dashboard can live-update its save bar when the
// pending set changes. Connections are grouped per account: one user's
// events never reach another user's sockets.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewHub creates an empty event hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from a different origin in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Broadcast sends an event to every live connection of the account.
// Dead connections are pruned on write failure.
func (hub *Hub) Broadcast(accountID string, event httpContracts.SelectionEvent) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn := range hub.conns[accountID] {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			log.Debug().Err(err).Str("account", accountID).Msg("Dropping dead websocket")
			conn.Close()
			delete(hub.conns[accountID], conn)
		}
	}
}

// CloseAccount drops every connection of the account, used on logout.
func (hub *Hub) CloseAccount(accountID string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	for conn := range hub.conns[accountID] {
		conn.Close()
	}
	delete(hub.conns, accountID)
}

func (hub *Hub) register(accountID string, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.conns[accountID] == nil {
		hub.conns[accountID] = make(map[*websocket.Conn]bool)
	}
	hub.conns[accountID][conn] = true
}

func (hub *Hub) unregister(accountID string, conn *websocket.Conn) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	delete(hub.conns[accountID], conn)
	if len(hub.conns[accountID]) == 0 {
		delete(hub.conns, accountID)
	}
}

// Events handles GET /ws: upgrades to a websocket and streams the
// session's selection events until the client goes away. Browsers
// cannot set headers on websocket dials, so the token also rides the
// query string (bearerToken handles both).
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("Websocket upgrade failed")
		return
	}

	h.hub.register(sess.AccountID, conn)
	defer h.hub.unregister(sess.AccountID, conn)
	defer conn.Close()

	// Read loop exists only to notice the close frame.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
