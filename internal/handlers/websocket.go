package handlers

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/trenchverse/miniapp-bridge/internal/models"
	"github.com/trenchverse/miniapp-bridge/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler owns the game channel: each embedded game client holds
// one connection, and every bridge envelope travels over it as JSON.
type WebSocketHandler struct {
	engine *services.BridgeEngine
	store  *services.LedgerStore
	hub    *gameHub
}

type gameHub struct {
	mu       sync.Mutex
	sessions map[string]*services.GameSession // keyed by fid
}

// wsPusher serializes writes to one connection.
type wsPusher struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPusher) Push(msg models.GameMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(msg)
}

func NewWebSocketHandler(engine *services.BridgeEngine, store *services.LedgerStore) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
		store:  store,
		hub:    &gameHub{sessions: make(map[string]*services.GameSession)},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	fid := c.GetString("fid")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	identity := models.GuestIdentity()
	if fid != "" {
		if stored, err := h.store.GetUser(c.Request.Context(), fid); err == nil {
			identity = *stored
		} else {
			log.Printf("No stored identity for fid %s: %v", fid, err)
			identity.FID = fid
		}
	}

	session := h.engine.NewSession(identity, &wsPusher{conn: conn})
	h.hub.add(fid, session)
	defer h.hub.remove(fid, session)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.engine.HandleRaw(c.Request.Context(), session, raw)
	}
}

// PushCoinsToUser pushes a balance straight to a connected game client.
// This is the registered replacement for the old ambient push callback.
func (h *WebSocketHandler) PushCoinsToUser(fid string, amount int64) bool {
	session := h.hub.get(fid)
	if session == nil {
		return false
	}
	session.PushCoins(amount)
	return true
}

func (hub *gameHub) add(fid string, s *services.GameSession) {
	if fid == "" {
		return
	}
	hub.mu.Lock()
	hub.sessions[fid] = s
	hub.mu.Unlock()
	log.Printf("Game client registered: %s", fid)
}

func (hub *gameHub) remove(fid string, s *services.GameSession) {
	if fid == "" {
		return
	}
	hub.mu.Lock()
	if hub.sessions[fid] == s {
		delete(hub.sessions, fid)
	}
	hub.mu.Unlock()
	log.Printf("Game client unregistered: %s", fid)
}

func (hub *gameHub) get(fid string) *services.GameSession {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return hub.sessions[fid]
}
