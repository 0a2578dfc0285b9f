package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Identity is what the hub needs to know about an authenticated socket.
type Identity struct {
	ID    string
	Role  string
	Rooms []string
}

// IdentityFunc resolves the caller of an upgrade request. It reports false
// when the request is not authenticated.
type IdentityFunc func(c *gin.Context) (Identity, bool)

type HandlerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	AllowedOrigins  []string
}

type Handler struct {
	hub       *Hub
	upgrader  websocket.Upgrader
	identify  IdentityFunc
	onMessage MessageHandler
	ctx       context.Context
}

// NewHandler serves socket upgrades for hub. ctx bounds the lifetime of
// every client read loop.
func NewHandler(ctx context.Context, hub *Hub, cfg HandlerConfig, identify IdentityFunc, onMessage MessageHandler) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		identify:  identify,
		onMessage: onMessage,
		ctx:       ctx,
	}
}

func (h *Handler) HandleWebSocket(c *gin.Context) {
	identity, ok := h.identify(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, identity, h.onMessage)
	h.hub.register <- client

	go client.writePump()
	go client.readPump(h.ctx)
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(r *http.Request) bool { return true }
		}
		set[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
