package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yigit/photoshare/internal/app/auth"
)

// Handler upgrades HTTP requests into event subscriptions
type Handler struct {
	hub        *Hub
	sendBuffer int
	origins    map[string]struct{}
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler. sendBuffer is the per-client
// queue length; a client that falls further behind is dropped.
func NewHandler(hub *Hub, sendBuffer int, logger zerolog.Logger) *Handler {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	h := &Handler{
		hub:        hub,
		sendBuffer: sendBuffer,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// AllowOrigins restricts subscribers to requests whose Origin header is one
// of origins. With none set every origin is accepted.
func (h *Handler) AllowOrigins(origins ...string) *Handler {
	if len(origins) == 0 {
		h.origins = nil
		return h
	}
	h.origins = make(map[string]struct{}, len(origins))
	for _, o := range origins {
		h.origins[strings.TrimSuffix(o, "/")] = struct{}{}
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.origins == nil {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin.
		return true
	}
	_, ok := h.origins[origin]
	return ok
}

// HandleConnection subscribes the caller to new_activity and
// photo_likes_updated events. Closing the socket unsubscribes.
func (h *Handler) HandleConnection(c *gin.Context) {
	// Anonymous subscribers are allowed; the viewer is only used for logging.
	userID := auth.ViewerID(c.Request.Context())

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:        h.hub,
		conn:       conn,
		send:       make(chan []byte, h.sendBuffer),
		userID:     userID,
		remoteAddr: conn.RemoteAddr().String(),
		logger:     h.logger,
	}
	if err := h.hub.Register(client); err != nil {
		h.logger.Warn().Err(err).Msg("Rejecting subscriber")
		_ = conn.WriteMessage(1001, nil)
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("userID", userID).
		Str("remoteAddr", client.remoteAddr).
		Msg("WebSocket connection established")
}

// Status reports the subscriber count
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subscribers": h.hub.ClientCount()})
}
