package ws

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"quizrally/internal/app"
	"quizrally/internal/domain"
)

// Handler upgrades connections on /ws/quiz/{code} and hands them to the
// room's control loop. The room code is an opaque token supplied by the
// invite or matchmaking subsystem.
type Handler struct {
	hub      *app.Hub
	queue    *app.MatchQueue
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *app.Hub, queue *app.MatchQueue, logger *slog.Logger) *Handler {
	return &Handler{
		hub:   hub,
		queue: queue,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	if code == "" {
		http.Error(w, "room code is required", http.StatusBadRequest)
		return
	}

	// Joining an unseen code opens a friend room; matchmaking pre-creates
	// its rooms with random mode.
	room := h.hub.GetOrCreate(code, domain.ModeFriend)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.logger.Info("websocket connected", "roomCode", code)

	client := NewClient(conn, room, h.logger)
	client.onHello = func(userID int64) {
		// A player reaching their room is done with matchmaking.
		h.queue.ClearFor(userID)
	}
	client.refreshRoom = func() *app.Room {
		return h.hub.GetOrCreate(code, domain.ModeFriend)
	}
	client.Run()
}
