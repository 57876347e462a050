package app

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"quizrally/internal/config"
	"quizrally/internal/domain"
	"quizrally/internal/quiz"
	"quizrally/internal/stamp"
)

const (
	// StaleRoomTimeout is how long a room may sit without any connection
	// before the sweep removes it.
	StaleRoomTimeout = 2 * time.Hour

	sweepInterval = 10 * time.Minute
)

// RoomCodeChars are characters used for room codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Hub is the process-wide room registry: the only structure in the engine
// that needs explicit locking, because concurrent creation for the same code
// is the one externally racy operation.
type Hub struct {
	rooms map[string]*Room
	mu    sync.RWMutex

	cfg       *config.Config
	questions quiz.Source
	stamps    stamp.Catalog
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a room registry and starts the stale-room sweep.
func NewHub(cfg *config.Config, questions quiz.Source, stamps stamp.Catalog, logger *slog.Logger) *Hub {
	h := &Hub{
		rooms:     make(map[string]*Room),
		cfg:       cfg,
		questions: questions,
		stamps:    stamps,
		logger:    logger,
		done:      make(chan struct{}),
	}

	go h.sweepLoop()

	return h
}

// CreateRoom creates a room with a fresh code.
func (h *Hub) CreateRoom(mode domain.Mode, challengeLevel int) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var code string
	for attempts := 0; attempts < 10; attempts++ {
		code = h.generateRoomCode()
		if _, exists := h.rooms[code]; !exists {
			break
		}
	}
	if _, exists := h.rooms[code]; exists {
		return nil, fmt.Errorf("failed to generate unique room code")
	}

	room := h.newRoomLocked(code, mode, challengeLevel)
	h.logger.Info("room created", "roomCode", code, "mode", mode)
	return room, nil
}

// GetRoom returns a room by code.
func (h *Hub) GetRoom(code string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// GetOrCreate returns the room for the code, creating it on first join. Two
// players opening a fresh code in the same instant resolve to one room.
func (h *Hub) GetOrCreate(code string, mode domain.Mode) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if room, ok := h.rooms[code]; ok {
		return room
	}
	room := h.newRoomLocked(code, mode, 0)
	h.logger.Info("room created on join", "roomCode", code, "mode", mode)
	return room
}

func (h *Hub) newRoomLocked(code string, mode domain.Mode, challengeLevel int) *Room {
	state := domain.NewRoom(code, mode, h.cfg.Game.RoundMax)
	state.ChallengeLevel = challengeLevel
	room := NewRoom(state, h.cfg.Game, h.cfg.Stamp, h.questions, h.stamps, h.logger, h.removeRoom)
	h.rooms[code] = room
	return room
}

// removeRoom is the room's idle callback.
func (h *Hub) removeRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[code]; ok {
		delete(h.rooms, code)
		h.logger.Info("room removed", "roomCode", code)
	}
}

// RoomCount returns the number of active rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// PlayerCount returns the total number of players across all rooms.
func (h *Hub) PlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, room := range h.rooms {
		total += room.Info().Players
	}
	return total
}

// Close shuts down the hub and all rooms.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})

	h.mu.Lock()
	defer h.mu.Unlock()

	for code, room := range h.rooms {
		room.Close()
		delete(h.rooms, code)
	}
}

// generateRoomCode generates a random room code
func (h *Hub) generateRoomCode() string {
	n := h.cfg.Game.RoomCodeLength
	b := make([]byte, n)
	rand.Read(b)

	code := make([]byte, n)
	for i := range code {
		code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
	}

	return string(code)
}

// sweepLoop periodically removes rooms nobody is connected to. Rooms remove
// themselves when they empty out mid-match; the sweep catches rooms that
// were created but never joined.
func (h *Hub) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.sweepStaleRooms()
		}
	}
}

func (h *Hub) sweepStaleRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for code, room := range h.rooms {
		info := room.Info()
		if info.Humans == 0 && now.Sub(info.CreatedAt) > StaleRoomTimeout {
			room.Close()
			delete(h.rooms, code)
			h.logger.Info("stale room removed", "roomCode", code)
		}
	}
}
