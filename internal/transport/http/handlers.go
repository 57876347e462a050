package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"quizrally/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	Mode           string `json:"mode"`
	ChallengeLevel int    `json:"challenge_level"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomCode   string `json:"roomCode"`
	Mode       string `json:"mode"`
	InviteLink string `json:"inviteLink"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode       string `json:"roomCode"`
	Mode           string `json:"mode"`
	State          string `json:"state"`
	PlayerCount    int    `json:"playerCount"`
	RoundNo        int    `json:"roundNo"`
	RoundMax       int    `json:"roundMax"`
	ChallengeLevel int    `json:"challengeLevel,omitempty"`
}

// RoomExistsResponse is the response for checking if room exists
type RoomExistsResponse struct {
	Exists bool `json:"exists"`
}

// MatchRequest identifies the queueing user. Identity is supplied by the
// upstream session; the engine trusts it.
type MatchRequest struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

// MatchPollResponse reports the assigned room code, if any.
type MatchPollResponse struct {
	Code string `json:"code,omitempty"`
}

// StampListResponse lists the stamp keys a user may send.
type StampListResponse struct {
	Stamps []string `json:"stamps"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
	Waiting      int `json:"waiting"`
}

// handleCreateRoom handles POST /api/rooms
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // empty body means a friend room
	}

	mode := domain.ModeFriend
	switch req.Mode {
	case "", string(domain.ModeFriend):
	case string(domain.ModeChallenge):
		mode = domain.ModeChallenge
	default:
		s.sendError(w, http.StatusBadRequest, "INVALID_MODE", "Only friend and challenge rooms can be created directly")
		return
	}

	room, err := s.hub.CreateRoom(mode, req.ChallengeLevel)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		RoomCode:   room.Code(),
		Mode:       string(mode),
		InviteLink: inviteLink(r, room.Code()),
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	room, err := s.hub.GetRoom(roomCode)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	info := room.Info()
	s.sendSuccess(w, &GetRoomResponse{
		RoomCode:       info.Code,
		Mode:           string(info.Mode),
		State:          string(info.State),
		PlayerCount:    info.Players,
		RoundNo:        info.RoundNo,
		RoundMax:       info.RoundMax,
		ChallengeLevel: info.ChallengeLevel,
	})
}

// handleRoomExists handles GET /api/rooms/{roomCode}/exists
func (s *Server) handleRoomExists(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	_, err := s.hub.GetRoom(roomCode)
	s.sendSuccess(w, &RoomExistsResponse{Exists: err == nil})
}

// handleRoomQR handles GET /api/rooms/{roomCode}/qr
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	roomCode := strings.ToUpper(r.PathValue("roomCode"))
	if _, err := s.hub.GetRoom(roomCode); err != nil {
		s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		return
	}

	png, err := qrcode.Encode(inviteLink(r, roomCode), qrcode.Medium, 256)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "QR_FAILED", "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// handleMatchJoin handles POST /api/matchmaking/join
func (s *Server) handleMatchJoin(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatchRequest(w, r)
	if !ok {
		return
	}

	name := req.Name
	if name == "" {
		name = guestName(req.UserID)
	}

	s.queue.Join(req.UserID, name)
	s.sendSuccess(w, nil)
}

// handleMatchCancel handles POST /api/matchmaking/cancel
func (s *Server) handleMatchCancel(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeMatchRequest(w, r)
	if !ok {
		return
	}

	s.queue.Cancel(req.UserID)
	s.sendSuccess(w, nil)
}

// handleMatchPoll handles GET /api/matchmaking/poll?user_id=N
func (s *Server) handleMatchPoll(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID == 0 {
		s.sendError(w, http.StatusBadRequest, "INVALID_USER", "user_id is required")
		return
	}

	code, _ := s.queue.Poll(userID)
	s.sendSuccess(w, &MatchPollResponse{Code: code})
}

// handleStampList handles GET /api/quiz/stamps?user_id=N
func (s *Server) handleStampList(w http.ResponseWriter, r *http.Request) {
	// Guests may omit user_id and get the head-start set.
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

	allowed := s.stamps.AllowedKeys(userID)
	keys := make([]string, 0, len(allowed))
	for key := range allowed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	s.sendSuccess(w, &StampListResponse{Stamps: keys})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{Status: "ok"})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.RoomCount(),
		TotalPlayers: s.hub.PlayerCount(),
		Waiting:      s.queue.WaitingCount(),
	})
}

func (s *Server) decodeMatchRequest(w http.ResponseWriter, r *http.Request) (MatchRequest, bool) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		s.sendError(w, http.StatusBadRequest, "INVALID_USER", "user_id is required")
		return MatchRequest{}, false
	}
	return req, true
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// inviteLink builds the join URL clients encode in QR codes and share links.
func inviteLink(r *http.Request, roomCode string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/join/" + roomCode
}

// guestName renders the display name for guests without one, Guest0000 style.
func guestName(userID int64) string {
	n := userID % 10000
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("Guest%04d", n)
}
