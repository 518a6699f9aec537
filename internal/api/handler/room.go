package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/handgame/internal/api/request"
	"github.com/mcoot/handgame/internal/api/response"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/services/room"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	roomController *room.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(roomController *room.Controller) *RoomHandler {
	return &RoomHandler{
		roomController: roomController,
	}
}

// Create handles POST /create-room
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.UserID == "" {
		WriteError(w, NewInvalidRequestError("userId is required"))
		return
	}

	rm, err := h.roomController.CreateRoom(r.Context(), model.PlayerID(req.UserID), req.RoomName)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(rm))
}

// Join handles POST /join-room
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.RoomID == "" || req.UserID == "" {
		WriteError(w, NewInvalidRequestError("roomId and userId are required"))
		return
	}

	// Room IDs are shared verbally, so accept any case
	roomID := model.RoomID(strings.ToUpper(strings.TrimSpace(req.RoomID)))

	rm, err := h.roomController.JoinRoom(r.Context(), roomID, model.PlayerID(req.UserID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(rm))
}

// Get handles GET /rooms/{roomId}/players
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["roomId"])

	rm, err := h.roomController.GetRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(rm))
}
