package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/realtime"
	"github.com/mcoot/handgame/internal/services/identity"
	"github.com/mcoot/handgame/internal/services/room"
)

// RealtimeHandler upgrades room members to the game connection
type RealtimeHandler struct {
	identityService *identity.Service
	roomController  *room.Controller
	hubManager      *realtime.HubManager
	upgrader        websocket.Upgrader
	logger          *slog.Logger
}

// NewRealtimeHandler creates a realtime handler. An empty allowedOrigin
// accepts any origin.
func NewRealtimeHandler(
	identityService *identity.Service,
	roomController *room.Controller,
	hubManager *realtime.HubManager,
	allowedOrigin string,
	logger *slog.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		identityService: identityService,
		roomController:  roomController,
		hubManager:      hubManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
		logger: logger,
	}
}

// Connect handles GET /ws/{roomId}/{userId}
func (h *RealtimeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := model.RoomID(vars["roomId"])
	userID := model.PlayerID(vars["userId"])

	rm, err := h.roomController.GetRoom(r.Context(), roomID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !rm.HasPlayer(userID) {
		WriteError(w, model.ErrNotInRoom)
		return
	}
	player, err := h.identityService.GetPlayer(r.Context(), userID)
	if err != nil {
		WriteError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error
		h.logger.Warn("websocket upgrade failed",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()),
		)
		return
	}

	client := realtime.NewClient(conn, *player, h.logger)
	h.hubManager.Serve(roomID, client)
}
