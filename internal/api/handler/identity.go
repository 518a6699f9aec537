package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/handgame/internal/api/request"
	"github.com/mcoot/handgame/internal/api/response"
	"github.com/mcoot/handgame/internal/model"
	"github.com/mcoot/handgame/internal/services/identity"
)

// IdentityHandler handles the identity endpoints
type IdentityHandler struct {
	identityService *identity.Service
}

// NewIdentityHandler creates a new identity handler
func NewIdentityHandler(identityService *identity.Service) *IdentityHandler {
	return &IdentityHandler{
		identityService: identityService,
	}
}

// Login handles POST /login
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := request.Decode(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.identityService.Login(r.Context(), req.Username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(player))
}

// GetUser handles GET /users/{userId}
func (h *IdentityHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["userId"])

	player, err := h.identityService.GetPlayer(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(player))
}
