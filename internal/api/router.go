package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/handgame/internal/api/apierr"
	"github.com/mcoot/handgame/internal/api/handler"
	"github.com/mcoot/handgame/internal/api/response"
	"github.com/mcoot/handgame/internal/middleware"
	"github.com/mcoot/handgame/internal/realtime"
	"github.com/mcoot/handgame/internal/services/identity"
	"github.com/mcoot/handgame/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	IdentityService *identity.Service
	RoomController  *room.Controller
	HubManager      *realtime.HubManager
	// Registry backs /metrics and the HTTP request counter
	Registry *prometheus.Registry
	// AllowedOrigin restricts websocket origins; empty allows any
	AllowedOrigin string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	identityHandler := handler.NewIdentityHandler(cfg.IdentityService)
	roomHandler := handler.NewRoomHandler(cfg.RoomController)
	realtimeHandler := handler.NewRealtimeHandler(
		cfg.IdentityService, cfg.RoomController, cfg.HubManager, cfg.AllowedOrigin, cfg.Logger,
	)

	r.Use(middleware.Recovery(cfg.Logger, apiPanicHandler))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Registry))

	// Identity
	r.HandleFunc("/login", identityHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/users/{userId}", identityHandler.GetUser).Methods(http.MethodGet)

	// Rooms
	r.HandleFunc("/create-room", roomHandler.Create).Methods(http.MethodPost)
	r.HandleFunc("/join-room", roomHandler.Join).Methods(http.MethodPost)
	r.HandleFunc("/rooms/{roomId}/players", roomHandler.Get).Methods(http.MethodGet)

	// Game connection
	r.HandleFunc("/ws/{roomId}/{userId}", realtimeHandler.Connect).Methods(http.MethodGet)

	r.HandleFunc("/health", healthHandler(cfg.HubManager)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

func healthHandler(hubs *realtime.HubManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Hubs: hubs.HubCount()})
	}
}

func apiPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
