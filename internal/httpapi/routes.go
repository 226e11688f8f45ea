package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"comaze/internal/room"
)

// SetupRoutes builds the router with the store injected. Every room
// operation is addressed by the shared room code path segment.
func SetupRoutes(s *room.Store, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/position/{room}", PostPosition(s, log))
		r.Get("/position/{room}", GetPosition(s))
		r.Post("/role/{room}", PostRole(s, log))
		r.Get("/role/{room}", GetRole(s))
		r.Post("/switch-roles/{room}", PostSwitchRoles(s, log))
		r.Post("/game-state/{room}", PostGameState(s, log))
		r.Get("/game-state/{room}", GetGameState(s))
		r.Post("/join/{room}", PostJoin(s, log))
		r.Get("/room-status/{room}", GetRoomStatus(s))
		r.Post("/player-ready/{room}", PostPlayerReady(s, log))
		r.Get("/player-ready/{room}", GetPlayerReady(s))
	})
	r.Get("/healthz", Healthz)
	return r
}
