package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lastwargame/pvp-backend/internal/hub"
	"github.com/lastwargame/pvp-backend/internal/ws"
)

func SetupRoutes(h *hub.Hub) http.Handler {
	r := chi.NewRouter()

	r.Post("/sessions", CreateSession(h))
	r.Get("/healthz", Healthz)
	r.Get("/hello_world", Hello)
	r.Get("/ws", ws.Handler(h))
	return r
}
