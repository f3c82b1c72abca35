package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/handlers"
)

func init() { Register(registerLinkPages) }

func registerLinkPages(r chi.Router, d deps.Deps) {
	r.Post("/api/linkpages", handlers.CreateLinkPage(d))
	r.Post("/api/linkpages/preview", handlers.PreviewLinkPage(d))
	r.Post("/api/linkpages/import", handlers.ImportLinks(d))
}
