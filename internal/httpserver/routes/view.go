package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/handlers"
)

func init() { Register(registerView) }

func registerView(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Home(d))
	r.Get("/view/{emojiId}", handlers.ViewByEmoji(d))
	r.Get("/t/{prefix}", handlers.ViewByPrefix(d))
}
