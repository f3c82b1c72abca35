package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/handlers"
)

func init() { Register(registerPayments) }

func registerPayments(r chi.Router, d deps.Deps) {
	r.Post("/api/payments/intent", handlers.PaymentIntent(d))
}
