package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/handlers"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/mw"
)

func init() { Register(registerHandoff) }

func registerHandoff(r chi.Router, d deps.Deps) {
	verifyLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10_000,
		TrustProxy:        d.TrustProxy,
		Message:           "too many verification attempts, slow down",
	})

	r.Route("/api/handoff", func(r chi.Router) {
		r.Post("/", handlers.CreateHandoff(d))
		r.With(verifyLimit).Post("/{token}/verify", handlers.VerifySequence(d))
		r.Post("/{token}/associate", handlers.AssociateApp(d))
		r.Get("/{token}/status", handlers.HandoffStatus(d))
		r.Get("/{token}/app", handlers.HandoffForApp(d))
		r.Post("/{token}/complete", handlers.CompleteHandoff(d))
	})
}
