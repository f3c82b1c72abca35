package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/handlers"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/mw"
)

func init() { Register(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))

	restricted := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	restricted.Get("/infra", handlers.Infra(d))
	restricted.Post("/admin/index/flush", handlers.FlushIndex(d))
}
