package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/render"
	"github.com/planet-nine-app/linkitylink/internal/resolver"
)

// ViewByEmoji renders the page published under the emoji identifier in the path.
func ViewByEmoji(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := d.Resolver.ResolveByEmoji(r.Context(), chi.URLParam(r, "emojiId"))
		if err != nil {
			writePageError(w, d.Logger, r, err)
			return
		}
		writeLinkPage(w, d.Logger, r, page)
	}
}

// Home renders the page named by ?emojicode=, or the demo page without one.
func Home(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		emojiID := strings.TrimSpace(r.URL.Query().Get("emojicode"))
		if emojiID == "" {
			writeLinkPage(w, d.Logger, r, resolver.Page{Links: d.Catalog.DemoLinks(), Demo: true})
			return
		}

		page, err := d.Resolver.ResolveByEmoji(r.Context(), emojiID)
		if err != nil {
			writePageError(w, d.Logger, r, err)
			return
		}
		writeLinkPage(w, d.Logger, r, page)
	}
}

// ViewByPrefix renders the page whose public key starts with the path prefix.
func ViewByPrefix(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := d.Resolver.ResolveByPrefix(r.Context(), chi.URLParam(r, "prefix"))
		if err != nil {
			writePageError(w, d.Logger, r, err)
			return
		}
		writeLinkPage(w, d.Logger, r, page)
	}
}

func writeLinkPage(w http.ResponseWriter, log logger.Logger, r *http.Request, page resolver.Page) {
	links := domain.TruncateLinks(page.Links)
	body, err := render.Page(page.Title, render.SVG(page.Title, links), page.Demo)
	if err != nil {
		writePageError(w, log, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeHTML(w, http.StatusOK, body)
}
