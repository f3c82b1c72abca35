package handlers

import (
	"net/http"
	"strings"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/render"
)

type linkPageRequest struct {
	Title     string              `json:"title"`
	Links     []domain.LinkRecord `json:"links"`
	Source    string              `json:"source"`
	SourceURL string              `json:"sourceUrl"`
}

// draft validates the request and renders it into an unpublished document.
func (req linkPageRequest) draft() (domain.Document, error) {
	if len(req.Links) == 0 {
		return domain.Document{}, domain.Validation("links must not be empty")
	}
	doc := render.Document(strings.TrimSpace(req.Title), req.Links)
	doc.Source = strings.TrimSpace(req.Source)
	doc.SourceURL = strings.TrimSpace(req.SourceURL)
	return doc, nil
}

type createLinkPageResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	PublicKey  string `json:"publicKey"`
	EmojiID    string `json:"emojiId"`
}

// CreateLinkPage renders and publishes a link page under a fresh identity.
// Only identifiers are returned; clients build viewing URLs themselves.
func CreateLinkPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linkPageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		doc, err := req.draft()
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		res, err := d.Publisher.PublishNew(r.Context(), doc)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		writeJSON(w, http.StatusOK, createLinkPageResponse{
			Success:    true,
			DocumentID: res.DocumentID,
			PublicKey:  res.PubKey,
			EmojiID:    res.EmojiID,
		})
	}
}

type previewResponse struct {
	Success    bool   `json:"success"`
	Layout     string `json:"layout"`
	SVGContent string `json:"svgContent"`
	LinkCount  int    `json:"linkCount"`
}

// PreviewLinkPage renders without publishing.
func PreviewLinkPage(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linkPageRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		doc, err := req.draft()
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		regular, _ := domain.SplitLinks(doc.Links)
		writeJSON(w, http.StatusOK, previewResponse{
			Success:    true,
			Layout:     render.ChooseLayout(len(regular)).String(),
			SVGContent: doc.SVGContent,
			LinkCount:  len(doc.Links),
		})
	}
}

type importRequest struct {
	SourceURL string `json:"sourceUrl"`
}

type importResponse struct {
	Success   bool                `json:"success"`
	SourceURL string              `json:"sourceUrl"`
	Links     []domain.LinkRecord `json:"links"`
}

// ImportLinks collects links from a third-party link page.
func ImportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req importRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		links, err := d.Importer.Import(r.Context(), req.SourceURL)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if links == nil {
			links = []domain.LinkRecord{}
		}

		writeJSON(w, http.StatusOK, importResponse{
			Success:   true,
			SourceURL: req.SourceURL,
			Links:     links,
		})
	}
}
