package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/handoff"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/sessionless"
)

type createHandoffRequest struct {
	linkPageRequest
	ProductKind string                   `json:"productKind"`
	Related     domain.RelatedReferences `json:"relevantBDOs"`
}

type createHandoffResponse struct {
	Success bool `json:"success"`
	handoff.Created
}

// CreateHandoff registers a pending purchase priced from the catalog. The
// returned sequence is meant to be shown to the user for the app to read.
func CreateHandoff(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createHandoffRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		doc, err := req.draft()
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		product, ok := d.Catalog.Product(strings.TrimSpace(req.ProductKind))
		if !ok {
			writeError(w, d.Logger, r, domain.Validation("unknown productKind %q", req.ProductKind))
			return
		}

		created, err := d.Handoffs.Create(r.Context(), handoff.CreateRequest{
			Draft:       doc,
			Related:     req.Related,
			ProductKind: product.Kind,
			WebPrice:    product.WebPrice,
			AppPrice:    product.AppPrice,
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		writeJSON(w, http.StatusOK, createHandoffResponse{Success: true, Created: created})
	}
}

type verifyRequest struct {
	Sequence []string `json:"sequence"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func VerifySequence(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		if err := d.Handoffs.VerifySequence(r.Context(), chi.URLParam(r, "token"), req.Sequence); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// signatureWindow bounds how far a signed timestamp may drift from the
// server clock, in either direction.
const signatureWindow = 5 * time.Minute

// signedAppRequest is the body of every call made by the companion app.
// Signature covers timestamp + token + pubKey; timestamp is unix millis.
type signedAppRequest struct {
	Timestamp string `json:"timestamp"`
	PubKey    string `json:"pubKey"`
	Signature string `json:"signature"`
	Identity  string `json:"identity"`
}

func (req signedAppRequest) verify(token string, now time.Time) error {
	if req.Timestamp == "" || req.PubKey == "" || req.Signature == "" {
		return domain.Validation("timestamp, pubKey and signature are required")
	}
	ms, err := strconv.ParseInt(req.Timestamp, 10, 64)
	if err != nil {
		return domain.Validation("timestamp must be unix milliseconds")
	}
	if drift := now.Sub(time.UnixMilli(ms)); drift > signatureWindow || drift < -signatureWindow {
		return domain.Unauthorized("signature timestamp outside the accepted window")
	}
	if !sessionless.Verify(req.Signature, req.Timestamp+token+req.PubKey, req.PubKey) {
		return domain.Unauthorized("invalid signature")
	}
	return nil
}

type appViewResponse struct {
	Success bool            `json:"success"`
	Data    handoff.AppView `json:"data"`
}

// AssociateApp binds the signing app to the handoff and returns the
// purchase details it needs for confirmation.
func AssociateApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		var req signedAppRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if err := req.verify(token, d.Now()); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		view, err := d.Handoffs.AssociateAppCredentials(r.Context(), token, handoff.AppCredentials{
			PubKey:   req.PubKey,
			Identity: req.Identity,
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appViewResponse{Success: true, Data: view})
	}
}

type statusResponse struct {
	Success bool `json:"success"`
	handoff.Status
}

// HandoffStatus is polled by the web client. No credentials required.
func HandoffStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := d.Handoffs.GetStatus(r.Context(), chi.URLParam(r, "token"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Success: true, Status: st})
	}
}

// HandoffForApp returns the purchase details to the bound app.
func HandoffForApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := d.Handoffs.GetForApp(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("pubKey"))
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, appViewResponse{Success: true, Data: view})
	}
}

type completeResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"documentId"`
	PubKey     string `json:"pubKey"`
	EmojiID    string `json:"emojiId"`
}

// CompleteHandoff publishes the pending document on behalf of the bound app.
func CompleteHandoff(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		var req signedAppRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if err := req.verify(token, d.Now()); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		res, err := d.Handoffs.Complete(r.Context(), token, req.PubKey)
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		writeJSON(w, http.StatusOK, completeResponse{
			Success:    true,
			DocumentID: res.DocumentID,
			PubKey:     res.PubKey,
			EmojiID:    res.EmojiID,
		})
	}
}
