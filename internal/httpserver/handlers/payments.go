package handlers

import (
	"net/http"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/httpserver/deps"
	"github.com/planet-nine-app/linkitylink/internal/payment"
)

type intentRequest struct {
	Amount      int64                    `json:"amount"`
	Currency    string                   `json:"currency"`
	ProductKind string                   `json:"productKind"`
	Related     domain.RelatedReferences `json:"relevantBDOs"`
}

type intentResponse struct {
	Success bool `json:"success"`
	payment.Intent
}

// PaymentIntent starts a direct web purchase, splitting revenue with the
// payees of the related documents.
func PaymentIntent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req intentRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, d.Logger, r, err)
			return
		}

		intent, err := d.Payments.CreateIntent(r.Context(), payment.IntentRequest{
			Amount:      req.Amount,
			Currency:    req.Currency,
			ProductKind: req.ProductKind,
			Related:     req.Related,
		})
		if err != nil {
			writeError(w, d.Logger, r, err)
			return
		}
		if intent.Payees == nil {
			intent.Payees = []domain.Payee{}
		}
		writeJSON(w, http.StatusOK, intentResponse{Success: true, Intent: intent})
	}
}
