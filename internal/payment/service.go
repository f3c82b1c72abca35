package payment

import (
	"context"
	"strings"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/sources/catalog"
)

// IntentCreator is the payment backend operation the service needs.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string, payees []domain.Payee) (string, error)
}

type Service struct {
	collector *Collector
	intents   IntentCreator
	catalog   *catalog.Catalog
	log       logger.Logger
}

// NewService returns a payment service. A nil intents disables intents.
func NewService(collector *Collector, intents IntentCreator, cat *catalog.Catalog, log logger.Logger) *Service {
	return &Service{collector: collector, intents: intents, catalog: cat, log: log}
}

// Enabled reports whether a payment backend is configured.
func (s *Service) Enabled() bool { return s.intents != nil }

type IntentRequest struct {
	Amount      int64
	Currency    string
	ProductKind string
	Related     domain.RelatedReferences
}

type Intent struct {
	ClientSecret string         `json:"clientSecret"`
	Amount       int64          `json:"amount"`
	Currency     string         `json:"currency"`
	Payees       []domain.Payee `json:"payees"`
}

// CreateIntent prices the purchase from the catalog unless an amount is
// given, collects payees from the related documents and creates the intent.
// A given amount never goes below the product's app price.
func (s *Service) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if s.intents == nil {
		return Intent{}, domain.Upstream(nil, "payments are not configured")
	}

	product, ok := s.catalog.Product(req.ProductKind)
	if !ok {
		return Intent{}, domain.Validation("unknown productKind %q", req.ProductKind)
	}

	amount := req.Amount
	if amount == 0 {
		amount = product.WebPrice
	}
	if amount < 0 {
		return Intent{}, domain.Validation("amount must not be negative")
	}
	if amount < product.AppPrice {
		s.log.Warn("requested amount below product floor, raised",
			logger.String("productKind", product.Kind),
			logger.Int64("requested", amount),
			logger.Int64("floor", product.AppPrice),
		)
		amount = product.AppPrice
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = product.Currency
	}

	payees := s.collector.Collect(ctx, req.Related)

	secret, err := s.intents.CreateIntent(ctx, amount, currency, payees)
	if err != nil {
		return Intent{}, err
	}

	s.log.Info("payment intent created",
		logger.String("productKind", product.Kind),
		logger.Int64("amount", amount),
		logger.Int("payees", len(payees)),
	)
	return Intent{ClientSecret: secret, Amount: amount, Currency: currency, Payees: payees}, nil
}
