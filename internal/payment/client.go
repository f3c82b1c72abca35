package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/utils"
)

// Client is the payment backend.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type intentRequest struct {
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Payees   []domain.Payee `json:"payees"`
}

type intentResponse struct {
	ClientSecret string `json:"paymentIntent"`
	Error        string `json:"error"`
}

// CreateIntent registers a payment of amount minor units split across
// payees and returns the client secret the browser confirms with.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, payees []domain.Payee) (string, error) {
	if payees == nil {
		payees = []domain.Payee{}
	}
	body, err := json.Marshal(intentRequest{Amount: amount, Currency: currency, Payees: payees})
	if err != nil {
		return "", fmt.Errorf("failed to encode intent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment-intents", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("payment backend unreachable", logger.Error(err))
		return "", domain.Upstream(err, "payment backend unreachable")
	}
	defer utils.DrainClose(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", domain.Upstream(err, "failed to read payment backend response")
	}

	var out intentResponse
	_ = json.Unmarshal(data, &out)

	if resp.StatusCode >= 300 {
		c.log.Warn("payment backend error",
			logger.Int("status", resp.StatusCode),
			logger.String("error", out.Error),
		)
		return "", domain.Upstream(nil, "payment backend returned status %d", resp.StatusCode)
	}
	if out.ClientSecret == "" {
		return "", domain.Upstream(nil, "payment backend returned no client secret")
	}
	return out.ClientSecret, nil
}
