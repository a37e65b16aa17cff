package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
)

type ratesResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

// Currency implements the convert_currency tool using a latest-rates API
type Currency struct {
	logger   *zap.Logger
	client   HTTPDoer
	ratesURL string
}

// CurrencyOption defines a functional option for Currency
type CurrencyOption func(*Currency)

// WithCurrencyHTTPDoer sets the HTTPDoer for Currency
func WithCurrencyHTTPDoer(client HTTPDoer) CurrencyOption {
	return func(c *Currency) {
		c.client = client
	}
}

// NewCurrency creates a new Currency tool
func NewCurrency(logger *zap.Logger, cfg *config.Config, opts ...CurrencyOption) *Currency {
	c := &Currency{
		logger:   logger,
		client:   newHTTPClient(cfg.CurrencyTimeout()),
		ratesURL: cfg.Currency.RatesURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Convert converts an amount between two ISO 4217 currency codes
func (c *Currency) Convert(ctx context.Context, from, to string, amount float64) (string, error) {
	from, err := normalizeCurrencyCode(from)
	if err != nil {
		return "", fmt.Errorf("invalid source currency: %w", err)
	}
	to, err = normalizeCurrencyCode(to)
	if err != nil {
		return "", fmt.Errorf("invalid target currency: %w", err)
	}
	if amount <= 0 {
		return "", fmt.Errorf("amount must be positive, got: %g", amount)
	}

	var rates ratesResponse
	if err := getJSON(ctx, c.client, c.ratesURL+"/"+from, &rates); err != nil {
		return "", fmt.Errorf("rates lookup failed: %w", err)
	}
	if rates.Result != "success" {
		return "", fmt.Errorf("rates lookup failed for %s: %s", from, rates.Result)
	}

	rate, ok := rates.Rates[to]
	if !ok {
		return "", fmt.Errorf("no rate from %s to %s", from, to)
	}

	c.logger.Debug("currency conversion completed",
		zap.String("from", from),
		zap.String("to", to),
		zap.Float64("rate", rate))

	return fmt.Sprintf("%.2f %s = %.2f %s (rate %.6f)", amount, from, amount*rate, to, rate), nil
}

func normalizeCurrencyCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("currency code must be 3 letters, got: %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("currency code must be 3 letters, got: %q", code)
		}
	}
	return code, nil
}
