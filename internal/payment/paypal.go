// Package payment captures approved payments at the external provider.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-storefront/internal/model"
)

var (
	ErrNotConfigured = errors.New("payment provider not configured")
	ErrDeclined      = errors.New("payment not completed")
)

type Provider interface {
	Capture(ctx context.Context, providerOrderID string) (*model.PaymentDetails, error)
}

type PayPalOptions struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type PayPal struct {
	client *resty.Client
	opts   PayPalOptions
	log    *slog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewPayPal(opts PayPalOptions, log *slog.Logger) *PayPal {
	rc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	return &PayPal{client: rc, opts: opts, log: log}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached client-credentials token, fetching a new one
// a minute before the old one expires.
func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && time.Now().Before(p.expiresAt) {
		return p.token, nil
	}
	if p.opts.ClientID == "" || p.opts.ClientSecret == "" {
		return "", ErrNotConfigured
	}

	var out tokenResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.opts.ClientID, p.opts.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&out).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("request paypal token: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || out.AccessToken == "" {
		return "", fmt.Errorf("paypal token request failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	p.token = out.AccessToken
	p.expiresAt = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return p.token, nil
}

type captureResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					Value        string `json:"value"`
					CurrencyCode string `json:"currency_code"`
				} `json:"amount"`
				CreateTime time.Time `json:"create_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// Capture settles an order the buyer already approved with PayPal.
func (p *PayPal) Capture(ctx context.Context, providerOrderID string) (*model.PaymentDetails, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{}).
		SetPathParam("id", providerOrderID).
		Post("/v2/checkout/orders/{id}/capture")
	if err != nil {
		return nil, fmt.Errorf("capture paypal order: %w", err)
	}
	if resp.IsError() {
		p.log.Warn("paypal capture rejected", "order_id", providerOrderID, "status", resp.StatusCode())
		return nil, fmt.Errorf("paypal capture failed with status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var out captureResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("parse capture response: %w", err)
	}
	if out.Status != "COMPLETED" {
		return nil, fmt.Errorf("%w: status %s", ErrDeclined, out.Status)
	}

	var raw map[string]any
	_ = json.Unmarshal(resp.Body(), &raw)

	details := &model.PaymentDetails{
		ProviderOrderID: out.ID,
		Status:          out.Status,
		PayerEmail:      out.Payer.EmailAddress,
		Raw:             raw,
	}
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		capture := out.PurchaseUnits[0].Payments.Captures[0]
		details.CapturedAt = capture.CreateTime
		if amount, err := decimal.NewFromString(capture.Amount.Value); err == nil {
			details.Amount = amount
		}
	}
	return details, nil
}
