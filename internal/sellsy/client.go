package sellsy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/billhive/subsync/internal/cache"
	"github.com/billhive/subsync/internal/config"
	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/billhive/subsync/internal/httpclient"
	"github.com/billhive/subsync/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	cacheKeyTaxRateID       = "sellsy:tax_rate_id"
	cacheKeyPaymentMethodID = "sellsy:payment_method_id"

	// Lookup results are stable for far longer than a run
	lookupCacheTTL = 12 * time.Hour
)

// Client talks to the Sellsy v2 REST API. Authentication uses the OAuth2
// client credentials flow; the token source caches the access token and
// refreshes it before expiry.
type Client struct {
	config      config.SellsyConfig
	client      httpclient.Client
	tokenSource oauth2.TokenSource
	cache       cache.Cache
	log         *logger.Logger
}

// NewClient creates a new Sellsy client
func NewClient(cfg config.SellsyConfig, client httpclient.Client, c cache.Cache, log *logger.Logger) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &Client{
		config:      cfg,
		client:      client,
		tokenSource: cc.TokenSource(context.Background()),
		cache:       c,
		log:         log,
	}
}

// request performs an authenticated call and decodes the JSON response into
// out when out is non nil.
func (c *Client) request(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	token, err := c.tokenSource.Token()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to obtain billing platform access token").
			Mark(ierr.ErrConfiguration)
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to encode request payload").
				Mark(ierr.ErrSystem)
		}
	}

	reqHeaders := map[string]string{
		"Authorization": "Bearer " + token.AccessToken,
	}
	for k, v := range headers {
		reqHeaders[k] = v
	}

	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method:  method,
		URL:     c.config.APIURL + path,
		Headers: reqHeaders,
		Body:    payload,
	})
	if err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return ierr.WithError(err).
				WithHintf("Failed to decode response from %s", path).
				Mark(ierr.ErrHTTPClient)
		}
	}
	return nil
}

type taxRate struct {
	ID       int64   `json:"id"`
	Rate     float64 `json:"rate"`
	IsActive bool    `json:"is_active"`
}

// TaxRateID returns the id of the active tax rate matching the configured
// percentage. The result is cached across calls.
func (c *Client) TaxRateID(ctx context.Context) (int64, error) {
	if v, ok := c.cache.Get(ctx, cacheKeyTaxRateID); ok {
		return v.(int64), nil
	}

	var result struct {
		Data []taxRate `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "/taxes", nil, nil, &result); err != nil {
		return 0, err
	}

	for _, tax := range result.Data {
		if tax.IsActive && tax.Rate == c.config.TaxRatePercent {
			c.cache.Set(ctx, cacheKeyTaxRateID, tax.ID, lookupCacheTTL)
			return tax.ID, nil
		}
	}

	return 0, ierr.NewError("tax rate not found in billing platform").
		WithHintf("No active tax rate at %.0f%%", c.config.TaxRatePercent).
		Mark(ierr.ErrConfiguration)
}

type paymentMethod struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// PaymentMethodID returns the id of the payment method whose label contains
// the configured substring, cached across calls. Returns (0, nil) when no
// payment method label is configured.
func (c *Client) PaymentMethodID(ctx context.Context) (int64, error) {
	if c.config.PaymentMethodLabel == "" {
		return 0, nil
	}
	if v, ok := c.cache.Get(ctx, cacheKeyPaymentMethodID); ok {
		return v.(int64), nil
	}

	var result struct {
		Data []paymentMethod `json:"data"`
	}
	if err := c.request(ctx, http.MethodGet, "/payments/methods", nil, nil, &result); err != nil {
		return 0, err
	}

	needle := strings.ToLower(c.config.PaymentMethodLabel)
	for _, pm := range result.Data {
		if strings.Contains(strings.ToLower(pm.Label), needle) {
			c.cache.Set(ctx, cacheKeyPaymentMethodID, pm.ID, lookupCacheTTL)
			return pm.ID, nil
		}
	}

	return 0, ierr.NewError("payment method not found in billing platform").
		WithHintf("No payment method label contains %q", c.config.PaymentMethodLabel).
		Mark(ierr.ErrConfiguration)
}

func invoicePath(invoiceID string) string {
	return fmt.Sprintf("/invoices/%s", invoiceID)
}
