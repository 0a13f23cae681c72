// Package square retrieves card payments from the Square Payments API and
// extracts their tips.
package square

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/warp/tip-engine/generic"
	"github.com/warp/tip-engine/tips"
)

const (
	DefaultBaseURL = "https://connect.squareup.com"
	service        = "square"
)

// Client is a client for the Square Payments API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
	location    *time.Location
}

type Options struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	// Location is the business time zone; it bounds the requested days and
	// is the zone tip instants are converted to.
	Location *time.Location
	Logger   *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.AccessToken == "" {
		return nil, fmt.Errorf("%w: square access token is required", generic.ErrMissingCredentials)
	}
	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimSuffix(base, "/"),
		accessToken: opts.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With("service", service),
		location:    loc,
	}, nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type Payment struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	TipMoney  *Money `json:"tip_money,omitempty"`
}

// TipCents is zero for a payment without tip_money.
func (p Payment) TipCents() int64 {
	if p.TipMoney == nil {
		return 0
	}
	return p.TipMoney.Amount
}

type listPaymentsResponse struct {
	Payments []Payment `json:"payments"`
	Cursor   string    `json:"cursor"`
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Payments lists every payment created during the period's days in the
// business location, following the pagination cursor.
func (c *Client) Payments(ctx context.Context, period generic.Period) ([]Payment, error) {
	begin := period.Start.In(c.location)
	end := period.End.AddDays(1).In(c.location).Add(-time.Second)

	var payments []Payment
	cursor := ""
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("begin_time", begin.Format(time.RFC3339))
		q.Set("end_time", end.Format(time.RFC3339))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp listPaymentsResponse
		if err := c.get(ctx, "list payments", "/v2/payments", q, &resp); err != nil {
			return nil, err
		}
		payments = append(payments, resp.Payments...)
		c.logger.Debug("fetched payments page", "page", page, "payments", len(resp.Payments))

		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}
	return payments, nil
}

// Tips fetches the period's payments and returns the tip events among them
// together with the number of payments seen.
func (c *Client) Tips(ctx context.Context, period generic.Period) ([]tips.TipEvent, int, error) {
	payments, err := c.Payments(ctx, period)
	if err != nil {
		return nil, 0, err
	}
	events := CreditTips(payments, c.location, c.logger)
	c.logger.Info("fetched payments", "period", period.String(), "payments", len(payments), "credit_tips", len(events))
	return events, len(payments), nil
}

// CreditTips keeps payments with a positive tip and converts them to tip
// events in loc. Payments with an unparseable created_at are logged and
// dropped.
func CreditTips(payments []Payment, loc *time.Location, logger *slog.Logger) []tips.TipEvent {
	if logger == nil {
		logger = slog.Default()
	}
	var events []tips.TipEvent
	for _, p := range payments {
		cents := p.TipCents()
		if cents <= 0 {
			continue
		}
		at, err := generic.ParseTimestamp(p.CreatedAt, loc)
		if err != nil || at.IsZero() {
			logger.Warn("dropping tip with unparseable created_at",
				"payment_id", p.ID, "value", p.CreatedAt)
			continue
		}
		events = append(events, tips.TipEvent{
			PaymentID:  p.ID,
			ReceivedAt: at,
			Amount:     generic.CentsToDollars(cents),
		})
	}
	return events
}

func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &generic.APIError{
			Service:    service,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
