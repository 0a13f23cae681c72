// Package homebase retrieves timecards and employees from the Homebase
// scheduling API and converts them to shifts.
package homebase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/tip-engine/generic"
)

const (
	DefaultBaseURL = "https://api.joinhomebase.com"
	service        = "homebase"
)

// Client is a client for one Homebase location.
type Client struct {
	baseURL      string
	apiKey       string
	locationUUID string
	httpClient   *http.Client
	logger       *slog.Logger
	location     *time.Location
}

type Options struct {
	BaseURL      string
	APIKey       string
	LocationUUID string
	Timeout      time.Duration
	// Location is the business time zone shifts are reported in.
	Location *time.Location
	Logger   *slog.Logger
}

// NewClient creates a Homebase client.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" || opts.LocationUUID == "" {
		return nil, fmt.Errorf("%w: homebase api key and location uuid are required", generic.ErrMissingCredentials)
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
		baseURL:      strings.TrimSuffix(base, "/"),
		apiKey:       opts.APIKey,
		locationUUID: opts.LocationUUID,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger.With("service", service),
		location:     loc,
	}, nil
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ID accepts both numeric and string identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*id = ID(s)
	return nil
}

func (id ID) String() string { return string(id) }

type Timecard struct {
	ID       ID      `json:"id"`
	UserID   ID      `json:"user_id"`
	ClockIn  *string `json:"clock_in"`
	ClockOut *string `json:"clock_out"`
}

type Job struct {
	WageRate decimal.Decimal `json:"wage_rate"`
}

type Employee struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Job       Job    `json:"job"`
}

// Placeholder is used when an employee referenced by a timecard no longer exists.
func Placeholder(id ID) Employee {
	return Employee{ID: id, FirstName: "Unknown", LastName: "Employee", Job: Job{WageRate: decimal.Zero}}
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Timecards lists raw timecards in the period.
func (c *Client) Timecards(ctx context.Context, period generic.Period) ([]Timecard, error) {
	q := url.Values{}
	q.Set("start_date", period.Start.String())
	q.Set("end_date", period.End.String())

	var timecards []Timecard
	if _, err := c.get(ctx, "list timecards", c.locationPath("timecards"), q, &timecards); err != nil {
		return nil, err
	}
	return timecards, nil
}

// Employee fetches one employee. A 404 yields the placeholder employee.
func (c *Client) Employee(ctx context.Context, id ID) (Employee, error) {
	var emp Employee
	status, err := c.get(ctx, "get employee", c.locationPath("employees", id.String()), nil, &emp)
	if status == http.StatusNotFound {
		c.logger.Warn("employee not found, using placeholder", "employee_id", id.String())
		return Placeholder(id), nil
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

// ListEmployees lists every employee of the location.
func (c *Client) ListEmployees(ctx context.Context, withArchived bool) ([]Employee, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("per_page", "1000000")
	q.Set("with_archived", strconv.FormatBool(withArchived))

	var employees []Employee
	if _, err := c.get(ctx, "list employees", c.locationPath("employees"), q, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (c *Client) locationPath(parts ...string) string {
	segs := append([]string{"locations", url.PathEscape(c.locationUUID)}, parts...)
	for i := 2; i < len(segs); i++ {
		segs[i] = url.PathEscape(segs[i])
	}
	return "/" + strings.Join(segs, "/")
}

// get performs an authenticated GET and decodes a 200 body into out.
// The status code is returned even when err is non-nil.
func (c *Client) get(ctx context.Context, op, path string, q url.Values, out any) (int, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &generic.APIError{
			Service:    service,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return resp.StatusCode, nil
}
