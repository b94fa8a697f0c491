package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"utility-rate-sync/internal/rates"
)

const defaultBaseURL = "https://secure.rateacuity.com/RateAcuityJSONAPI/api"

// ClientOptions parameterise the RateAcuity client.
type ClientOptions struct {
	BaseURL   string
	Username  string
	Password  string
	Timeout   time.Duration
	UserAgent string
}

// Client fetches utilities, schedules, and schedule details from RateAcuity.
type Client struct {
	opts    ClientOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a RateAcuity client.
func NewClient(opts ClientOptions, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		opts:    opts,
		logger:  logger.With().Str("component", "rateacuity_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchUtilities retrieves utilities, optionally limited to a two-letter state.
func (c *Client) FetchUtilities(ctx context.Context, state string) ([]rates.Utility, error) {
	path := "/utility"
	if state != "" {
		path += "/" + url.PathEscape(strings.ToUpper(state))
	}

	var envelope struct {
		Utility []rates.Utility `json:"Utility"`
	}
	if err := c.get(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch utilities: %w", err)
	}

	c.logger.Debug().Str("state", state).Int("count", len(envelope.Utility)).Msg("utilities fetched")
	return envelope.Utility, nil
}

// FetchSchedules retrieves the rate schedules published for a utility.
func (c *Client) FetchSchedules(ctx context.Context, utilityID int64) ([]rates.Record, error) {
	var envelope struct {
		Schedule []rates.Record `json:"Schedule"`
	}
	if err := c.get(ctx, "/schedule/"+strconv.FormatInt(utilityID, 10), &envelope); err != nil {
		return nil, fmt.Errorf("fetch schedules for utility %d: %w", utilityID, err)
	}

	c.logger.Debug().Int64("utility_id", utilityID).Int("count", len(envelope.Schedule)).Msg("schedules fetched")
	return envelope.Schedule, nil
}

// FetchScheduleDetail retrieves the detail sections for one schedule. The API
// wraps the payload in a single-element array.
func (c *Client) FetchScheduleDetail(ctx context.Context, scheduleID int64) (rates.Detail, error) {
	var payload []rates.Detail
	if err := c.get(ctx, "/scheduledetailtip/"+strconv.FormatInt(scheduleID, 10), &payload); err != nil {
		return nil, fmt.Errorf("fetch detail for schedule %d: %w", scheduleID, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("fetch detail for schedule %d: empty response", scheduleID)
	}

	c.logger.Debug().Int64("schedule_id", scheduleID).Int("sections", len(payload[0])).Msg("schedule detail fetched")
	return payload[0], nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.opts.Username == "" || c.opts.Password == "" {
		return errors.New("rateacuity credentials not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	query := req.URL.Query()
	query.Set("p1", c.opts.Username)
	query.Set("p2", c.opts.Password)
	req.URL.RawQuery = query.Encode()

	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp.StatusCode, payload)
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// APIError describes a non-success provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func newAPIError(status int, payload []byte) *APIError {
	body := strings.TrimSpace(string(payload))
	if len(body) > 512 {
		body = body[:512]
	}
	return &APIError{StatusCode: status, Body: body}
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("rateacuity api error (%d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("rateacuity api error (%d)", e.StatusCode)
}

// IsAuthRejected reports whether err is a credential rejection by the provider.
func IsAuthRejected(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

var _ RateFetcher = (*Client)(nil)
