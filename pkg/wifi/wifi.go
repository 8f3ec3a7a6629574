// Package wifi submits new Wi-Fi credentials to the controller.
//
// The exchange is one form-encoded POST to /wifi answered with a JSON object
// carrying either "status" or "error". There is no retry and no validation
// beyond what the controller enforces.
package wifi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Path is the controller's credential endpoint.
const Path = "/wifi"

// FailureText is shown when the request itself fails.
const FailureText = "Error connecting to Wi-Fi"

// DefaultTimeout bounds one submission.
const DefaultTimeout = 15 * time.Second

// maxResponseSize bounds the response body read.
const maxResponseSize = 16 * 1024

// ErrRequestFailed wraps transport and decoding failures.
var ErrRequestFailed = errors.New("wi-fi request failed")

// Result is the outcome of one submission.
type Result struct {
	// Text is the line to display: Status if set, else Error, else
	// FailureText when Err is set.
	Text string

	// Status and Error are the response fields, empty when absent.
	Status string
	Error  string

	// HTTPStatus is the response code, zero on transport failure.
	HTTPStatus int

	// Err is non-nil when the request failed; it wraps ErrRequestFailed.
	Err error
}

// Submitter posts credentials to one controller.
type Submitter struct {
	endpoint string
	client   *http.Client
}

// Option configures a Submitter.
type Option func(*Submitter)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Submitter) { s.client = c }
}

// WithTimeout sets the request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.client = &http.Client{Timeout: d}
		}
	}
}

// NewSubmitter creates a Submitter for the controller at baseURL
// (e.g. "http://192.168.4.1").
func NewSubmitter(baseURL string, opts ...Option) *Submitter {
	s := &Submitter{
		endpoint: strings.TrimRight(baseURL, "/") + Path,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Endpoint returns the credential URL.
func (s *Submitter) Endpoint() string {
	return s.endpoint
}

// Submit posts ssid and password and returns what to display.
func (s *Submitter) Submit(ctx context.Context, ssid, password string) Result {
	form := url.Values{}
	form.Set("ssid", ssid)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return failed(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return failed(err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		r := failed(fmt.Errorf("decode response: %w", err))
		r.HTTPStatus = resp.StatusCode
		return r
	}

	r := Result{HTTPStatus: resp.StatusCode}
	if obj, ok := raw.(map[string]any); ok {
		r.Status, _ = obj["status"].(string)
		r.Error, _ = obj["error"].(string)
	}

	r.Text = r.Status
	if r.Text == "" {
		r.Text = r.Error
	}
	return r
}

func failed(err error) Result {
	return Result{
		Text: FailureText,
		Err:  fmt.Errorf("%w: %w", ErrRequestFailed, err),
	}
}
