// Package dart is the client for the DART OpenAPI (opendart.fss.or.kr).
//
// Every call is a single GET carrying the crtfc_key credential. Responses are
// classified into success, provider status errors (HTTP 200 with a status
// other than "000"), HTTP errors, timeouts and network errors. The client does
// not retry.
package dart

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

	"github.com/sirupsen/logrus"

	"opendart/internal/platform/metrics"
)

const (
	DefaultBaseURL = "https://opendart.fss.or.kr/api"
	DefaultTimeout = 15 * time.Second

	credentialParam = "crtfc_key"
	maxErrorBody    = 2048
)

// Params are endpoint query parameters. Empty values are omitted.
type Params map[string]string

// Envelope is the status header present in every JSON response.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
	Metrics    *metrics.Metrics
}

// Client calls the DART OpenAPI.
type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	timeout time.Duration
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		// Deadlines come from the request context so per-call and bulk
		// download timeouts can differ.
		hc = &http.Client{}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		http:    hc,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: base,
		timeout: timeout,
		log:     log.WithField("component", "dart"),
		metrics: cfg.Metrics,
	}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool { return c.apiKey != "" }

// Request issues one GET to endpoint and returns the response body once the
// provider status is "000". The body is returned whole; typed helpers decode
// the fields they need from it.
func (c *Client) Request(ctx context.Context, endpoint string, params Params) (json.RawMessage, error) {
	if !c.HasCredential() {
		return nil, ErrMissingAPIKey
	}
	u, err := c.endpointURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	body, err := c.request(ctx, endpoint, u)
	if err == nil {
		err = checkEnvelope(endpoint, body)
	}
	c.observe(endpoint, start, err)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) request(ctx context.Context, endpoint, u string) ([]byte, error) {
	resp, err := c.do(ctx, endpoint, u, c.timeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkHTTPStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, endpoint, c.timeout, err)
	}
	return body, nil
}

// Download fetches a binary payload such as the corpCode.xml archive. A JSON
// content type means the provider rejected the request; its envelope is
// returned as an APIStatusError. The caller's context bounds the transfer and
// timeout is only reported in TimeoutError.
func (c *Client) Download(ctx context.Context, endpoint string, timeout time.Duration) ([]byte, error) {
	if !c.HasCredential() {
		return nil, ErrMissingAPIKey
	}
	u, err := c.endpointURL(endpoint, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.download(ctx, endpoint, u, timeout)
	c.observe(endpoint, start, err)
	return body, err
}

func (c *Client) download(ctx context.Context, endpoint, u string, timeout time.Duration) ([]byte, error) {
	resp, err := c.do(ctx, endpoint, u, timeout)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkHTTPStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, endpoint, timeout, err)
	}
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "json") {
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("decode error body: %w", err)}
		}
		return nil, newAPIStatusError(env.Status, env.Message)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, u string, timeout time.Duration) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, endpoint, timeout, err)
	}
	return resp, nil
}

func (c *Client) endpointURL(endpoint string, params Params) (string, error) {
	endpoint = strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return "", fmt.Errorf("dart: endpoint is required")
	}
	u, err := url.Parse(c.baseURL + "/" + endpoint)
	if err != nil {
		return "", fmt.Errorf("dart: bad endpoint %q: %w", endpoint, err)
	}
	q := url.Values{}
	q.Set(credentialParam, c.apiKey)
	for k, v := range params {
		if v == "" || k == credentialParam {
			continue
		}
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	c.metrics.ObserveUpstream(endpoint, outcome, elapsed)
	entry := c.log.WithFields(logrus.Fields{"endpoint": endpoint, "elapsed": elapsed.Round(time.Millisecond), "outcome": outcome})
	if err != nil {
		var se *APIStatusError
		if errors.As(err, &se) && !se.Status.Known() {
			entry.WithError(err).WithField("status", string(se.Status)).Warn("undocumented DART status")
			return
		}
		entry.WithError(err).Debug("dart request failed")
		return
	}
	entry.Debug("dart request")
}

// Outcome names the classification of err for logs and metrics.
func Outcome(err error) string {
	var (
		se *APIStatusError
		he *HTTPError
		te *TimeoutError
		ne *NetworkError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "api_status"
	case errors.As(err, &he):
		return "http_error"
	case errors.As(err, &te):
		return "timeout"
	case errors.As(err, &ne):
		return "network"
	default:
		return "error"
	}
}

func checkHTTPStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
}

func checkEnvelope(endpoint string, body []byte) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)}
	}
	if StatusCode(env.Status) != StatusOK {
		return newAPIStatusError(env.Status, env.Message)
	}
	return nil
}

func classifyTransport(ctx context.Context, endpoint string, timeout time.Duration, err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return &TimeoutError{Endpoint: endpoint, Timeout: timeout}
		}
		// url.Error carries the request URL, and with it the API key.
		err = ue.Err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, Timeout: timeout}
	}
	return &NetworkError{Endpoint: endpoint, Err: err}
}
