// Package session talks to the device farm's REST API for a single remote session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/farmsync/metrics"
	"github.com/ethereum-optimism/infra/farmsync/provider"
	"github.com/ethereum-optimism/infra/farmsync/types"
)

const (
	DefaultTimeout         = 10 * time.Second
	DefaultMaxResponseSize = 1 << 20

	endpointStatus = "status"
	endpointJob    = "job"
)

var ErrResponseTooLarge = errors.New("response too large")

// HTTPClient is the transport used for API calls
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Endpoints resolves the per-session API URLs. *provider.Provider implements it.
type Endpoints interface {
	StatusEndpoint(sessionID string) (string, error)
	JobEndpoint(sessionID string) (string, error)
}

// Config holds the client settings
type Config struct {
	Auth            provider.Auth
	Timeout         time.Duration // per call, no retries
	MaxResponseSize int64
	HTTPClient      HTTPClient
	Log             log.Logger
}

// Client performs the three session API calls. It holds no per-session state and is safe for concurrent use.
type Client struct {
	endpoints       Endpoints
	auth            provider.Auth
	timeout         time.Duration
	maxResponseSize int64
	http            HTTPClient
	schemas         *schemas
	log             log.Logger
	tracer          trace.Tracer
}

// NewClient creates a client
func NewClient(endpoints Endpoints, cfg Config) (*Client, error) {
	if endpoints == nil {
		return nil, fmt.Errorf("endpoints are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = DefaultMaxResponseSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	s, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoints:       endpoints,
		auth:            cfg.Auth,
		timeout:         cfg.Timeout,
		maxResponseSize: cfg.MaxResponseSize,
		http:            cfg.HTTPClient,
		schemas:         s,
		log:             cfg.Log,
		tracer:          otel.Tracer("session client"),
	}, nil
}

type statusPayload struct {
	AutomationSession struct {
		BrowserURL string `json:"browser_url"`
		Status     string `json:"status"`
	} `json:"automation_session"`
}

type jobPayload struct {
	AutomationSession struct {
		VideoURL *string `json:"video_url"`
	} `json:"automation_session"`
}

// Session reads the session's current status and its dashboard URL.
// Every failure is returned as a *types.RemoteFetchError.
func (c *Client) Session(ctx context.Context, sessionID string) (types.SessionInfo, error) {
	endpoint, err := c.endpoints.StatusEndpoint(sessionID)
	if err != nil {
		return types.SessionInfo{}, types.NewRemoteFetchError(endpointStatus, err)
	}

	var payload statusPayload
	if err := c.getJSON(ctx, endpointStatus, endpoint, c.schemas.status.Validate, &payload); err != nil {
		return types.SessionInfo{}, types.NewRemoteFetchError(endpoint, err)
	}
	status, err := types.ParseSessionStatus(payload.AutomationSession.Status)
	if err != nil {
		return types.SessionInfo{}, types.NewRemoteFetchError(endpoint, err)
	}
	return types.SessionInfo{
		BrowserURL: payload.AutomationSession.BrowserURL,
		Status:     status,
	}, nil
}

// UpdateStatus overwrites the session status. Failures are returned as a *types.RemoteWriteError.
func (c *Client) UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) error {
	endpoint, err := c.endpoints.StatusEndpoint(sessionID)
	if err != nil {
		return types.NewRemoteWriteError(endpointStatus, status, err)
	}

	ctx, span := c.tracer.Start(ctx, "PUT "+endpointStatus)
	defer span.End()
	span.SetAttributes(attribute.String("status", string(status)))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(endpoint)
	if err != nil {
		return c.writeFailed(span, endpoint, status, err)
	}
	q := u.Query()
	q.Set("status", string(status))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u.String(), http.NoBody)
	if err != nil {
		return c.writeFailed(span, endpoint, status, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(req, endpointStatus)
	if err != nil {
		return c.writeFailed(span, endpoint, status, err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, c.maxResponseSize))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return c.writeFailed(span, endpoint, status, fmt.Errorf("response code %d", res.StatusCode))
	}
	c.log.Debug("Updated session status", "session", sessionID, "status", status)
	return nil
}

// VideoURL returns the session's replay video URL, or "" when the farm has none.
// Every failure is returned as a *types.RemoteFetchError.
func (c *Client) VideoURL(ctx context.Context, sessionID string) (string, error) {
	endpoint, err := c.endpoints.JobEndpoint(sessionID)
	if err != nil {
		return "", types.NewRemoteFetchError(endpointJob, err)
	}

	var payload jobPayload
	if err := c.getJSON(ctx, endpointJob, endpoint, c.schemas.job.Validate, &payload); err != nil {
		return "", types.NewRemoteFetchError(endpoint, err)
	}
	if payload.AutomationSession.VideoURL == nil {
		return "", nil
	}
	return *payload.AutomationSession.VideoURL, nil
}

func (c *Client) getJSON(ctx context.Context, kind, endpoint string, validate func(any) error, out any) error {
	ctx, span := c.tracer.Start(ctx, "GET "+kind)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return spanError(span, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.do(req, kind)
	if err != nil {
		return spanError(span, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return spanError(span, fmt.Errorf("response code %d", res.StatusCode))
	}

	body, err := readLimited(res.Body, c.maxResponseSize)
	if err != nil {
		return spanError(span, err)
	}
	if err := decodeValidated(validate, body, out); err != nil {
		return spanError(span, err)
	}
	return nil
}

func (c *Client) do(req *http.Request, kind string) (*http.Response, error) {
	req.SetBasicAuth(c.auth.Username, c.auth.Key)

	start := time.Now()
	res, err := c.http.Do(req)
	code := 0
	if res != nil {
		code = res.StatusCode
	}
	metrics.RecordRemoteRequest(req.Method, kind, code, time.Since(start))
	if err != nil {
		c.log.Debug("Session API call failed", "method", req.Method, "endpoint", kind, "err", err)
		return nil, err
	}
	return res, nil
}

func (c *Client) writeFailed(span trace.Span, endpoint string, status types.SessionStatus, err error) error {
	return types.NewRemoteWriteError(endpoint, status, spanError(span, err))
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// readLimited reads the whole body, failing once it grows past max bytes
func readLimited(r io.Reader, max int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if int64(len(body)) > max {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}
