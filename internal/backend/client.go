package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"site-defects/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer receives one call per backend request.
type Observer interface {
	ObserveBackendCall(endpoint, outcome string, elapsed time.Duration)
}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	Logger     *zap.Logger
	Observer   Observer
}

// Client talks to the defect REST backend. Every method returns either a
// decoded value or an error wrapping one of the models error kinds; a failed
// call never comes back as an empty value.
type Client struct {
	api     *resty.Client
	create  *resty.Client
	upload  *resty.Client
	baseURL string
	logger  *zap.Logger
	obs     Observer
}

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 1
)

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryCount > maxRetries {
		opts.RetryCount = maxRetries
	}
	if opts.RetryCount < 0 {
		opts.RetryCount = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")

	api := newResty(base, opts.Timeout, opts.RetryCount).
		SetHeader("Content-Type", "application/json")
	// a POST that timed out may already be committed, so creates go out once
	create := newResty(base, opts.Timeout, 0).
		SetHeader("Content-Type", "application/json")
	// multipart bodies are read once, so uploads are never retried
	upload := newResty(base, opts.Timeout, 0)

	return &Client{
		api:     api,
		create:  create,
		upload:  upload,
		baseURL: base,
		logger:  opts.Logger,
		obs:     opts.Observer,
	}
}

func newResty(base string, timeout time.Duration, retries int) *resty.Client {
	c := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if retries > 0 {
		c.SetRetryCount(retries).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(time.Second).
			AddRetryCondition(transientFailure)
	}
	return c
}

// transientFailure retries transport errors and gateway failures only.
func transientFailure(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	switch resp.StatusCode() {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// BaseURL is the backend root, used to resolve relative image URLs.
func (c *Client) BaseURL() string { return c.baseURL }

// AssetURL resolves an image path returned by the backend.
func (c *Client) AssetURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

type apiError struct {
	Detail json.RawMessage `json:"detail"`
}

func (e *apiError) message() string {
	if e == nil || len(e.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	return string(e.Detail)
}

// call runs one request against the backend. endpoint is a stable label for
// logs and metrics, independent of path parameters.
func (c *Client) call(ctx context.Context, rc *resty.Client, endpoint, method, path string, prepare func(*resty.Request), result any) error {
	start := time.Now()
	req := rc.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetError(&apiError{})
	if result != nil {
		req.SetResult(result)
	}
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Execute(method, path)
	callErr := classify(endpoint, resp, err)
	c.observe(endpoint, callErr, time.Since(start))

	if callErr != nil {
		fields := []zap.Field{
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Error(callErr),
		}
		if resp != nil {
			fields = append(fields, zap.Int("status_code", resp.StatusCode()))
		}
		if errors.Is(callErr, models.ErrNotFound) {
			c.logger.Debug("backend resource not found", fields...)
		} else {
			c.logger.Warn("backend call failed", fields...)
		}
		return callErr
	}
	return nil
}

func classify(endpoint string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w: %v", endpoint, models.ErrNetwork, err)
	}
	if resp == nil {
		return fmt.Errorf("%s: %w: empty response", endpoint, models.ErrNetwork)
	}
	if !resp.IsError() {
		return nil
	}
	var detail string
	if e, ok := resp.Error().(*apiError); ok {
		detail = e.message()
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode())
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return fmt.Errorf("%s: %w: %s", endpoint, models.ErrNotFound, detail)
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w: %s", endpoint, models.ErrValidation, detail)
	case code == http.StatusConflict:
		return fmt.Errorf("%s: %w: %s", endpoint, models.ErrInvalidState, detail)
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: status %d: %s", endpoint, models.ErrNetwork, code, detail)
	default:
		return fmt.Errorf("%s: backend returned status %d: %s", endpoint, code, detail)
	}
}

func (c *Client) observe(endpoint string, err error, elapsed time.Duration) {
	if c.obs == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, models.ErrValidation):
		outcome = "rejected"
	case errors.Is(err, models.ErrNetwork):
		outcome = "network_error"
	default:
		outcome = "error"
	}
	c.obs.ObserveBackendCall(endpoint, outcome, elapsed)
}

func (c *Client) get(ctx context.Context, endpoint, path string, prepare func(*resty.Request), out any) error {
	return c.call(ctx, c.api, endpoint, http.MethodGet, path, prepare, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, body, out any) error {
	return c.call(ctx, c.create, endpoint, http.MethodPost, path, func(r *resty.Request) { r.SetBody(body) }, out)
}

func (c *Client) putJSON(ctx context.Context, endpoint, path string, body, out any) error {
	return c.call(ctx, c.api, endpoint, http.MethodPut, path, func(r *resty.Request) { r.SetBody(body) }, out)
}

func (c *Client) delete(ctx context.Context, endpoint, path string) error {
	return c.call(ctx, c.api, endpoint, http.MethodDelete, path, nil, nil)
}

func idPath(format string, id int) string {
	return fmt.Sprintf(format, id)
}
