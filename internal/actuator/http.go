package actuator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMouseURL is where the desktop mouse-control service listens.
const DefaultMouseURL = "http://127.0.0.1:5000"

// ServiceError is any answer from the mouse service other than a success.
type ServiceError struct {
	StatusCode int
	Message    string
	// RetryAfter is set when a busy service said how long to back off.
	RetryAfter time.Duration
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("mouse service returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether asking again may succeed.
func (e *ServiceError) Temporary() bool {
	return isRetryableStatus(e.StatusCode)
}

type mouseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HTTPActuator drives the OS pointer through the local mouse-control service.
type HTTPActuator struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retry   RetryConfig
}

type HTTPOption func(*HTTPActuator)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(a *HTTPActuator) { a.client = c }
}

// WithRate allows one click every interval with no burst.
func WithRate(interval time.Duration) HTTPOption {
	return func(a *HTTPActuator) { a.limiter = rate.NewLimiter(rate.Every(interval), 1) }
}

func WithRetry(rc RetryConfig) HTTPOption {
	return func(a *HTTPActuator) { a.retry = rc }
}

func NewHTTPActuator(baseURL string, opts ...HTTPOption) *HTTPActuator {
	if baseURL == "" {
		baseURL = DefaultMouseURL
	}
	a := &HTTPActuator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		retry:   DefaultRetryConfig,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MoveAndClick calls GET /api/mouse/move?x=&y=&click=true. The service only
// answers once the pointer has arrived and clicked.
func (a *HTTPActuator) MoveAndClick(ctx context.Context, x, y int) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("x", strconv.Itoa(x))
	q.Set("y", strconv.Itoa(y))
	q.Set("click", "true")
	endpoint := a.baseURL + "/api/mouse/move?" + q.Encode()

	_, err := RetryDo(ctx, a.retry, func() (mouseResponse, error) {
		return a.get(ctx, endpoint)
	})
	if err != nil {
		return fmt.Errorf("click at (%d, %d): %w", x, y, err)
	}
	return nil
}

// Ping checks that the service is up.
func (a *HTTPActuator) Ping(ctx context.Context) error {
	_, err := a.get(ctx, a.baseURL+"/api/health")
	return err
}

func (a *HTTPActuator) get(ctx context.Context, endpoint string) (mouseResponse, error) {
	var out mouseResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return out, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return out, err
	}
	svcErr := &ServiceError{StatusCode: resp.StatusCode, RetryAfter: parseRetryAfter(resp.Header)}

	if err := json.Unmarshal(body, &out); err != nil {
		//a proxy or a half-started service answers in plain text
		svcErr.Message = strings.TrimSpace(string(body))
		if svcErr.Message == "" {
			svcErr.Message = http.StatusText(resp.StatusCode)
		}
		return out, svcErr
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" || !out.Success {
		svcErr.Message = out.Error
		if svcErr.Message == "" {
			svcErr.Message = out.Message
		}
		return out, svcErr
	}
	return out, nil
}
