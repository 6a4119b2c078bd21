package irisfast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// HeaderProvider supplies the X-* identity headers added to every bridge call.
type HeaderProvider func() map[string]string

const (
	maxBackoff    = 3200 * time.Millisecond
	maxErrorBody  = 512
	replyEndpoint = "/reply"
)

// Client sends trainer replies through the Iris bridge and reads its config.
type Client struct {
	baseURL  string
	hc       *fasthttp.Client
	headers  HeaderProvider
	timeout  time.Duration
	attempts int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry sets the total number of attempts for idempotent calls.
func WithRetry(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

// WithDial replaces the dialer; tests use it with an in-memory listener.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.hc.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc: &fasthttp.Client{
			Name:            "evaltrainer-bot",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxConnsPerHost: 32,
		},
		timeout:  10 * time.Second,
		attempts: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.attempts < 1 {
		c.attempts = 1
	}
	return c
}

// call describes one bridge request. Only idempotent calls are retried.
type call struct {
	method     string
	path       string
	body       any
	out        any
	idempotent bool
}

func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.run(ctx, call{method: fasthttp.MethodGet, path: "/config", out: &cfg, idempotent: true}); err != nil {
		return nil, fmt.Errorf("iris config: %w", err)
	}
	return &cfg, nil
}

// SendMessage posts a text reply to a room. It is sent once so a slow bridge cannot post it twice.
func (c *Client) SendMessage(ctx context.Context, room, message string) error {
	return c.run(ctx, call{
		method: fasthttp.MethodPost,
		path:   replyEndpoint,
		body:   ReplyRequest{Type: "text", Room: room, Data: message},
	})
}

// StatusError is a non-2xx bridge response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("iris api error: status=%d body=%s", e.Status, e.Body)
}

// Temporary reports whether the bridge may succeed on a later attempt.
func (e *StatusError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) run(ctx context.Context, cl call) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	if err := c.prepare(req, cl); err != nil {
		return err
	}
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	tries := 1
	if cl.idempotent {
		tries = c.attempts
	}
	var err error
	for attempt := 0; attempt < tries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(backoffDuration(attempt)):
			}
		}
		var retry bool
		if retry, err = c.once(ctx, req, resp, cl.out); err == nil || !retry {
			return err
		}
	}
	return err
}

func (c *Client) prepare(req *fasthttp.Request, cl call) error {
	req.Header.SetMethod(cl.method)
	req.SetRequestURI(c.baseURL + cl.path)
	req.Header.SetContentType("application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k != "" && v != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if cl.body == nil {
		return nil
	}
	payload, err := json.Marshal(cl.body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", cl.path, err)
	}
	req.SetBodyRaw(payload)
	return nil
}

// once performs a single attempt and reports whether a failure is worth retrying.
func (c *Client) once(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response, out any) (bool, error) {
	resp.Reset()
	if err := c.hc.DoDeadline(req, resp, c.deadline(ctx)); err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		serr := &StatusError{Status: status, Body: string(body)}
		return serr.Temporary(), serr
	}
	if out == nil {
		return false, nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

func (c *Client) deadline(ctx context.Context) time.Time {
	dl := time.Now().Add(c.timeout)
	if ctxDL, ok := ctx.Deadline(); ok && ctxDL.Before(dl) {
		return ctxDL
	}
	return dl
}

// backoffDuration doubles from 100ms and caps at 3.2s.
func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 100 * time.Millisecond
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}
