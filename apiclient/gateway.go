package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"zaivio-client/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	RefreshPath = "/auth/token/refresh"

	DefaultTimeout        = 30 * time.Second
	DefaultRefreshTimeout = 30 * time.Second

	maxResponseBytes = 10 << 20
)

type Config struct {
	BaseURL string
	Store   token.Store

	// HTTPClient overrides the client built from Jar and Timeout.
	HTTPClient *http.Client
	Jar        http.CookieJar
	Timeout    time.Duration

	// RefreshTimeout bounds a renewal call; when it elapses the renewal counts as failed.
	RefreshTimeout time.Duration
	// RateLimit caps outbound requests per second. Zero disables the limiter.
	RateLimit float64

	Notifier Notifier
	Logger   *zap.Logger
}

// Gateway sends authenticated requests to the Zaivio API and renews the
// bearer credential when the server reports it expired.
type Gateway struct {
	baseURL        *url.URL
	httpClient     *http.Client
	store          token.Store
	notifier       Notifier
	logger         *zap.Logger
	limiter        *rate.Limiter
	refreshTimeout time.Duration

	joins     chan *waiter
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// queueHook observes queue growth; tests use it to order arrivals.
	queueHook func(queued int)
}

func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}
	if cfg.Store == nil {
		cfg.Store = token.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar := cfg.Jar
		if jar == nil {
			if jar, err = cookiejar.New(nil); err != nil {
				return nil, err
			}
		}
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout, Jar: jar}
	}

	g := &Gateway{
		baseURL:        base,
		httpClient:     httpClient,
		store:          cfg.Store,
		notifier:       cfg.Notifier,
		logger:         cfg.Logger,
		refreshTimeout: cfg.RefreshTimeout,
		joins:          make(chan *waiter),
		stop:           make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	go g.coordinate()
	return g, nil
}

// Close stops the renewal coordinator. Requests waiting for a renewal fail with ErrClosed.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		close(g.stop)
		<-g.stopped
	})
	return nil
}

func (g *Gateway) Credential(ctx context.Context) (string, error) {
	return g.store.Get(ctx)
}

func (g *Gateway) SetCredential(ctx context.Context, credential string) error {
	return g.store.Set(ctx, credential)
}

func (g *Gateway) ClearCredential(ctx context.Context) error {
	return g.store.Clear(ctx)
}

type requestOptions struct {
	query       url.Values
	header      http.Header
	skipRenewal bool
}

type RequestOption func(*requestOptions)

func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) { o.query = query }
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// WithoutRenewal makes a 401 a plain failure, for calls such as login where
// 401 means bad input rather than an expired session.
func WithoutRenewal() RequestOption {
	return func(o *requestOptions) { o.skipRenewal = true }
}

func (g *Gateway) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, http.MethodGet, path, nil, opts...)
}

func (g *Gateway) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, http.MethodPost, path, body, opts...)
}

func (g *Gateway) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, http.MethodPut, path, body, opts...)
}

func (g *Gateway) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, http.MethodPatch, path, body, opts...)
}

func (g *Gateway) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, http.MethodDelete, path, nil, opts...)
}

// Request sends one API call. A 401 on the first attempt joins the renewal
// queue and the call is replayed once with the renewed credential.
func (g *Gateway) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	credential, err := g.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}

	raw, err := g.send(ctx, method, path, payload, ro, credential)
	if err != nil {
		return nil, g.transportFailure(ctx, method, path, err)
	}

	if raw.status == http.StatusUnauthorized && !ro.skipRenewal {
		return g.replayAfterRenewal(ctx, method, path, payload, ro)
	}
	return g.finish(method, path, raw)
}

func (g *Gateway) replayAfterRenewal(ctx context.Context, method, path string, payload []byte, ro requestOptions) (*Response, error) {
	out, err := g.awaitRenewal(ctx)
	if err != nil {
		return nil, err
	}
	defer out.release()

	g.logger.Debug("Replaying request after renewal", zap.String("method", method), zap.String("path", path))
	raw, err := g.send(ctx, method, path, payload, ro, out.credential)
	out.release()
	if err != nil {
		return nil, g.transportFailure(ctx, method, path, err)
	}

	if raw.status == http.StatusUnauthorized {
		g.logger.Warn("Request rejected after renewal", zap.String("method", method), zap.String("path", path))
		if err := g.store.Clear(ctx); err != nil {
			g.logger.Error("Failed to clear credential", zap.Error(err))
		}
		_, message, _, _ := parseEnvelope(raw.body)
		if message == "" {
			message = CategorySessionExpired.DefaultMessage()
		}
		// Replays sharing one renewal end the session once.
		out.ended.Do(func() {
			g.notifier.Notify(CategorySessionExpired, message)
			g.notifier.SessionExpired()
		})
		return nil, ErrSessionExpired
	}
	return g.finish(method, path, raw)
}

type rawResponse struct {
	status     int
	statusText string
	header     http.Header
	body       []byte
}

func (g *Gateway) send(ctx context.Context, method, path string, payload []byte, ro requestOptions, credential string) (*rawResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path, ro.query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for key, values := range ro.header {
		req.Header[key] = values
	}
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	started := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	g.logger.Debug("API request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &rawResponse{status: resp.StatusCode, statusText: resp.Status, header: resp.Header, body: data}, nil
}

// finish turns a response that needs no renewal into a result or a classified failure.
func (g *Gateway) finish(method, path string, raw *rawResponse) (*Response, error) {
	status, message, detail, data := parseEnvelope(raw.body)

	if raw.status >= 200 && raw.status < 300 {
		return &Response{
			StatusCode: raw.status,
			Status:     status,
			Message:    message,
			Data:       data,
			Header:     raw.header,
		}, nil
	}

	apiErr := newAPIError(raw.status, message, detail)
	g.logger.Warn("API request failed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", raw.status),
		zap.String("category", string(apiErr.Category)),
		zap.String("message", apiErr.Message),
	)
	g.notifier.Notify(apiErr.Category, apiErr.Message)
	return nil, apiErr
}

func (g *Gateway) transportFailure(ctx context.Context, method, path string, err error) error {
	apiErr := &ApiError{Category: CategoryUnknown, Message: CategoryUnknown.DefaultMessage(), Err: err}
	if ctx.Err() != nil {
		return apiErr
	}
	g.logger.Error("API request did not complete", zap.String("method", method), zap.String("path", path), zap.Error(err))
	g.notifier.Notify(apiErr.Category, apiErr.Message)
	return apiErr
}

func (g *Gateway) resolve(path string, query url.Values) string {
	u := *g.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	rawPath, rawQuery, _ := strings.Cut(path, "?")
	u.Path = strings.TrimRight(g.baseURL.Path, "/") + rawPath

	q, _ := url.ParseQuery(rawQuery)
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		return data, nil
	}
}

// Doer is the part of the Gateway the API services depend on.
type Doer interface {
	Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error)
}

var _ Doer = (*Gateway)(nil)
