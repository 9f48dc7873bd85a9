package client

import (
	"context"
	"fmt"
	"time"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/pkg/metrics"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const apiKeyHeader = "x-cg-demo-api-key"

// FastHTTPTransport implements port.Transport with a shared fasthttp client.
type FastHTTPTransport struct {
	client  *fasthttp.Client
	timeout time.Duration
	apiKey  string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewFastHTTPTransport creates a transport. requestsPerMinute <= 0 disables client side limiting.
func NewFastHTTPTransport(timeout time.Duration, apiKey string, requestsPerMinute int, logger *zap.Logger) *FastHTTPTransport {
	t := &FastHTTPTransport{
		client: &fasthttp.Client{
			Name:                "crypto_tracker",
			MaxIdleConnDuration: time.Minute,
		},
		timeout: timeout,
		apiKey:  apiKey,
		logger:  logger.Named("FastHTTPTransport"),
	}
	if requestsPerMinute > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1)
	}
	return t
}

var _ port.Transport = (*FastHTTPTransport)(nil)

// Get performs a blocking GET. A non-2xx status is not an error at this level;
// the caller decides what to do with it.
func (t *FastHTTPTransport) Get(ctx context.Context, requestURL string) (port.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return port.Response{}, fmt.Errorf("rate limiter wait for %s: %w", requestURL, err)
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if t.apiKey != "" {
		req.Header.Set(apiKeyHeader, t.apiKey)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	t.logger.Debug("Requesting price API", zap.String("url", requestURL))
	start := time.Now()

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = t.client.DoDeadline(req, resp, deadline)
	} else {
		err = t.client.DoTimeout(req, resp, t.timeout)
	}
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(metrics.StatusClass(0)).Observe(time.Since(start).Seconds())
		t.logger.Warn("Failed to execute request", zap.String("url", requestURL), zap.Error(err))
		return port.Response{}, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	status := resp.StatusCode()
	metrics.UpstreamRequestDuration.WithLabelValues(metrics.StatusClass(status)).Observe(time.Since(start).Seconds())

	// The body buffer is released with resp, so hand out a copy.
	body := append([]byte(nil), resp.Body()...)
	if status != fasthttp.StatusOK {
		t.logger.Warn("Price API returned non-OK status",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", body))
	}
	return port.Response{StatusCode: status, Body: body}, nil
}
