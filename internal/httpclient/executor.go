package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/choiwab/banking-client/internal/metrics"
	"github.com/choiwab/banking-client/internal/rate"
)

// DefaultBackoffBase is the starting retry delay; each retry doubles it.
const DefaultBackoffBase = 1 * time.Second

// maxBackoffFactor caps the exponential growth of the retry delay.
const maxBackoffFactor = 8

// Backoff returns the retry sleep duration for the given attempt number,
// scaled from base: base, 2*base, 4*base, capped at 8*base.
func Backoff(base time.Duration, attempt int) time.Duration {
	factor := 1 << attempt
	if factor > maxBackoffFactor {
		factor = maxBackoffFactor
	}
	return base * time.Duration(factor)
}

// Retryable reports whether an HTTP status is a transient failure worth
// retrying. 429 and 5xx are transient; every other 4xx is a caller error and
// retrying it would only mask the bug.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Executor handles rate-limited, retrying HTTP execution with JSON decoding.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	retryMax     int
	backoffBase  time.Duration
	apiTag       string
	errorHandler func(status int, body []byte) error
}

// New creates an Executor. retryMax is the number of retries after the first
// attempt. errorHandler is called on failure responses (and with status 0 and
// a nil body when the retry budget is exhausted without any HTTP response) to
// produce an API-specific error. If nil, a default error is returned.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	retryMax int,
	apiTag string,
	backoffBase time.Duration,
	errorHandler func(status int, body []byte) error,
) *Executor {
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		retryMax:     retryMax,
		backoffBase:  backoffBase,
		apiTag:       apiTag,
		errorHandler: errorHandler,
	}
}

// DoJSON executes req with rate limiting and retries, then JSON-decodes the
// response into out. rateLimitKey scopes the rate limiter per host.
func (e *Executor) DoJSON(ctx context.Context, req *http.Request, rateLimitKey string, out any) error {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var lastErr error
	lastStatus := 0
	var lastBody []byte

	for attempt := 0; attempt <= e.retryMax; attempt++ {
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		start := time.Now()
		resp, err := e.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%s request canceled: %w", e.apiTag, ctx.Err())
			}
			lastErr = err
			lastStatus = 0
			lastBody = nil
			metrics.IncRequest(req.URL.Path, req.Method, "network_error")
			e.logger.Warn(e.apiTag+".http_failed",
				zap.String("url", req.URL.String()),
				zap.Error(err),
				zap.Int("attempt", attempt))
			if attempt < e.retryMax {
				metrics.IncRetry("network")
				if err := e.sleep(ctx, attempt); err != nil {
					return err
				}
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		elapsed := time.Since(start)
		metrics.IncRequest(req.URL.Path, req.Method, strconv.Itoa(resp.StatusCode))
		metrics.RequestDuration.WithLabelValues(req.URL.Path, req.Method).Observe(elapsed.Seconds())

		if Retryable(resp.StatusCode) {
			lastErr = fmt.Errorf("%s transient error: %d", e.apiTag, resp.StatusCode)
			lastStatus = resp.StatusCode
			lastBody = body
			e.logger.Warn(e.apiTag+".transient_error",
				zap.Int("status", resp.StatusCode),
				zap.String("url", req.URL.String()),
				zap.Duration("latency", elapsed))
			if attempt < e.retryMax {
				reason := "server_error"
				if resp.StatusCode == http.StatusTooManyRequests {
					reason = "rate_limited"
				}
				metrics.IncRetry(reason)
				if err := e.sleep(ctx, attempt); err != nil {
					return err
				}
			}
			continue
		}

		if resp.StatusCode >= 400 {
			if e.errorHandler != nil {
				return e.errorHandler(resp.StatusCode, body)
			}
			return fmt.Errorf("%s returned %d", e.apiTag, resp.StatusCode)
		}

		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				e.logger.Warn(e.apiTag+".decode_failed",
					zap.Error(err),
					zap.String("url", req.URL.String()),
					zap.String("body", string(body)))
				return fmt.Errorf("decode failed: %w", err)
			}
		}

		e.logger.Debug(e.apiTag+".http_success",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", elapsed))

		return nil
	}

	if e.errorHandler != nil {
		return fmt.Errorf("%s request failed after %d attempts: %w",
			e.apiTag, e.retryMax+1, e.errorHandler(lastStatus, lastBody))
	}
	return fmt.Errorf("%s request failed after %d attempts: %w", e.apiTag, e.retryMax+1, lastErr)
}

// sleep waits out the backoff for the given attempt, aborting early if the
// caller's context is canceled.
func (e *Executor) sleep(ctx context.Context, attempt int) error {
	select {
	case <-time.After(Backoff(e.backoffBase, attempt)):
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s request canceled: %w", e.apiTag, ctx.Err())
	}
}
