package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

// Options configures the HTTP plumbing shared by every supplier client.
type Options struct {
	Timeout    time.Duration
	RatePerSec float64
	HTTP       *http.Client
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 5
	}
	if o.HTTP == nil {
		o.HTTP = &http.Client{}
	}
	return o
}

type httpClient struct {
	name    string
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	sign    func(h http.Header)
}

func newHTTPClient(name, baseURL string, opts Options, sign func(http.Header)) *httpClient {
	opts = opts.withDefaults()
	burst := int(opts.RatePerSec)
	if burst < 1 {
		burst = 1
	}
	return &httpClient{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: opts.Timeout,
		http:    opts.HTTP,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), burst),
		sign:    sign,
	}
}

// do sends one request and decodes a 2xx JSON body into out. Every failure
// comes back as an *apperr.Error.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return c.transportErr(ctx, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sign != nil {
		c.sign(req.Header)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return c.transportErr(ctx, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return c.transportErr(ctx, err)
	}

	switch {
	case res.StatusCode == http.StatusNotFound:
		return apperr.NotFound(c.name+" resource", path)
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return apperr.Upstream(apperr.CodeUpstreamUnavailable, c.name, fmt.Errorf("status %d: %s", res.StatusCode, snippet(raw)))
	case res.StatusCode >= 400:
		return apperr.Upstream(apperr.CodeUpstreamRejected, c.name, fmt.Errorf("status %d: %s", res.StatusCode, snippet(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Upstream(apperr.CodeUpstreamRejected, c.name, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *httpClient) transportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Upstream(apperr.CodeUpstreamTimeout, c.name, err)
	}
	return apperr.Upstream(apperr.CodeUpstreamUnavailable, c.name, err)
}

func (c *httpClient) rejected(format string, args ...any) error {
	return apperr.Upstream(apperr.CodeUpstreamRejected, c.name, fmt.Errorf(format, args...))
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
