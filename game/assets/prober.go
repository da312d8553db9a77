package assets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Result is the availability of one image URL
type Result struct {
	URL       string `json:"url"`
	Available bool   `json:"available"`
	Status    int    `json:"status,omitempty"`
	Attempts  int    `json:"attempts"`
	Skipped   bool   `json:"skipped,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Prober checks image URLs with HEAD requests
type Prober struct {
	client      *http.Client
	baseURL     *url.URL
	concurrency int
	retries     int
	minBackoff  time.Duration
	maxBackoff  time.Duration
	log         zerolog.Logger
}

// Option configures a Prober
type Option func(*Prober)

// WithClient sets the HTTP client
func WithClient(c *http.Client) Option {
	return func(p *Prober) { p.client = c }
}

// WithBaseURL resolves relative image paths against base
func WithBaseURL(base string) Option {
	return func(p *Prober) {
		if u, err := url.Parse(base); err == nil && u.Scheme != "" {
			p.baseURL = u
		}
	}
}

// WithConcurrency limits how many requests run at once
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRetries sets how many times a transient failure is retried
func WithRetries(n int, min, max time.Duration) Option {
	return func(p *Prober) {
		if n >= 0 {
			p.retries = n
		}
		p.minBackoff, p.maxBackoff = min, max
	}
}

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Prober) { p.log = l }
}

// NewProber creates a prober
func NewProber(opts ...Option) *Prober {
	p := &Prober{
		client:      &http.Client{Timeout: 5 * time.Second},
		concurrency: 4,
		retries:     2,
		minBackoff:  100 * time.Millisecond,
		maxBackoff:  2 * time.Second,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe checks every URL and returns results in input order. It only
// returns an error when ctx is cancelled; partial results are still
// returned in that case.
func (p *Prober) Probe(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = p.check(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("asset probe aborted: %w", err)
	}
	return results, nil
}

func (p *Prober) check(ctx context.Context, raw string) Result {
	res := Result{URL: raw}

	target, ok := p.resolve(raw)
	if !ok {
		// relative path with no base: served alongside the page
		res.Available = true
		res.Skipped = true
		return res
	}

	b := &backoff.Backoff{Min: p.minBackoff, Max: p.maxBackoff, Factor: 2, Jitter: true}
	for {
		res.Attempts++
		status, err := p.head(ctx, target)
		res.Status = status

		switch {
		case err == nil && status >= 200 && status < 400:
			res.Available = true
			res.Error = ""
			return res
		case err == nil && !transient(status):
			res.Error = fmt.Sprintf("status %d", status)
			return res
		case err != nil:
			res.Error = err.Error()
		default:
			res.Error = fmt.Sprintf("status %d", status)
		}

		if res.Attempts > p.retries || ctx.Err() != nil {
			p.log.Debug().Str("url", raw).Int("attempts", res.Attempts).Str("error", res.Error).Msg("image unavailable")
			return res
		}

		select {
		case <-ctx.Done():
			res.Error = ctx.Err().Error()
			return res
		case <-time.After(b.Duration()):
		}
	}
}

func (p *Prober) resolve(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return u.String(), true
	}
	if p.baseURL == nil || u.Scheme != "" {
		return "", false
	}
	return p.baseURL.ResolveReference(u).String(), true
}

func (p *Prober) head(ctx context.Context, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// Unavailable returns the URLs that could not be loaded
func Unavailable(results []Result) []string {
	var out []string
	for _, r := range results {
		if !r.Available {
			out = append(out, r.URL)
		}
	}
	return out
}

// IsRemote reports whether u is an absolute http(s) URL
func IsRemote(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
