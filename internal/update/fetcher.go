package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/metrics"
)

const (
	DefaultMaxHops        = 6
	DefaultConnectTimeout = 15 * time.Second
	DefaultReadTimeout    = 120 * time.Second
)

// FetchOptions configures a Fetcher. Zero values take the defaults above.
type FetchOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxHops        int
	// FollowRedirectsManually runs the bounded redirect loop in the fetcher.
	// When false the HTTP client follows redirects, bounded by MaxHops.
	FollowRedirectsManually bool
	// RevalidateRedirects runs every redirect target through Policy.
	RevalidateRedirects bool
	Policy              *Policy
	UserAgent           string
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.MaxHops <= 0 {
		o.MaxHops = DefaultMaxHops
	}
	return o
}

// Fetcher downloads a package, following redirects itself.
type Fetcher struct {
	client  *http.Client
	opts    FetchOptions
	writer  *StreamWriter
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewFetcher creates a fetcher with its own transport.
func NewFetcher(opts FetchOptions, writer *StreamWriter, log logger.Logger, m *metrics.Metrics) *Fetcher {
	opts = opts.withDefaults()
	if log == nil {
		log = logger.Nop()
	}
	if writer == nil {
		writer = NewStreamWriter(log, nil)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = opts.ConnectTimeout
	transport.ResponseHeaderTimeout = opts.ReadTimeout

	f := &Fetcher{
		client:  &http.Client{Transport: transport},
		opts:    opts,
		writer:  writer,
		log:     log,
		metrics: m,
	}
	f.client.CheckRedirect = f.checkRedirect
	return f
}

// WithTransport replaces the HTTP transport (custom TLS roots, tests).
func (f *Fetcher) WithTransport(rt http.RoundTripper) *Fetcher {
	f.client.Transport = rt
	return f
}

// Fetch downloads target into dst and returns dst once the file is complete.
// Failures are *RedirectError, *HTTPStatusError or *TransportError.
func (f *Fetcher) Fetch(ctx context.Context, target *url.URL, dst string) (string, error) {
	started := time.Now()
	dl, err := f.open(ctx, target)
	if err != nil {
		return "", err
	}

	if dl.resp.ContentLength >= 0 {
		f.log.Debugf("contentLength=%d", dl.resp.ContentLength)
	}

	n, err := f.writer.Write(dl.body, dst, dl.resp.ContentLength, dl.cancel)
	if err != nil {
		return "", err
	}

	f.log.Debugf("download complete bytes=%d", n)
	f.metrics.AddDownloadedBytes(n)
	f.metrics.ObserveDownloadDuration(time.Since(started))
	return dst, nil
}

type download struct {
	resp   *http.Response
	body   io.ReadCloser
	cancel context.CancelFunc
}

// open walks the redirect chain and returns the first 2xx response.
// Up to MaxHops redirects are followed; the next redirect response fails.
// Every response that is not returned is closed before the next request.
func (f *Fetcher) open(ctx context.Context, target *url.URL) (*download, error) {
	requests := f.opts.MaxHops + 1
	if !f.opts.FollowRedirectsManually {
		requests = 1
	}

	current := target
	for i := 0; i < requests; i++ {
		resp, cancel, err := f.do(ctx, current)
		if err != nil {
			var redirErr *RedirectError
			if errors.As(err, &redirErr) {
				return nil, redirErr
			}
			return nil, newTransportError(err)
		}

		status := resp.StatusCode
		if isRedirect(status) {
			location := strings.TrimSpace(resp.Header.Get("Location"))
			disconnect(resp, cancel)

			// The client follows every redirect that carries a Location, so
			// one that reaches here in client mode had none.
			if location == "" || !f.opts.FollowRedirectsManually {
				f.log.Warnf("redirect missing Location header status=%d", status)
				return nil, &RedirectError{Reason: RedirectMissingLocation, Status: status}
			}
			next, err := current.Parse(location)
			if err != nil {
				f.log.Warnf("redirect with invalid Location status=%d", status)
				return nil, &RedirectError{Reason: RedirectInvalidLocation, Status: status}
			}
			if err := f.revalidate(next); err != nil {
				f.log.Warnf("redirect rejected status=%d -> %s", status, RedactURL(next.String()))
				return nil, &RedirectError{Reason: RedirectInsecure, Status: status}
			}

			f.log.Debugf("redirect status=%d -> %s", status, RedactURL(next.String()))
			current = next
			if i+1 < requests {
				f.metrics.IncRedirects()
			}
			continue
		}

		f.log.Debugf("response status=%d", status)
		if status < 200 || status >= 300 {
			disconnect(resp, cancel)
			return nil, &HTTPStatusError{Code: status}
		}
		return &download{
			resp:   resp,
			body:   newIdleTimeoutReader(resp.Body, f.opts.ReadTimeout, cancel),
			cancel: cancel,
		}, nil
	}

	f.log.Warnf("gave up after %d redirects", f.opts.MaxHops)
	return nil, &RedirectError{Reason: RedirectTooMany}
}

func (f *Fetcher) do(ctx context.Context, u *url.URL) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "*/*")
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return resp, cancel, nil
}

// checkRedirect is only consulted when the client follows redirects itself.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if f.opts.FollowRedirectsManually {
		return http.ErrUseLastResponse
	}
	if len(via) > f.opts.MaxHops {
		return &RedirectError{Reason: RedirectTooMany}
	}
	if err := f.revalidate(req.URL); err != nil {
		return &RedirectError{Reason: RedirectInsecure}
	}
	f.metrics.IncRedirects()
	return nil
}

func (f *Fetcher) revalidate(u *url.URL) error {
	if !f.opts.RevalidateRedirects || f.opts.Policy == nil {
		return nil
	}
	_, err := f.opts.Policy.Validate(u.String())
	return err
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func disconnect(resp *http.Response, cancel context.CancelFunc) {
	_ = resp.Body.Close()
	cancel()
}

// idleTimeoutReader fails a read that makes no progress for timeout by
// cancelling the request context.
type idleTimeoutReader struct {
	src      io.ReadCloser
	timeout  time.Duration
	timer    *time.Timer
	timedOut atomic.Bool
}

func newIdleTimeoutReader(src io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleTimeoutReader {
	r := &idleTimeoutReader{src: src, timeout: timeout}
	r.timer = time.AfterFunc(timeout, func() {
		r.timedOut.Store(true)
		cancel()
	})
	return r
}

func (r *idleTimeoutReader) Read(p []byte) (int, error) {
	r.timer.Reset(r.timeout)
	n, err := r.src.Read(p)
	if err != nil && err != io.EOF && r.timedOut.Load() {
		return n, &TransportError{Message: fmt.Sprintf("read timed out after %s", r.timeout), Err: err}
	}
	return n, err
}

func (r *idleTimeoutReader) Close() error {
	r.timer.Stop()
	return r.src.Close()
}
