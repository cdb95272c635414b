package update

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/sideload/internal/metrics"
	"github.com/adamancini/sideload/internal/types"
)

var debugPolicy = Policy{Build: types.BuildDebug, AllowInsecureInDebug: true}

// redirectChain serves /hop/N redirecting to /hop/N+1 until N == redirects,
// which serves payload.
func redirectChain(t *testing.T, redirects int, payload []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var n int
		if _, err := fmt.Sscanf(r.URL.Path, "/hop/%d", &n); err != nil {
			http.NotFound(w, r)
			return
		}
		if n < redirects {
			http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestFetcher(opts FetchOptions, m *metrics.Metrics) *Fetcher {
	if opts.Policy == nil {
		p := debugPolicy
		opts.Policy = &p
	}
	return NewFetcher(opts, nil, nil, m)
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestFetchFollowsRedirectsWithinHopLimit(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 20000)
	srv, hits := redirectChain(t, DefaultMaxHops, payload)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true, RevalidateRedirects: true}, m)

	dst := filepath.Join(t.TempDir(), "app.apk")
	path, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/hop/0"), dst)
	require.NoError(t, err)
	assert.Equal(t, dst, path)
	assert.Equal(t, int32(DefaultMaxHops+1), hits.Load())
	assert.FileExists(t, dst)

	expected := `
# HELP sideload_download_bytes_total Bytes written to completed package files.
# TYPE sideload_download_bytes_total counter
sideload_download_bytes_total 20000
# HELP sideload_redirects_total Redirect hops followed.
# TYPE sideload_redirects_total counter
sideload_redirects_total 6
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"sideload_redirects_total", "sideload_download_bytes_total"))
}

func TestFetchStopsAfterMaxHops(t *testing.T) {
	srv, hits := redirectChain(t, 100, []byte("never"))
	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true}, nil)

	dst := filepath.Join(t.TempDir(), "app.apk")
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/hop/0"), dst)

	var re *RedirectError
	require.True(t, errors.As(err, &re), "got %v", err)
	assert.Equal(t, RedirectTooMany, re.Reason)
	assert.Equal(t, int32(DefaultMaxHops+1), hits.Load())
	assert.NoFileExists(t, dst)
}

func TestFetchRedirectLimitBoundary(t *testing.T) {
	tests := []struct {
		redirects int
		wantErr   bool
	}{
		{DefaultMaxHops - 1, false},
		{DefaultMaxHops, false},
		{DefaultMaxHops + 1, true},
	}

	for _, manual := range []bool{true, false} {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("manual=%v/redirects=%d", manual, tt.redirects), func(t *testing.T) {
				srv, _ := redirectChain(t, tt.redirects, []byte("payload"))
				f := newTestFetcher(FetchOptions{FollowRedirectsManually: manual}, nil)

				dst := filepath.Join(t.TempDir(), "app.apk")
				_, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/hop/0"), dst)
				if !tt.wantErr {
					require.NoError(t, err)
					assert.FileExists(t, dst)
					return
				}
				var re *RedirectError
				require.True(t, errors.As(err, &re), "got %v", err)
				assert.Equal(t, RedirectTooMany, re.Reason)
				assert.NoFileExists(t, dst)
			})
		}
	}
}

func TestFetchRedirectWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	for _, manual := range []bool{true, false} {
		t.Run(fmt.Sprintf("manual=%v", manual), func(t *testing.T) {
			f := newTestFetcher(FetchOptions{FollowRedirectsManually: manual}, nil)

			dst := filepath.Join(t.TempDir(), "app.apk")
			_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), dst)

			var re *RedirectError
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, RedirectMissingLocation, re.Reason)
			assert.Equal(t, http.StatusFound, re.Status)
			assert.NoFileExists(t, dst)
		})
	}
}

func TestFetchRejectsInsecureRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "ftp://mirror.example.com/app.apk")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer srv.Close()

	for _, manual := range []bool{true, false} {
		t.Run(fmt.Sprintf("manual=%v", manual), func(t *testing.T) {
			f := newTestFetcher(FetchOptions{FollowRedirectsManually: manual, RevalidateRedirects: true}, nil)
			_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), filepath.Join(t.TempDir(), "a.apk"))

			var re *RedirectError
			require.True(t, errors.As(err, &re), "got %v", err)
			assert.Equal(t, RedirectInsecure, re.Reason)
		})
	}
}

func TestFetchWithoutRevalidationFollowsAnyLocation(t *testing.T) {
	payload := []byte("apk")
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer target.Close()
	release := Policy{Build: types.BuildRelease}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusTemporaryRedirect)
	}))
	defer srv.Close()

	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true, Policy: &release}, nil)
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), filepath.Join(t.TempDir(), "a.apk"))
	require.NoError(t, err)
}

func TestFetchHTTPStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNotModified} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer srv.Close()
			f := newTestFetcher(FetchOptions{FollowRedirectsManually: true}, nil)

			dst := filepath.Join(t.TempDir(), "app.apk")
			_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), dst)

			var se *HTTPStatusError
			require.True(t, errors.As(err, &se), "got %v", err)
			assert.Equal(t, code, se.Code)
			assert.Equal(t, fmt.Sprintf("Download failed: HTTP %d", code), Reject(err).Error())
			assert.NoFileExists(t, dst)
		})
	}
}

func TestFetchSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "*/*", r.Header.Get("Accept"))
		assert.Equal(t, "sideload/test", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true, UserAgent: "sideload/test"}, nil)
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), filepath.Join(t.TempDir(), "a.apk"))
	require.NoError(t, err)
}

func TestFetchClientFollowedRedirects(t *testing.T) {
	payload := []byte("payload")

	t.Run("within limit", func(t *testing.T) {
		srv, _ := redirectChain(t, 3, payload)
		f := newTestFetcher(FetchOptions{}, nil)
		_, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/hop/0"), filepath.Join(t.TempDir(), "a.apk"))
		require.NoError(t, err)
	})

	t.Run("over limit", func(t *testing.T) {
		srv, hits := redirectChain(t, 100, payload)
		f := newTestFetcher(FetchOptions{}, nil)
		_, err := f.Fetch(context.Background(), mustParse(t, srv.URL+"/hop/0"), filepath.Join(t.TempDir(), "a.apk"))

		var re *RedirectError
		require.True(t, errors.As(err, &re), "got %v", err)
		assert.Equal(t, RedirectTooMany, re.Reason)
		assert.Equal(t, int32(DefaultMaxHops+1), hits.Load())
	})
}

func TestFetchReadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte(strings.Repeat("a", 10)))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true, ReadTimeout: 100 * time.Millisecond}, nil)
	dst := filepath.Join(t.TempDir(), "app.apk")
	_, err := f.Fetch(context.Background(), mustParse(t, srv.URL), dst)

	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Contains(t, te.Error(), "timed out")
	assert.NoFileExists(t, dst)
}

func TestFetchCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("a"))
		w.(http.Flusher).Flush()
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true}, nil)
	dst := filepath.Join(t.TempDir(), "app.apk")
	_, err := f.Fetch(ctx, mustParse(t, srv.URL), dst)

	require.Error(t, err)
	assert.Equal(t, KindTransport, Reject(err).Kind)
	assert.NoFileExists(t, dst)
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := newTestFetcher(FetchOptions{FollowRedirectsManually: true}, nil)
	_, err := f.Fetch(context.Background(), mustParse(t, addr), filepath.Join(t.TempDir(), "a.apk"))

	var te *TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.NotContains(t, te.Error(), `Get "`)
}
