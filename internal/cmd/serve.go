package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/adamancini/sideload/internal/logger"
	"github.com/adamancini/sideload/internal/update"
)

const (
	maxRequestBody  = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// downloadInstaller is the part of update.Updater the HTTP bridge needs.
type downloadInstaller interface {
	DownloadAndInstall(ctx context.Context, req update.Request) (update.Result, error)
}

// installRequest is the body of POST /v1/download-and-install.
type installRequest struct {
	URL      string `json:"url"`
	FileName string `json:"fileName,omitempty"`
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve download-and-install over a local HTTP bridge",
		Long: `Starts a local HTTP server so other processes can request installs.

Endpoints:
  POST /v1/download-and-install  {"url": "...", "fileName": "..."}
  GET  /metrics                  prometheus metrics
  GET  /healthz                  liveness

Resolved requests, including a missing install permission, answer 200 with
{"ok": ..., "code": ...}. Rejections answer 400, 500 or 502 with
{"ok": false, "error": ..., "kind": ...}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd.ErrOrStderr(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")

	return cmd
}

func runServe(ctx context.Context, stderr io.Writer, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	rt, err := newSession(reg)
	if err != nil {
		return err
	}
	defer rt.close()

	if addr == "" {
		addr = rt.cfg.Serve.Addr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           newServeMux(rt.newUpdater(nil), reg, rt.log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	if !quiet {
		fmt.Fprintf(stderr, "Listening on http://%s\n", ln.Addr())
	}
	rt.log.Infof("serving on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServeMux(u downloadInstaller, gatherer prometheus.Gatherer, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/download-and-install", handleDownloadAndInstall(u, log))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

func handleDownloadAndInstall(u downloadInstaller, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req installRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, outcomeView{
				Error: "invalid request body: " + err.Error(),
				Kind:  string(update.KindValidation),
			}, log)
			return
		}

		res, err := u.DownloadAndInstall(r.Context(), update.Request{URL: req.URL, FileName: req.FileName})
		writeJSON(w, httpStatus(err), newOutcomeView(res, err), log)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to write response: %v", err)
	}
}
