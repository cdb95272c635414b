package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// packageBody is what the test package server returns for /app.apk.
const packageBody = "PK\x03\x04 not really an apk"

// setGlobals points the global flags at cfgPath for the duration of the test.
func setGlobals(t *testing.T, cfgPath, format string) {
	t.Helper()
	oldOutput, oldConfig, oldBuild, oldVerbose, oldQuiet := outputFormat, configPath, buildFlag, verbose, quiet
	t.Cleanup(func() {
		outputFormat, configPath, buildFlag, verbose, quiet = oldOutput, oldConfig, oldBuild, oldVerbose, oldQuiet
	})
	outputFormat, configPath, buildFlag, verbose, quiet = format, cfgPath, "", false, false

	t.Setenv("SIDELOAD_BUILD", "")
	t.Setenv("SIDELOAD_CACHE_DIR", "")
	t.Setenv("SIDELOAD_LOG_LEVEL", "")
	t.Setenv("SIDELOAD_LOG_FILE", "")
}

// writeConfig writes a YAML config using a fresh cache dir and returns the
// config path and the cache dir. extra is appended verbatim.
func writeConfig(t *testing.T, build string, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	content := "build: " + build + "\n" +
		"cache_dir: " + cacheDir + "\n" +
		"log:\n  level: error\n" +
		extra
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path, cacheDir
}

// newPackageServer serves packageBody at /app.apk and 404 everywhere else.
func newPackageServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/app.apk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.android.package-archive")
		_, _ = w.Write([]byte(packageBody))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app.apk", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func assertCached(t *testing.T, cacheDir, name string) {
	t.Helper()
	got, err := os.ReadFile(filepath.Join(cacheDir, name))
	if err != nil {
		t.Fatalf("package not cached: %v", err)
	}
	if string(got) != packageBody {
		t.Errorf("cached package = %q, want %q", got, packageBody)
	}
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Errorf("output missing %q:\n%s", substr, s)
	}
}
