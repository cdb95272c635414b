package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/adamancini/sideload/internal/exitcodes"
)

const installTrue = "platform:\n  install_command: [\"true\"]\n"

func TestRunInstall_Success(t *testing.T) {
	srv := newPackageServer(t)
	cfgPath, cacheDir := writeConfig(t, "debug", installTrue)
	setGlobals(t, cfgPath, "text")

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), &stdout, &stderr, installOptions{url: srv.URL + "/moved", fileName: "app"})
	if err != nil {
		t.Fatalf("runInstall failed: %v", err)
	}

	assertContains(t, stdout.String(), "Installer launched")
	assertCached(t, cacheDir, "app.apk")
}

func TestRunInstall_DefaultFileName(t *testing.T) {
	srv := newPackageServer(t)
	cfgPath, cacheDir := writeConfig(t, "debug", installTrue)
	setGlobals(t, cfgPath, "json")

	var stdout, stderr bytes.Buffer
	if err := runInstall(context.Background(), &stdout, &stderr, installOptions{url: srv.URL + "/app.apk"}); err != nil {
		t.Fatalf("runInstall failed: %v", err)
	}

	var view outcomeView
	if err := json.Unmarshal(stdout.Bytes(), &view); err != nil {
		t.Fatalf("invalid json output %q: %v", stdout.String(), err)
	}
	if !view.OK {
		t.Errorf("expected ok outcome, got %+v", view)
	}
	assertCached(t, cacheDir, "update.apk")
}

func TestRunInstall_Failures(t *testing.T) {
	tests := []struct {
		name     string
		build    string
		extra    string
		path     string
		wantCode int
		wantKind string
		wantOut  string
	}{
		{
			name:     "release build refuses http",
			build:    "release",
			extra:    installTrue,
			path:     "/app.apk",
			wantCode: exitcodes.InvalidArgs,
			wantKind: "validation",
			wantOut:  "Only https URLs are allowed",
		},
		{
			name:     "http status",
			build:    "debug",
			extra:    installTrue,
			path:     "/missing.apk",
			wantCode: exitcodes.NetworkError,
			wantKind: "http_status",
			wantOut:  "Download failed: HTTP 404",
		},
		{
			name:     "installer cannot start",
			build:    "debug",
			extra:    "platform:\n  install_command: [\"/nonexistent/sideload-installer\"]\n",
			path:     "/app.apk",
			wantCode: exitcodes.ProcessError,
			wantKind: "install",
			wantOut:  "Install failed",
		},
		{
			name:     "permission missing",
			build:    "debug",
			extra:    "platform:\n  install_command: [\"true\"]\n  permission_command: [\"false\"]\n  settings_command: [\"true\"]\n",
			path:     "/app.apk",
			wantCode: exitcodes.PreconditionFailed,
			wantOut:  "NEEDS_UNKNOWN_SOURCES_PERMISSION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newPackageServer(t)
			cfgPath, _ := writeConfig(t, tt.build, tt.extra)
			setGlobals(t, cfgPath, "json")

			var stdout, stderr bytes.Buffer
			err := runInstall(context.Background(), &stdout, &stderr, installOptions{url: srv.URL + tt.path})
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := exitcodes.CodeForError(err); got != tt.wantCode {
				t.Errorf("exit code = %d, want %d", got, tt.wantCode)
			}
			if !IsReported(err) {
				t.Errorf("expected the outcome to be reported, got %v", err)
			}

			var view outcomeView
			if err := json.Unmarshal(stdout.Bytes(), &view); err != nil {
				t.Fatalf("invalid json output %q: %v", stdout.String(), err)
			}
			if view.OK {
				t.Errorf("expected a failed outcome, got %+v", view)
			}
			if view.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", view.Kind, tt.wantKind)
			}
			assertContains(t, stdout.String(), tt.wantOut)
		})
	}
}

func TestRunInstall_MissingURL(t *testing.T) {
	cfgPath, cacheDir := writeConfig(t, "debug", installTrue)
	setGlobals(t, cfgPath, "json")

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), &stdout, &stderr, installOptions{})
	if got := exitcodes.CodeForError(err); got != exitcodes.InvalidArgs {
		t.Errorf("exit code = %d, want %d", got, exitcodes.InvalidArgs)
	}
	if !IsReported(err) {
		t.Errorf("expected the outcome to be reported, got %v", err)
	}

	var view outcomeView
	if err := json.Unmarshal(stdout.Bytes(), &view); err != nil {
		t.Fatalf("invalid json output %q: %v", stdout.String(), err)
	}
	if view.OK || view.Error != "Missing url" || view.Kind != "validation" {
		t.Errorf("unexpected outcome %+v", view)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Errorf("cache dir must not be created for a rejected request: %v", err)
	}
}

func TestRunInstall_MissingURLText(t *testing.T) {
	cfgPath, _ := writeConfig(t, "debug", installTrue)
	setGlobals(t, cfgPath, "text")

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), &stdout, &stderr, installOptions{})
	if got := exitcodes.CodeForError(err); got != exitcodes.InvalidArgs {
		t.Errorf("exit code = %d, want %d", got, exitcodes.InvalidArgs)
	}
	assertContains(t, stdout.String(), "Missing url")
}

func TestRunInstall_QuietSuccessPrintsNothing(t *testing.T) {
	srv := newPackageServer(t)
	cfgPath, _ := writeConfig(t, "debug", installTrue)
	setGlobals(t, cfgPath, "text")
	quiet = true

	var stdout, stderr bytes.Buffer
	if err := runInstall(context.Background(), &stdout, &stderr, installOptions{url: srv.URL + "/app.apk"}); err != nil {
		t.Fatalf("runInstall failed: %v", err)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("expected no output, got stdout=%q stderr=%q", stdout.String(), stderr.String())
	}
}

func TestRunInstall_InvalidConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t, "debug", "fetch:\n  max_hops: 0\n")
	setGlobals(t, cfgPath, "text")

	var stdout, stderr bytes.Buffer
	err := runInstall(context.Background(), &stdout, &stderr, installOptions{url: "https://example.com/app.apk"})
	if got := exitcodes.CodeForError(err); got != exitcodes.InvalidArgs {
		t.Errorf("exit code = %d, want %d (err: %v)", got, exitcodes.InvalidArgs, err)
	}
}
