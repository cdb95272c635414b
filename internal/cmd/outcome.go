package cmd

import (
	"errors"
	"net/http"

	"github.com/adamancini/sideload/internal/exitcodes"
	"github.com/adamancini/sideload/internal/output"
	"github.com/adamancini/sideload/internal/update"
)

// outcomeView is how an invocation result is shown on the CLI and over HTTP.
type outcomeView struct {
	OK    bool   `json:"ok" yaml:"ok" toml:"ok"`
	Code  string `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
}

func newOutcomeView(res update.Result, err error) outcomeView {
	if err != nil {
		rej := update.Reject(err)
		return outcomeView{OK: false, Error: rej.Error(), Kind: string(rej.Kind)}
	}
	return outcomeView{OK: res.OK, Code: string(res.Code)}
}

func (v outcomeView) RenderText(s output.Styles) string {
	switch {
	case v.OK:
		return s.OK.Render("✓") + " Installer launched"
	case v.Error != "":
		return s.Error.Render("✗") + " " + v.Error
	default:
		return s.Warn.Render("!") + " Install permission required (" + v.Code + ")\n" +
			s.Dim.Render("  Allow installs from this source in the settings screen, then retry.")
	}
}

// exitCode maps an invocation result to the process exit code.
func exitCode(res update.Result, err error) int {
	if err != nil {
		var rej *update.Rejection
		if !errors.As(err, &rej) {
			return exitcodes.GeneralError
		}
		switch rej.Kind {
		case update.KindValidation:
			return exitcodes.InvalidArgs
		case update.KindInstall:
			return exitcodes.ProcessError
		default:
			return exitcodes.NetworkError
		}
	}
	if !res.OK {
		return exitcodes.PreconditionFailed
	}
	return exitcodes.Success
}

// httpStatus maps an invocation result to the status of the serve endpoint.
// Resolved invocations, including the permission soft denial, are 200.
func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch update.Reject(err).Kind {
	case update.KindValidation:
		return http.StatusBadRequest
	case update.KindInstall:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// reportOutcome writes the outcome and returns an error carrying the exit
// code for everything but a launched install.
func reportOutcome(out *output.Writer, res update.Result, err error) error {
	view := newOutcomeView(res, err)
	if !(quiet && view.OK) {
		if werr := out.Write(view); werr != nil {
			return werr
		}
	}

	code := exitCode(res, err)
	if code == exitcodes.Success {
		return nil
	}
	msg := view.Error
	if msg == "" {
		msg = view.Code
	}
	return &reportedError{err: exitcodes.NewError(code, msg)}
}
