package update

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
)

// Redirect failure reasons.
const (
	RedirectMissingLocation = "missing-location"
	RedirectTooMany         = "too-many-redirects"
	RedirectInvalidLocation = "invalid-location"
	RedirectInsecure        = "insecure-redirect"
)

// RedirectError ends the redirect loop.
type RedirectError struct {
	Reason string
	Status int // status of the redirect response that failed, 0 when not applicable
}

func (e *RedirectError) Error() string {
	return "redirect " + e.Reason
}

// HTTPStatusError is a terminal response outside [200,300).
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// TransportError covers DNS, connection, timeout and stream failures.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// newTransportError describes err without the request URL, falling back to
// the error's type name when it has no message.
func newTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	inner := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		inner = urlErr.Err
	}
	msg := strings.TrimSpace(inner.Error())
	if msg == "" {
		msg = typeName(inner)
	}
	return &TransportError{Message: msg, Err: err}
}

func typeName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// InstallError means the install request could not be started.
type InstallError struct {
	Err error
}

func (e *InstallError) Error() string {
	return fmt.Sprintf("install request failed: %v", e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}

// RejectionKind classifies a rejected invocation.
type RejectionKind string

const (
	KindValidation RejectionKind = "validation"
	KindRedirect   RejectionKind = "redirect"
	KindHTTPStatus RejectionKind = "http_status"
	KindTransport  RejectionKind = "transport"
	KindInstall    RejectionKind = "install"
)

// Rejection is the error half of an invocation result. Its message is the
// human readable reason shown to the caller.
type Rejection struct {
	Kind   RejectionKind
	Reason string
	Cause  error
}

func (r *Rejection) Error() string {
	return r.Reason
}

func (r *Rejection) Unwrap() error {
	return r.Cause
}

// Reject converts a failure from any stage into a Rejection.
func Reject(err error) *Rejection {
	var (
		rej       *Rejection
		policyErr *PolicyError
		statusErr *HTTPStatusError
		redirErr  *RedirectError
		installEr *InstallError
	)
	switch {
	case errors.As(err, &rej):
		return rej
	case errors.As(err, &policyErr):
		if policyErr.Reason == ReasonMalformedURL {
			return &Rejection{Kind: KindTransport, Reason: "Download failed: " + policyErr.Error(), Cause: err}
		}
		return &Rejection{Kind: KindValidation, Reason: policyErr.Error(), Cause: err}
	case errors.As(err, &statusErr):
		return &Rejection{Kind: KindHTTPStatus, Reason: "Download failed: " + statusErr.Error(), Cause: err}
	case errors.As(err, &redirErr):
		return &Rejection{Kind: KindRedirect, Reason: "Download failed: " + redirErr.Error(), Cause: err}
	case errors.As(err, &installEr):
		return &Rejection{Kind: KindInstall, Reason: "Install failed", Cause: err}
	default:
		return &Rejection{Kind: KindTransport, Reason: "Download failed: " + newTransportError(err).Message, Cause: err}
	}
}
