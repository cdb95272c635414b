package exitcodes

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"plain error", errors.New("boom"), GeneralError},
		{"explicit code", NewError(NetworkError, "Download failed: HTTP 404"), NetworkError},
		{"wrapped code", fmt.Errorf("install: %w", WrapError(ProcessError, errors.New("Install failed"))), ProcessError},
		{"invalid args", InvalidArgsError("Missing url"), InvalidArgs},
		{"precondition", PreconditionError("needs permission"), PreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeForError(tt.err); got != tt.want {
				t.Errorf("CodeForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorWithCodeMessage(t *testing.T) {
	cause := errors.New("Only https URLs are allowed")

	if got := WrapError(InvalidArgs, cause).Error(); got != "Only https URLs are allowed" {
		t.Errorf("WrapError().Error() = %q", got)
	}

	e := &ErrorWithCode{Code: GeneralError, Message: "config", Cause: cause}
	if got := e.Error(); got != "config: Only https URLs are allowed" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(e, cause) {
		t.Error("ErrorWithCode should unwrap to its cause")
	}
}
