package update

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/adamancini/sideload/internal/logger"
)

const copyBufferSize = 8 << 10

// ProgressFunc is called during download with bytes written and total size.
// total is -1 when the server did not announce a length.
type ProgressFunc func(written, total int64)

// StreamWriter copies a response body into a destination file.
type StreamWriter struct {
	Progress ProgressFunc
	log      logger.Logger
}

// NewStreamWriter creates a writer.
func NewStreamWriter(log logger.Logger, progress ProgressFunc) *StreamWriter {
	if log == nil {
		log = logger.Nop()
	}
	return &StreamWriter{Progress: progress, log: log}
}

// Write truncates dst and copies src into it, then flushes it to disk.
//
// On every exit path src is closed first, then the file, then disconnect is
// called. Release failures are logged and never replace the copy result.
// A failed copy removes the partial file.
func (w *StreamWriter) Write(src io.ReadCloser, dst string, total int64, disconnect func()) (written int64, err error) {
	var out *os.File
	defer func() {
		if cerr := src.Close(); cerr != nil {
			w.log.Debugf("close response body: %v", cerr)
		}
		if out != nil {
			if cerr := out.Close(); cerr != nil {
				w.log.Debugf("close %s: %v", dst, cerr)
			}
			if err != nil {
				_ = os.Remove(dst)
			}
		}
		if disconnect != nil {
			disconnect()
		}
	}()

	out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return 0, &TransportError{Message: fmt.Sprintf("failed to create %s: %v", dst, unwrapPathError(err)), Err: err}
	}

	buf := make([]byte, copyBufferSize)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return written, &TransportError{Message: fmt.Sprintf("failed to write %s: %v", dst, unwrapPathError(werr)), Err: werr}
			}
			written += int64(n)
			if w.Progress != nil {
				w.Progress(written, total)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return written, newTransportError(rerr)
		}
	}

	if err = out.Sync(); err != nil {
		return written, &TransportError{Message: fmt.Sprintf("failed to flush %s: %v", dst, unwrapPathError(err)), Err: err}
	}
	return written, nil
}

func unwrapPathError(err error) error {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
