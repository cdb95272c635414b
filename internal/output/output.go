// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// TextRenderer is implemented by values with a styled text form.
type TextRenderer interface {
	RenderText(s Styles) string
}

// Styles are the text styles used for human output. They render plain text
// when the destination is not a color terminal.
type Styles struct {
	OK    lipgloss.Style
	Warn  lipgloss.Style
	Error lipgloss.Style
	Label lipgloss.Style
	Dim   lipgloss.Style
}

// NewStyles creates styles bound to the color profile of w.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		OK:    r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warn:  r.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Error: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Label: r.NewStyle().Foreground(lipgloss.Color("39")),
		Dim:   r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
	styles Styles
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w, styles: NewStyles(w)}
}

// Format returns the configured format.
func (w *Writer) Format() Format {
	return w.format
}

// Styles returns the styles bound to the destination.
func (w *Writer) Styles() Styles {
	return w.styles
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	case FormatTOML:
		return toml.NewEncoder(w.w).Encode(v)
	default:
		switch s := v.(type) {
		case TextRenderer:
			_, err := fmt.Fprintln(w.w, s.RenderText(w.styles))
			return err
		case fmt.Stringer:
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
