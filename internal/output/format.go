// Package output renders command results as text or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Format represents the output format.
type Format string

// Output format constants.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatAuto Format = "auto"
)

// TextRenderer is implemented by results with a custom text layout.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Formatter writes results to out and progress messages to status.
type Formatter struct {
	format Format
	out    io.Writer
	status io.Writer
}

// NewFormatter creates a formatter. Status messages go to os.Stderr.
func NewFormatter(format Format, w io.Writer) *Formatter {
	return &Formatter{format: format, out: w, status: os.Stderr}
}

// WithStatus redirects status messages.
func (f *Formatter) WithStatus(w io.Writer) *Formatter {
	f.status = w
	return f
}

// Format returns the current output format.
func (f *Formatter) Format() Format {
	return f.format
}

// Writer returns the result writer.
func (f *Formatter) Writer() io.Writer {
	return f.out
}

// StatusWriter returns the writer for progress messages.
func (f *Formatter) StatusWriter() io.Writer {
	return f.status
}

// IsJSON returns true if the formatter outputs JSON.
func (f *Formatter) IsJSON() bool {
	return f.format == FormatJSON
}

// Print writes v as indented JSON or as text.
func (f *Formatter) Print(v any) error {
	if f.format == FormatJSON {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	switch val := v.(type) {
	case TextRenderer:
		return val.RenderText(f.out)
	case string:
		_, err := fmt.Fprintln(f.out, val)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.out, val.String())
		return err
	default:
		_, err := fmt.Fprintf(f.out, "%v\n", val)
		return err
	}
}

// Statusf writes a progress line. It is suppressed in JSON mode so that
// stdout stays machine readable and stderr stays quiet.
func (f *Formatter) Statusf(format string, args ...any) {
	if f.format == FormatJSON || f.status == nil {
		return
	}
	_, _ = fmt.Fprintf(f.status, format+"\n", args...)
}

// DetectFormat determines the appropriate format based on context.
// Returns JSON for non-TTY output, text for TTY, unless explicitly overridden.
func DetectFormat(w io.Writer, explicit Format) Format {
	if explicit != FormatAuto {
		return explicit
	}
	if isTerminal(w) {
		return FormatText
	}
	return FormatJSON
}

// ParseFormat parses a format string.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return FormatAuto
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: Fd() returns uintptr, safe conversion for term.IsTerminal
}
