package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// maxLineSize bounds a single SSE line. Stage payloads carry full model
// answers, so lines can be large.
const maxLineSize = 4 * 1024 * 1024

// Decoder reads data-prefixed SSE lines from an HTTP response body and
// decodes them into Events in arrival order. A line that is not valid
// JSON is skipped with a diagnostic; the stream continues.
type Decoder struct {
	scanner *bufio.Scanner
	logf    func(format string, args ...any)
}

// DecoderOption configures a Decoder
type DecoderOption func(*Decoder)

// WithDiagnostics redirects malformed-line diagnostics. The default
// writes to stderr.
func WithDiagnostics(logf func(format string, args ...any)) DecoderOption {
	return func(d *Decoder) {
		d.logf = logf
	}
}

// NewDecoder creates a Decoder over r
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	d := &Decoder{
		scanner: scanner,
		logf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next returns the next event from the stream, or io.EOF when the body
// is exhausted. Blank lines and SSE comments are skipped silently;
// malformed payloads are skipped with a diagnostic.
func (d *Decoder) Next() (*Event, error) {
	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// Field lines other than data (event:, id:, retry:) are
			// not part of the backend's vocabulary.
			continue
		}
		payload = strings.TrimSpace(payload)

		if !gjson.Valid(payload) {
			d.logf("stream: skipping malformed event line: %.120s", payload)
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			d.logf("stream: skipping undecodable event: %v", err)
			continue
		}
		if ev.Type == "" {
			d.logf("stream: skipping event without type: %.120s", payload)
			continue
		}
		return &ev, nil
	}

	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
