// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runlog reads and writes the append-only translation run log.
//
// The log carries two kinds of content: free-form output streamed from
// the external pipeline, and structured key=value event lines written by
// the runner. Events parse back for history import; everything else is
// opaque text that tails still show.
// See docs/ARCHITECTURE § Run Log.
package runlog

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// Event kinds emitted by the runner.
const (
	EventRunStart  = "run_start"
	EventUnitStart = "unit_start"
	EventUnitEnd   = "unit_end"
	EventRunEnd    = "run_end"
)

// eventPrefix starts every structured line so readers can cheaply tell
// events apart from pipeline output.
const eventPrefix = "ts="

// Event is one structured log line.
type Event struct {
	// Time is the event timestamp, UTC.
	Time time.Time

	// RunID groups the events of one runner invocation.
	RunID string

	// Kind is one of the Event* constants.
	Kind string

	// UnitID is set on unit_start and unit_end events.
	UnitID string

	// Status is the attempt outcome, set on unit_end events.
	Status types.UnitStatus

	// ExitCode is the pipeline exit code, -1 when not applicable.
	ExitCode int

	// Input is the resolved input path, when one was resolved.
	Input string

	// Duration is the attempt duration, set on unit_end events.
	Duration time.Duration

	// Message carries free text: failure reasons, run banners.
	Message string
}

// NewRunID returns a fresh identifier stamped on every event of a run.
func NewRunID() string {
	return uuid.NewString()
}

// IsEventLine reports whether line looks like a structured event rather
// than pipeline output.
func IsEventLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), eventPrefix)
}

// FormatLine renders an event as a single key=value line. Fields the
// event does not use are omitted; msg comes last and quoted.
func FormatLine(e Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ts=%s run=%s event=%s", e.Time.UTC().Format(time.RFC3339), e.RunID, e.Kind)
	if e.UnitID != "" {
		fmt.Fprintf(&b, " unit=%s", e.UnitID)
	}
	if e.Status != "" {
		fmt.Fprintf(&b, " status=%s", e.Status)
	}
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exit=%d", e.ExitCode)
	}
	if e.Input != "" {
		fmt.Fprintf(&b, " input=%q", e.Input)
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " dur_ms=%d", e.Duration.Milliseconds())
	}
	if e.Message != "" {
		fmt.Fprintf(&b, " msg=%q", e.Message)
	}
	return b.String()
}

// ParseLine parses a structured event line. ok is false for pipeline
// output and for lines too damaged to carry a timestamp and kind.
// Unknown keys are skipped so the format can grow without breaking
// old readers.
func ParseLine(line string) (Event, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, eventPrefix) {
		return Event{}, false
	}

	e := Event{ExitCode: -1}
	for _, field := range splitFields(line) {
		key, val, found := strings.Cut(field, "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			t, err := time.Parse(time.RFC3339, val)
			if err != nil {
				return Event{}, false
			}
			e.Time = t
		case "run":
			e.RunID = val
		case "event":
			e.Kind = val
		case "unit":
			e.UnitID = val
		case "status":
			e.Status = types.UnitStatus(val)
		case "exit":
			if n, err := strconv.Atoi(val); err == nil {
				e.ExitCode = n
			}
		case "input":
			e.Input = unquote(val)
		case "dur_ms":
			if n, err := strconv.ParseInt(val, 10, 64); err == nil {
				e.Duration = time.Duration(n) * time.Millisecond
			}
		case "msg":
			e.Message = unquote(val)
		}
	}

	if e.Kind == "" {
		return Event{}, false
	}
	return e, true
}

// splitFields splits key=value fields on spaces, keeping quoted values
// with embedded spaces intact.
func splitFields(s string) []string {
	var fields []string
	var b strings.Builder
	inQuote := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\' && inQuote:
			b.WriteRune(r)
			escaped = true
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == ' ' && !inQuote:
			if b.Len() > 0 {
				fields = append(fields, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		fields = append(fields, b.String())
	}
	return fields
}

func unquote(val string) string {
	if unq, err := strconv.Unquote(val); err == nil {
		return unq
	}
	return val
}

// Writer appends to the run log. The runner writes events through it and
// hands the same writer to the pipeline process for its own output, so
// the log stays a single interleaved record of the run.
type Writer struct {
	f     *os.File
	runID string
}

// Open opens the log at path for appending, creating it if needed.
func Open(path, runID string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening run log %s: %w", path, err)
	}
	return &Writer{f: f, runID: runID}, nil
}

// RunID returns the identifier stamped on this writer's events.
func (w *Writer) RunID() string {
	return w.runID
}

// Write appends raw pipeline output.
func (w *Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Event appends one structured event line, stamping the run id and the
// current time when the event carries neither.
func (w *Writer) Event(e Event) error {
	if e.RunID == "" {
		e.RunID = w.runID
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	_, err := fmt.Fprintln(w.f, FormatLine(e))
	return err
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// tailReadBytes bounds how much of a large log a tail read loads.
const tailReadBytes = 256 * 1024

// Tail returns up to maxLines trailing non-empty lines of the file at
// path, oldest first. A missing file yields no lines and no error.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening log %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log %s: %w", path, err)
	}
	if info.Size() == 0 {
		return nil, nil
	}

	var offset int64
	if info.Size() > tailReadBytes {
		offset = info.Size() - tailReadBytes
	}
	data := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(data, offset); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading log %s: %w", path, err)
	}

	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if offset > 0 && len(lines) > 0 {
		// The first line after a mid-file seek is usually torn.
		lines = lines[1:]
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}
