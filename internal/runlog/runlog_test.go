// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

func TestFormatParseRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	cases := []struct {
		name string
		in   Event
	}{
		{
			name: "run start",
			in: Event{
				Time:     ts,
				RunID:    "run-1",
				Kind:     EventRunStart,
				ExitCode: -1,
				Message:  "units=3 model=gemma2:9b input_dir=PCM_split",
			},
		},
		{
			name: "unit end translated",
			in: Event{
				Time:     ts,
				RunID:    "run-1",
				Kind:     EventUnitEnd,
				UnitID:   "02",
				Status:   types.UnitTranslated,
				ExitCode: 0,
				Input:    "PCM_split/PCM_part_02_pages_before.pdf",
				Duration: 90 * time.Second,
			},
		},
		{
			name: "unit end failed with spaces in message",
			in: Event{
				Time:     ts,
				RunID:    "run-1",
				Kind:     EventUnitEnd,
				UnitID:   "03",
				Status:   types.UnitFailed,
				ExitCode: 2,
				Input:    "PCM_split/with space.pdf",
				Duration: 1500 * time.Millisecond,
				Message:  `pipeline exited with code 2, see "translation.log"`,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := FormatLine(tc.in)
			if !IsEventLine(line) {
				t.Fatalf("IsEventLine(%q) = false, want true", line)
			}
			got, ok := ParseLine(line)
			if !ok {
				t.Fatalf("ParseLine(%q) not ok", line)
			}
			if !got.Time.Equal(tc.in.Time) {
				t.Errorf("Time = %v, want %v", got.Time, tc.in.Time)
			}
			if got.RunID != tc.in.RunID {
				t.Errorf("RunID = %q, want %q", got.RunID, tc.in.RunID)
			}
			if got.Kind != tc.in.Kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tc.in.Kind)
			}
			if got.UnitID != tc.in.UnitID {
				t.Errorf("UnitID = %q, want %q", got.UnitID, tc.in.UnitID)
			}
			if got.Status != tc.in.Status {
				t.Errorf("Status = %q, want %q", got.Status, tc.in.Status)
			}
			if got.ExitCode != tc.in.ExitCode {
				t.Errorf("ExitCode = %d, want %d", got.ExitCode, tc.in.ExitCode)
			}
			if got.Input != tc.in.Input {
				t.Errorf("Input = %q, want %q", got.Input, tc.in.Input)
			}
			if got.Duration != tc.in.Duration {
				t.Errorf("Duration = %v, want %v", got.Duration, tc.in.Duration)
			}
			if got.Message != tc.in.Message {
				t.Errorf("Message = %q, want %q", got.Message, tc.in.Message)
			}
		})
	}
}

func TestParseLineRejectsPipelineOutput(t *testing.T) {
	lines := []string{
		"",
		"Processing page 12 of 140...",
		"[INFO] verification pass: formula",
		"Traceback (most recent call last):",
		"timestamp=2026-03-14 something else",
	}
	for _, line := range lines {
		if IsEventLine(line) {
			t.Errorf("IsEventLine(%q) = true, want false", line)
		}
		if _, ok := ParseLine(line); ok {
			t.Errorf("ParseLine(%q) ok, want not ok", line)
		}
	}

	// Carries the prefix but no usable timestamp.
	if _, ok := ParseLine("ts=garbage run=x event=unit_end"); ok {
		t.Error("ParseLine with bad timestamp ok, want not ok")
	}
}

func TestTail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translation.log")

	var b strings.Builder
	for i := 1; i <= 25; i++ {
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := Tail(path, 20)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	if lines[0] != strings.Repeat("x", 6) {
		t.Errorf("first tailed line = %q, want the 6th line", lines[0])
	}
	if lines[19] != strings.Repeat("x", 25) {
		t.Errorf("last tailed line = %q, want the 25th line", lines[19])
	}
}

func TestTailShortLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translation.log")
	if err := os.WriteFile(path, []byte("one\n\ntwo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lines, err := Tail(path, 20)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (blank lines skipped)", len(lines))
	}
	if lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want [one two]", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	lines, err := Tail(filepath.Join(t.TempDir(), "absent.log"), 20)
	if err != nil {
		t.Fatalf("Tail on missing file: %v", err)
	}
	if lines != nil {
		t.Errorf("lines = %v, want nil", lines)
	}
}

func TestWriterAppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "translation.log")

	w1, err := Open(path, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if err := w1.Event(Event{Kind: EventRunStart, ExitCode: -1}); err != nil {
		t.Fatal(err)
	}
	if _, err := w1.Write([]byte("pipeline says hello\n")); err != nil {
		t.Fatal(err)
	}
	if err := w1.Close(); err != nil {
		t.Fatal(err)
	}

	w2, err := Open(path, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if err := w2.Event(Event{Kind: EventRunStart, ExitCode: -1}); err != nil {
		t.Fatal(err)
	}
	if err := w2.Close(); err != nil {
		t.Fatal(err)
	}

	lines, err := Tail(path, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	first, ok := ParseLine(lines[0])
	if !ok || first.RunID != "run-1" {
		t.Errorf("first line run = %q, want run-1", first.RunID)
	}
	if lines[1] != "pipeline says hello" {
		t.Errorf("second line = %q, want pipeline output", lines[1])
	}
	last, ok := ParseLine(lines[2])
	if !ok || last.RunID != "run-2" {
		t.Errorf("last line run = %q, want run-2", last.RunID)
	}
	if last.Time.IsZero() {
		t.Error("event time not stamped")
	}
}
