// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sigongjoa/math-translation-study/internal/pipeline"
	"github.com/sigongjoa/math-translation-study/internal/runlog"
	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// mockPipeline records which units it ran and simulates the real
// pipeline's side effects: output streamed to the log and a completion
// marker on success.
type mockPipeline struct {
	exitCodes map[string]int // unit id -> exit code, unset means success
	runTag    string
	calls     []string
	gotInputs []string
}

func (m *mockPipeline) Invoke(_ context.Context, unit types.WorkUnit, inputPath string, logw io.Writer) (int, error) {
	m.calls = append(m.calls, unit.ID)
	m.gotInputs = append(m.gotInputs, inputPath)
	fmt.Fprintf(logw, "processing %s\n", unit.ID)
	if code := m.exitCodes[unit.ID]; code != 0 {
		return code, &pipeline.ExecutionError{UnitID: unit.ID, ExitCode: code}
	}
	marker := filepath.Join(unit.OutputDir, completionMarker)
	content := fmt.Sprintf("{\"unit\":%q,\"run\":%q}\n", unit.ID, m.runTag)
	if err := os.WriteFile(marker, []byte(content), 0o644); err != nil {
		return -1, err
	}
	return 0, nil
}

// setupBatch lays out an input directory with one PDF per part and
// returns a config plus the three standard units rooted in a temp dir.
func setupBatch(t *testing.T) (types.RunConfig, []types.WorkUnit) {
	t.Helper()
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "PCM_split")
	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"PCM_part_02_full.pdf",
		"PCM_part_03_full.pdf",
		"PCM_part_04_full.pdf",
	} {
		if err := os.WriteFile(filepath.Join(inputDir, name), []byte("pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := types.RunConfig{
		PipelineCommand: "translate-pipeline",
		InputDir:        inputDir,
		Model:           "gemma2:9b",
	}
	units := []types.WorkUnit{
		{ID: "02", InputPattern: "PCM_part_02_*.pdf", OutputDir: filepath.Join(dir, "output_part_02"), Part: "II"},
		{ID: "03", InputPattern: "PCM_part_03_*.pdf", OutputDir: filepath.Join(dir, "output_part_03"), Part: "III"},
		{ID: "04", InputPattern: "PCM_part_04_*.pdf", OutputDir: filepath.Join(dir, "output_part_04"), Part: "IV"},
	}
	return cfg, units
}

func TestRunBatchContinuesOnFailure(t *testing.T) {
	cfg, units := setupBatch(t)
	mock := &mockPipeline{exitCodes: map[string]int{"03": 1}}
	r := New(cfg, mock, nil)

	var out bytes.Buffer
	result := r.RunBatch(context.Background(), units, &out)

	if result.Translated != 2 || result.Skipped != 0 || result.Failed != 1 {
		t.Errorf("result = %d translated, %d skipped, %d failed", result.Translated, result.Skipped, result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
	if got := strings.Join(mock.calls, " "); got != "02 03 04" {
		t.Errorf("units after a failure must still run, calls = %q", got)
	}

	text := out.String()
	for _, want := range []string{
		"translating: 02",
		"failed:  03",
		"translated: 04",
		"\nBatch summary: 2 translated, 0 skipped, 1 failed (total: 3)\n",
		"failed unit 03: unit 03: pipeline exited with code 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunUnitSkipsCompleted(t *testing.T) {
	cfg, units := setupBatch(t)
	unit := units[0]
	if err := os.MkdirAll(unit.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(unit.OutputDir, completionMarker), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	mock := &mockPipeline{}
	r := New(cfg, mock, nil)

	var out bytes.Buffer
	res := r.RunUnit(context.Background(), unit, &out)

	if res.Status != types.UnitSkipped {
		t.Errorf("status = %q, want %q", res.Status, types.UnitSkipped)
	}
	if len(mock.calls) != 0 {
		t.Errorf("pipeline invoked for a complete unit: %v", mock.calls)
	}
	if !strings.Contains(out.String(), "skipped: 02 (already complete)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRestartLeavesCompletedUnitsUntouched(t *testing.T) {
	cfg, units := setupBatch(t)

	first := &mockPipeline{exitCodes: map[string]int{"03": 1}, runTag: "first"}
	r1 := New(cfg, first, nil)
	if res := r1.RunBatch(context.Background(), units, io.Discard); res.Failed != 1 {
		t.Fatalf("first run failed = %d, want 1", res.Failed)
	}

	markerPath := filepath.Join(units[0].OutputDir, completionMarker)
	before, err := os.ReadFile(markerPath)
	if err != nil {
		t.Fatal(err)
	}

	second := &mockPipeline{runTag: "second"}
	r2 := New(cfg, second, nil)
	res := r2.RunBatch(context.Background(), units, io.Discard)

	if res.Translated != 1 || res.Skipped != 2 || res.Failed != 0 {
		t.Errorf("second run = %d translated, %d skipped, %d failed", res.Translated, res.Skipped, res.Failed)
	}
	if got := strings.Join(second.calls, " "); got != "03" {
		t.Errorf("second run should only invoke the failed unit, calls = %q", got)
	}

	after, err := os.ReadFile(markerPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("completed unit artifact changed across restart:\n before %s\n after  %s", before, after)
	}
	retried, err := os.ReadFile(filepath.Join(units[1].OutputDir, completionMarker))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(retried), "second") {
		t.Errorf("retried unit marker = %s, want content from the second run", retried)
	}
}

func TestRunUnitUnresolvedInput(t *testing.T) {
	cfg, _ := setupBatch(t)
	unit := types.WorkUnit{
		ID:           "09",
		InputPattern: "PCM_part_09_*.pdf",
		OutputDir:    filepath.Join(t.TempDir(), "output_part_09"),
		Part:         "IX",
	}

	mock := &mockPipeline{}
	r := New(cfg, mock, nil)

	var out bytes.Buffer
	res := r.RunUnit(context.Background(), unit, &out)

	if res.Status != types.UnitUnresolved {
		t.Errorf("status = %q, want %q", res.Status, types.UnitUnresolved)
	}
	if res.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", res.ExitCode)
	}
	if len(mock.calls) != 0 {
		t.Errorf("pipeline invoked despite unresolved input: %v", mock.calls)
	}
	if !strings.Contains(out.String(), `failed:  09 (unit 09: no input matches "PCM_part_09_*.pdf")`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunBatchAllUnresolved(t *testing.T) {
	cfg, _ := setupBatch(t)
	dir := t.TempDir()
	units := []types.WorkUnit{
		{ID: "08", InputPattern: "PCM_part_08_*.pdf", OutputDir: filepath.Join(dir, "output_part_08")},
		{ID: "09", InputPattern: "PCM_part_09_*.pdf", OutputDir: filepath.Join(dir, "output_part_09")},
	}

	mock := &mockPipeline{}
	r := New(cfg, mock, nil)
	result := r.RunBatch(context.Background(), units, io.Discard)

	if !result.AllUnresolved() {
		t.Error("AllUnresolved() = false when no unit resolved an input")
	}
	if len(mock.calls) != 0 {
		t.Errorf("pipeline invoked without inputs: %v", mock.calls)
	}

	// One resolvable unit is enough to count as a started run.
	_, realUnits := setupBatch(t)
	mixed := r.RunBatch(context.Background(), append(units, realUnits[0]), io.Discard)
	if mixed.AllUnresolved() {
		t.Error("AllUnresolved() = true with a resolved unit in the batch")
	}

	if (BatchResult{}).AllUnresolved() {
		t.Error("AllUnresolved() = true for an empty batch")
	}
}

func TestRunUnitPageRangeScope(t *testing.T) {
	cfg, _ := setupBatch(t)
	unit := types.WorkUnit{
		ID:        "intro",
		OutputDir: filepath.Join(t.TempDir(), "output_intro"),
		Pages:     &types.PageRange{Start: 0, End: 11},
	}

	mock := &mockPipeline{}
	r := New(cfg, mock, nil)

	var out bytes.Buffer
	res := r.RunUnit(context.Background(), unit, &out)

	if res.Status != types.UnitTranslated {
		t.Fatalf("status = %q (%s)", res.Status, res.Reason)
	}
	if len(mock.gotInputs) != 1 || mock.gotInputs[0] != "" {
		t.Errorf("page-scoped unit should invoke without a resolved input, got %v", mock.gotInputs)
	}
	if !strings.Contains(out.String(), "translating: intro (pages 0-11)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunBatchLogsEvents(t *testing.T) {
	cfg, units := setupBatch(t)
	logPath := filepath.Join(t.TempDir(), "translation.log")
	logw, err := runlog.Open(logPath, "run-test-1")
	if err != nil {
		t.Fatal(err)
	}

	mock := &mockPipeline{exitCodes: map[string]int{"03": 1}}
	r := New(cfg, mock, logw)
	r.RunBatch(context.Background(), units[:2], io.Discard)
	if err := logw.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	var events []runlog.Event
	var noise []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if e, ok := runlog.ParseLine(line); ok {
			events = append(events, e)
		} else {
			noise = append(noise, line)
		}
	}

	wantKinds := []string{
		runlog.EventRunStart,
		runlog.EventUnitStart, runlog.EventUnitEnd,
		runlog.EventUnitStart, runlog.EventUnitEnd,
		runlog.EventRunEnd,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d:\n%s", len(events), len(wantKinds), data)
	}
	for i, e := range events {
		if e.Kind != wantKinds[i] {
			t.Errorf("event %d kind = %q, want %q", i, e.Kind, wantKinds[i])
		}
		if e.RunID != "run-test-1" {
			t.Errorf("event %d run id = %q", i, e.RunID)
		}
	}

	done := events[2]
	if done.UnitID != "02" || done.Status != types.UnitTranslated || done.ExitCode != 0 {
		t.Errorf("translated unit_end = %+v", done)
	}
	failed := events[4]
	if failed.UnitID != "03" || failed.Status != types.UnitFailed || failed.ExitCode != 1 {
		t.Errorf("failed unit_end = %+v", failed)
	}
	if failed.Message == "" {
		t.Error("failed unit_end should carry the failure reason")
	}

	// Pipeline output interleaves with events but never parses as one.
	if len(noise) != 2 || !strings.Contains(noise[0], "processing 02") {
		t.Errorf("pipeline output lines = %v", noise)
	}
}

func TestRunBatchStopsOnCancelledContext(t *testing.T) {
	cfg, units := setupBatch(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockPipeline{}
	r := New(cfg, mock, nil)

	var out bytes.Buffer
	result := r.RunBatch(ctx, units, &out)

	if result.Total() != 0 {
		t.Errorf("total = %d, want 0", result.Total())
	}
	if len(mock.calls) != 0 {
		t.Errorf("pipeline invoked after cancellation: %v", mock.calls)
	}
	if !strings.Contains(out.String(), "interrupted: stopping before unit 02") {
		t.Errorf("output = %q", out.String())
	}
}

func TestClearUnit(t *testing.T) {
	for _, bad := range []string{"", ".", "..", "../other", "/etc"} {
		if err := ClearUnit(bad); err == nil {
			t.Errorf("ClearUnit(%q) = nil, want error", bad)
		}
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
	if err := os.MkdirAll(filepath.Join("output_part_03", "sections"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join("output_part_03", completionMarker), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ClearUnit("output_part_03"); err != nil {
		t.Fatalf("ClearUnit: %v", err)
	}
	if _, err := os.Stat("output_part_03"); !os.IsNotExist(err) {
		t.Error("output directory still present after ClearUnit")
	}

	// Clearing an already absent directory is not an error.
	if err := ClearUnit("output_part_03"); err != nil {
		t.Errorf("ClearUnit on missing dir: %v", err)
	}
}
