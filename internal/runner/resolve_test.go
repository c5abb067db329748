// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveInputPicksFirstLexicographically(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PCM_part_02_pages_c.pdf")
	touch(t, dir, "PCM_part_02_pages_a.pdf")
	touch(t, dir, "PCM_part_02_pages_b.pdf")
	touch(t, dir, "PCM_part_03_pages_a.pdf")

	got, err := ResolveInput(dir, "PCM_part_02_*.pdf", "02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(dir, "PCM_part_02_pages_a.pdf")
	if got != want {
		t.Errorf("resolved %q, want %q", got, want)
	}
}

func TestResolveInputSingleMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PCM_part_04_full.pdf")

	got, err := ResolveInput(dir, "PCM_part_04_*.pdf", "04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(dir, "PCM_part_04_full.pdf") {
		t.Errorf("resolved %q", got)
	}
}

func TestResolveInputNoMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "PCM_part_02_full.pdf")

	_, err := ResolveInput(dir, "PCM_part_09_*.pdf", "09")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("error type = %T, want *ResolutionError", err)
	}
	if resErr.UnitID != "09" || resErr.Pattern != "PCM_part_09_*.pdf" {
		t.Errorf("ResolutionError = %+v", resErr)
	}
}

func TestResolveInputBadPattern(t *testing.T) {
	_, err := ResolveInput(t.TempDir(), "[", "02")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		t.Error("malformed pattern should not be a ResolutionError")
	}
}
