// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline invokes the external translation pipeline, one blocking
// process per work unit. The pipeline's stdout and stderr stream into the
// run log so the log stays the single record of a run.
// See docs/ARCHITECTURE § Pipeline Invocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (int, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	return -1, err
}

var defaultExec executor = &osExecutor{}

// ExecutionError reports a pipeline process that ran and exited non-zero.
type ExecutionError struct {
	UnitID   string
	ExitCode int
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("unit %s: pipeline exited with code %d", e.UnitID, e.ExitCode)
}

// Invoker runs the configured pipeline command for work units.
type Invoker struct {
	cfg  types.RunConfig
	exec executor
}

// New returns an Invoker for the given run configuration.
func New(cfg types.RunConfig) *Invoker {
	return &Invoker{cfg: cfg, exec: defaultExec}
}

// Available reports whether the pipeline command exists on PATH.
func (inv *Invoker) Available() bool {
	_, err := inv.exec.LookPath(inv.cfg.PipelineCommand)
	return err == nil
}

// Signature identifies a pipeline command for process liveness checks.
// Absolute paths and bare names both reduce to the binary name.
func Signature(command string) string {
	return filepath.Base(command)
}

// BuildArgs assembles the pipeline argument list for one unit. Scope is
// passed either as a page range or as a part label, never both.
func BuildArgs(cfg types.RunConfig, unit types.WorkUnit, inputPath string) []string {
	args := make([]string, 0, 16)
	if inputPath != "" {
		args = append(args, "--input", inputPath)
	}
	args = append(args, "--output", unit.OutputDir)
	args = append(args, "--model", cfg.Model)
	args = append(args, "--supplement-model", cfg.SupplementModel)
	args = append(args, "--verify-model", cfg.VerifyModel)
	args = append(args, "--research-model", cfg.ResearchModel)
	if len(cfg.VerifyTypes) > 0 {
		args = append(args, "--verify-types", strings.Join(cfg.VerifyTypes, ","))
	}
	if unit.Pages != nil {
		args = append(args,
			"--start-page", strconv.Itoa(unit.Pages.Start),
			"--end-page", strconv.Itoa(unit.Pages.End),
		)
	} else if unit.Part != "" {
		args = append(args, "--part", unit.Part)
	}
	return args
}

// Invoke runs the pipeline for one unit and blocks until it exits. The
// process writes to logw. Returns the exit code alongside any error;
// -1 means the process never ran.
func (inv *Invoker) Invoke(ctx context.Context, unit types.WorkUnit, inputPath string, logw io.Writer) (int, error) {
	if inv.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.cfg.UnitTimeout)
		defer cancel()
	}

	args := BuildArgs(inv.cfg, unit, inputPath)
	code, err := inv.exec.Run(ctx, inv.cfg.PipelineCommand, args, logw, logw)
	if err == nil {
		return 0, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return code, fmt.Errorf("unit %s: pipeline timed out after %s", unit.ID, inv.cfg.UnitTimeout)
	}
	if code >= 0 {
		return code, &ExecutionError{UnitID: unit.ID, ExitCode: code}
	}
	return code, fmt.Errorf("unit %s: starting pipeline: %w", unit.ID, err)
}
