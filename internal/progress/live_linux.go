// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build linux

package progress

import (
	"os"
	"strings"

	"github.com/prometheus/procfs"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// IsRunning scans the process table for a command line containing
// pattern. The answer is advisory: processes start and exit while the
// scan walks /proc.
func IsRunning(pattern string) types.Liveness {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return types.LivenessUnknown
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return types.LivenessUnknown
	}

	self := os.Getpid()
	for _, p := range procs {
		// The monitor's own argv can contain the pattern.
		if p.PID == self {
			continue
		}
		args, err := p.CmdLine()
		if err != nil {
			continue
		}
		if strings.Contains(strings.Join(args, " "), pattern) {
			return types.LivenessRunning
		}
	}
	return types.LivenessStopped
}
