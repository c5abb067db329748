// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !linux

package progress

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// IsRunning asks pgrep for processes whose command line contains
// pattern. The answer is advisory.
func IsRunning(pattern string) types.Liveness {
	out, err := exec.Command("pgrep", "-f", pattern).Output()
	if err != nil {
		var exitErr *exec.ExitError
		// pgrep exits 1 when nothing matched.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return types.LivenessStopped
		}
		return types.LivenessUnknown
	}

	self := strconv.Itoa(os.Getpid())
	for _, pid := range strings.Fields(string(out)) {
		if pid != self {
			return types.LivenessRunning
		}
	}
	return types.LivenessStopped
}
