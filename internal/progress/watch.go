// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/sigongjoa/math-translation-study/pkg/types"
)

// DefaultWatchInterval is the refresh period between snapshots.
const DefaultWatchInterval = 5 * time.Second

// clearScreen wipes the terminal and moves the cursor home.
const clearScreen = "\033[2J\033[H"

// Watch re-renders a progress snapshot every interval until ctx is
// cancelled. The screen is cleared between renders only on a real
// terminal, so piped output stays an append-only record.
func Watch(ctx context.Context, cfg types.MonitorConfig, interval time.Duration, w io.Writer) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	isTerm := false
	if f, ok := w.(*os.File); ok {
		isTerm = term.IsTerminal(int(f.Fd()))
	}

	render := func() {
		if isTerm {
			fmt.Fprint(w, clearScreen)
		}
		Render(w, Collect(cfg))
	}

	render()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			render()
		}
	}
}
