// Package window locates top-level windows and brings them to the
// foreground.
package window

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v4/process"
)

var (
	// ErrNotFound is returned when no visible window matches.
	ErrNotFound = errors.New("window: not found")
	// ErrUnsupported is returned on platforms without a window manager binding.
	ErrUnsupported = errors.New("window: not supported on this platform")
)

// pollInterval is how often SwitchTo checks the foreground window.
const pollInterval = 25 * time.Millisecond

// Info describes a visible top-level window.
type Info struct {
	Handle uintptr
	Title  string
	PID    int
}

// Window is a handle to a top-level window. Platform files provide its
// methods.
type Window struct {
	Info
}

// Target is what SwitchTo needs from a window.
type Target interface {
	IsActive() bool
	IsMinimized() bool
	Restore() error
	Activate() error
}

// List returns the visible top-level windows that have a title.
func List() ([]Info, error) {
	return list()
}

// Find returns the first visible window whose title contains title,
// ignoring case.
func Find(title string) (*Window, error) {
	infos, err := list()
	if err != nil {
		return nil, err
	}
	info, ok := findByTitle(infos, title)
	if !ok {
		return nil, fmt.Errorf("%w: title %q", ErrNotFound, title)
	}
	return &Window{Info: info}, nil
}

// FindByProcess returns the first visible titled window owned by a process
// called name. The ".exe" suffix is optional.
func FindByProcess(ctx context.Context, name string) (*Window, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("window: list processes: %w", err)
	}
	pids := map[int]struct{}{}
	for _, p := range procs {
		n, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if processNameMatches(n, name) {
			pids[int(p.Pid)] = struct{}{}
		}
	}
	if len(pids) == 0 {
		return nil, fmt.Errorf("%w: no process %q", ErrNotFound, name)
	}
	infos, err := list()
	if err != nil {
		return nil, err
	}
	owned := filterByPID(infos, pids)
	if len(owned) == 0 {
		return nil, fmt.Errorf("%w: process %q has no visible window", ErrNotFound, name)
	}
	return &Window{Info: owned[0]}, nil
}

func findByTitle(infos []Info, title string) (Info, bool) {
	needle := strings.ToLower(title)
	return lo.Find(infos, func(i Info) bool {
		return strings.Contains(strings.ToLower(i.Title), needle)
	})
}

func filterByPID(infos []Info, pids map[int]struct{}) []Info {
	return lo.Filter(infos, func(i Info, _ int) bool {
		_, ok := pids[i.PID]
		return ok
	})
}

func processNameMatches(have, want string) bool {
	trim := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.TrimSuffix(s, ".exe")
	}
	return want != "" && trim(have) == trim(want)
}

// SwitchTo brings t to the foreground. Nothing happens when it already is.
// A minimised window is restored first. After activation SwitchTo waits up
// to settle for the window to become the foreground window.
func SwitchTo(ctx context.Context, t Target, settle time.Duration) error {
	if t.IsActive() {
		return nil
	}
	if t.IsMinimized() {
		if err := t.Restore(); err != nil {
			return fmt.Errorf("window: restore: %w", err)
		}
	}
	if err := t.Activate(); err != nil {
		return fmt.Errorf("window: activate: %w", err)
	}
	if settle <= 0 {
		return nil
	}
	deadline := time.NewTimer(settle)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			if t.IsActive() {
				return nil
			}
		}
	}
}
