// Package exec runs external scanner binaries with a context deadline.
package exec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Exit codes used to classify failures without inspecting stderr.
const (
	ExitTimeout  = 124
	ExitNotFound = 127
)

// Result holds the execution result.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
	ExitCode int
}

// Run executes a command, capturing output and duration. A context
// deadline is reported as ExitTimeout, a missing binary as ExitNotFound.
func Run(ctx context.Context, name string, args []string, dir string) (Result, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		res.ExitCode = 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			res.ExitCode = ExitTimeout
		case errors.Is(err, exec.ErrNotFound):
			res.ExitCode = ExitNotFound
		}
	}

	return res, err
}
