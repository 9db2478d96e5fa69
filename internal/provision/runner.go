// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)

	// Runner executes external package-manager and VCS commands for the
	// provisioning steps. Output streams to the attached writers so the
	// operator sees install progress live; probes run silently.
	Runner struct {
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
	}
)

// NewRunner creates a Runner writing command output to stdout/stderr.
func NewRunner(stdout, stderr io.Writer, logger *log.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		stdout:      stdout,
		stderr:      stderr,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithExecCommand overrides how exec.Cmd instances are created.
func WithExecCommand(fn ExecCommandFunc) RunnerOption {
	return func(r *Runner) {
		if fn != nil {
			r.execCommand = fn
		}
	}
}

// Run executes a command, streaming its output, and fails on non-zero exit.
// Extra environment entries are appended to the inherited environment.
func (r *Runner) Run(ctx context.Context, env []string, name string, args ...string) error {
	r.logger.Debug("exec", "cmd", name, "args", strings.Join(args, " "))

	cmd := r.execCommand(ctx, name, args...)
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}

// Probe executes a command silently and reports whether it succeeded.
// Used for presence checks (dpkg -s, pip show) where a non-zero exit is an
// answer, not an error.
func (r *Runner) Probe(ctx context.Context, name string, args ...string) bool {
	cmd := r.execCommand(ctx, name, args...)
	var discard bytes.Buffer
	cmd.Stdout = &discard
	cmd.Stderr = &discard
	return cmd.Run() == nil
}

// Output executes a command and captures its trimmed stdout.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.execCommand(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%s exited with status %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("failed to run %s: %w", name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
