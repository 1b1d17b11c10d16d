package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner is the interface for executing external build tools. The pipeline
// stages only ever go through it, so they can be exercised without invoking
// real subprocesses.
type Runner interface {
	// Run executes a command with the given options, returning an error when
	// the command cannot start or exits non-zero
	Run(ctx context.Context, opts RunOpts) error

	// IsAvailable checks if the named binary is installed and on PATH
	IsAvailable(binary string) bool
}

// RunOpts holds options for running a command
type RunOpts struct {
	Command []string // argv, Command[0] is the binary
	WorkDir string
	Env     map[string]string // appended to the inherited environment
	Stdout  io.Writer
	Stderr  io.Writer
}

// HostRunner executes commands directly on the host
type HostRunner struct {
	logger io.Writer
}

// NewHostRunner creates a runner whose command output goes to logger when a
// stage does not redirect it
func NewHostRunner(logger io.Writer) *HostRunner {
	return &HostRunner{logger: logger}
}

// Run executes the command, streaming output and capturing stderr for the
// error message
func (r *HostRunner) Run(ctx context.Context, opts RunOpts) error {
	if len(opts.Command) == 0 {
		return fmt.Errorf("empty command")
	}

	cmd := exec.CommandContext(ctx, opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.WorkDir

	if len(opts.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range opts.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stderr bytes.Buffer

	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	} else if r.logger != nil {
		cmd.Stdout = r.logger
	}

	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, opts.Stderr)
	} else if r.logger != nil {
		cmd.Stderr = io.MultiWriter(&stderr, r.logger)
	} else {
		cmd.Stderr = &stderr
	}

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s failed: %w\nstderr: %s", opts.Command[0], err, msg)
		}
		return fmt.Errorf("%s failed: %w", opts.Command[0], err)
	}

	return nil
}

// IsAvailable checks if the binary is on PATH
func (r *HostRunner) IsAvailable(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}
