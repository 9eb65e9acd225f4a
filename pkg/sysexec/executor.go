// Package sysexec provides the command execution boundary for stackprov.
//
// Every external tool invocation (apt-get, systemctl, usermod, docker)
// flows through the CommandExecutor interface so tests can simulate both
// granted and denied privileges without touching the real system.
package sysexec

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// EnvGetter is an interface for getting environment variables (allows testing).
type EnvGetter interface {
	Getenv(key string) string
}

// RealEnvGetter gets environment variables from the real environment.
type RealEnvGetter struct{}

// Getenv gets an environment variable.
func (e *RealEnvGetter) Getenv(key string) string {
	return os.Getenv(key)
}

// CommandExecutor is an interface for executing commands, allowing for testing.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) (string, error)
	RunContext(ctx context.Context, name string, args ...string) (string, error)
	CombinedOutput(name string, args ...string) ([]byte, error)
	RunStreaming(ctx context.Context, stdout io.Writer, name string, args ...string) error
	FileExists(path string) bool
}

// RealExecutor is the default command executor that uses the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *RealExecutor) Run(name string, args ...string) (string, error) {
	return e.RunContext(context.Background(), name, args...)
}

// RunContext executes a command with a context and returns its output.
func (e *RealExecutor) RunContext(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		// Some tools write their diagnostics (and versions) to stderr
		if stderr.Len() > 0 {
			return stderr.String(), err
		}
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// CombinedOutput executes a command and returns combined stdout and stderr.
func (e *RealExecutor) CombinedOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// RunStreaming executes a command, streaming stdout to the given writer.
// Stderr is captured and returned inside the error on failure.
func (e *RealExecutor) RunStreaming(ctx context.Context, stdout io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return &StderrError{Err: err, Stderr: stderr.String()}
		}
		return err
	}
	return nil
}

// FileExists reports whether a path exists.
func (e *RealExecutor) FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// StderrError wraps a command failure together with the stderr text the
// command produced, so callers can surface the tool's own diagnostics.
type StderrError struct {
	Err    error
	Stderr string
}

func (e *StderrError) Error() string {
	return e.Err.Error() + ": " + e.Stderr
}

func (e *StderrError) Unwrap() error {
	return e.Err
}
