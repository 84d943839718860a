// Package process reads the command tree payload from the stdout of a local
// program, for robots whose telemetry is only reachable through a bridge script.
package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds one run of the bridge command.
const DefaultTimeout = 2 * time.Second

// EnvPrefix prefixes the variables passed to the bridge command.
const EnvPrefix = "CMDTREE_"

// Source implements ports.SnapshotSource by running a command per fetch.
// Exit status 0 with empty stdout is an empty payload; a non-zero exit status
// is reported as an error.
type Source struct {
	command string
	args    []string
	env     map[string]string
	dir     string
	timeout time.Duration
}

// SourceOption configures the Source.
type SourceOption func(*Source)

// WithEnv passes vars to the command as CMDTREE_<KEY>=<value>. Values never
// become command line flags.
func WithEnv(vars map[string]string) SourceOption {
	return func(s *Source) {
		for k, v := range vars {
			s.env[k] = v
		}
	}
}

// WithBaseDir sets the working directory of the command.
func WithBaseDir(dir string) SourceOption {
	return func(s *Source) {
		s.dir = dir
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) SourceOption {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewSource runs command with args on every Fetch.
func NewSource(command string, args []string, opts ...SourceOption) *Source {
	s := &Source{
		command: command,
		args:    args,
		env:     make(map[string]string),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch implements ports.SnapshotSource.
func (s *Source) Fetch(ctx context.Context) (*string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	cmd.Dir = s.dir
	// Children of the command may keep stdout open after it is killed.
	cmd.WaitDelay = 500 * time.Millisecond

	env := cmd.Environ()
	for k, v := range s.env {
		env = append(env, fmt.Sprintf("%s%s=%s", EnvPrefix, strings.ToUpper(k), v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("bridge command failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	payload := strings.TrimSpace(stdout.String())
	return &payload, nil
}
