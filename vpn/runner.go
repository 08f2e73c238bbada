package vpn

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/yllada/tunnel-tray/common"
)

// Exit codes that do not come from the child process.
const (
	// ExitNotFound marks a command that could not be launched.
	ExitNotFound = -1
	// ExitTimedOut marks a command killed after exceeding its timeout.
	ExitTimedOut = -2
)

// Result is the outcome of one command invocation. A nonzero exit code is
// a normal outcome, not an error.
type Result struct {
	ExitCode int
	Output   []byte
}

// Success reports whether the command exited 0.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Missing reports whether the command could not be launched at all.
func (r Result) Missing() bool {
	return r.ExitCode == ExitNotFound
}

// RunOptions controls a single invocation.
type RunOptions struct {
	// Elevate prefixes the elevation wrapper when elevation is enabled.
	Elevate bool
	// Quiet discards stdout and stderr.
	Quiet bool
}

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, argv []string, opts RunOptions) Result
}

// ElevationSource supplies the elevation settings. It is consulted on every
// elevated call.
type ElevationSource interface {
	Elevation() common.ElevationConfig
}

// ElevationFunc adapts a function to ElevationSource.
type ElevationFunc func() common.ElevationConfig

// Elevation implements ElevationSource.
func (f ElevationFunc) Elevation() common.ElevationConfig { return f() }

// SecretSource supplies the password written to the elevation wrapper.
type SecretSource interface {
	Secret() (string, error)
}

// ExecRunnerConfig configures an ExecRunner.
type ExecRunnerConfig struct {
	Elevation ElevationSource
	Secrets   SecretSource
	// Timeout returns the per-command bound; nil or zero disables it.
	Timeout func() time.Duration
	Logger  common.Logger
}

// ExecRunner runs commands as local processes, one process per call.
type ExecRunner struct {
	elevation ElevationSource
	secrets   SecretSource
	timeout   func() time.Duration
	log       common.Logger

	mu       sync.Mutex
	reported map[string]bool
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(cfg ExecRunnerConfig) *ExecRunner {
	if cfg.Logger == nil {
		cfg.Logger = common.Named("runner")
	}
	if cfg.Elevation == nil {
		cfg.Elevation = ElevationFunc(func() common.ElevationConfig { return common.ElevationConfig{} })
	}
	return &ExecRunner{
		elevation: cfg.Elevation,
		secrets:   cfg.Secrets,
		timeout:   cfg.Timeout,
		log:       cfg.Logger,
		reported:  make(map[string]bool),
	}
}

// Run executes argv synchronously and returns its exit code and combined
// output. It never returns an error: launch failures yield ExitNotFound.
func (r *ExecRunner) Run(ctx context.Context, argv []string, opts RunOptions) Result {
	if len(argv) == 0 {
		return Result{ExitCode: ExitNotFound}
	}

	var stdin string
	if opts.Elevate {
		elev := r.elevation.Elevation()
		if elev.Enabled {
			argv = append(wrapperArgs(elev.Command), argv...)
			if elev.PasswordStdin {
				stdin = r.secret()
			}
		}
	}

	if r.timeout != nil {
		if d := r.timeout(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var output bytes.Buffer
	if !opts.Quiet {
		cmd.Stdout = &output
		cmd.Stderr = &output
	}
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin + "\n")
	}

	r.log.Debug("exec: %s", strings.Join(argv, " "))
	err := cmd.Run()
	if err == nil {
		return Result{ExitCode: 0, Output: output.Bytes()}
	}

	if ctx.Err() != nil {
		r.log.Warn("%s killed: %v", argv[0], ctx.Err())
		return Result{ExitCode: ExitTimedOut, Output: output.Bytes()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitErr.ExitCode(), Output: output.Bytes()}
	}

	r.reportMissing(argv[0], err)
	return Result{ExitCode: ExitNotFound}
}

// LookPath reports whether name resolves on PATH. A miss is reported once
// per executable, the same way as a launch failure.
func (r *ExecRunner) LookPath(name string) bool {
	if _, err := exec.LookPath(name); err != nil {
		r.reportMissing(name, err)
		return false
	}
	return true
}

// reportMissing logs a launch failure once per executable.
func (r *ExecRunner) reportMissing(name string, err error) {
	r.mu.Lock()
	seen := r.reported[name]
	r.reported[name] = true
	r.mu.Unlock()

	if !seen {
		r.log.Error("%v: %s: %v", common.ErrExecutableMissing, name, err)
	}
}

func (r *ExecRunner) secret() string {
	if r.secrets == nil {
		return ""
	}
	secret, err := r.secrets.Secret()
	if err != nil {
		r.log.Warn("elevation password unavailable: %v", err)
		return ""
	}
	return secret
}

// wrapperArgs splits the configured wrapper, e.g. "sudo -S", into argv.
func wrapperArgs(command string) []string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return []string{common.DefaultElevationCommand}
	}
	return fields
}
