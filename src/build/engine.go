// Package build drives the external container engine: building the image
// from a synthesized context and optionally launching it.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// InvocationError reports an engine process that failed or exited non-zero.
// The engine's own output has already been streamed to the caller.
type InvocationError struct {
	Op       string // "build" or "run"
	Args     []string
	ExitCode int // -1 when the process never ran
	Err      error
}

func (e *InvocationError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s %s failed: exit status %d", e.Args[0], e.Op, e.ExitCode)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Args[0], e.Op, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Engine wraps a docker-compatible CLI.
type Engine struct {
	Binary string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// NewEngine creates an Engine that inherits the process's standard streams.
func NewEngine(binary string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Binary: binary,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Build runs `<engine> build <contextDir> -t <imageRef>`. No retry.
func (e *Engine) Build(ctx context.Context, contextDir, imageRef string) error {
	return e.exec(ctx, "build", BuildArgs(contextDir, imageRef), nil)
}

// Run launches the image with the bindings in opts. Foreground runs get
// the caller's stdin.
func (e *Engine) Run(ctx context.Context, opts RunOptions) error {
	var stdin io.Reader
	if opts.Foreground {
		stdin = e.Stdin
	}
	return e.exec(ctx, "run", RunArgs(opts), stdin)
}

func (e *Engine) exec(ctx context.Context, op string, args []string, stdin io.Reader) error {
	start := time.Now()
	argv := append([]string{e.Binary}, args...)
	e.Logger.Debug("exec", zap.String("op", op), zap.String("argv", strings.Join(argv, " ")))

	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		ierr := &InvocationError{Op: op, Args: argv, ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ierr.ExitCode = exitErr.ExitCode()
		}
		e.Logger.Debug("exec failed", zap.String("op", op), zap.Int("exit", ierr.ExitCode), zap.Duration("elapsed", time.Since(start)))
		return ierr
	}

	e.Logger.Debug("exec done", zap.String("op", op), zap.Duration("elapsed", time.Since(start)))
	return nil
}
