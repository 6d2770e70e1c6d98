package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/jorge-barreto/splice/internal/state"
)

// RunVerify executes the configured verify command via bash after a write.
// Output goes to out, the run's log file, and the returned Result.
func RunVerify(ctx context.Context, command string, timeout time.Duration, env *Environment, out io.Writer) (*Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	expanded := ExpandVars(command, env.Vars())

	cmd := exec.CommandContext(ctx, "bash", "-c", expanded)
	cmd.Dir = env.ProjectRoot
	cmd.Env = BuildEnv(env)
	cmd.WaitDelay = 2 * time.Second

	logFile, err := os.Create(state.LogPath(env.StateDir, env.RunID))
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	if out == nil {
		out = io.Discard
	}
	var captured bytes.Buffer
	w := io.MultiWriter(out, logFile, &captured)
	cmd.Stdout = w
	cmd.Stderr = w

	runErr := cmd.Run()
	if ctx.Err() != nil {
		return &Result{ExitCode: -1, Output: captured.String()}, ctx.Err()
	}
	code, err := exitCode(runErr)
	if err != nil {
		return nil, err
	}

	return &Result{ExitCode: code, Output: captured.String()}, nil
}

// Verifier checks the data file after a write.
type Verifier interface {
	Verify(ctx context.Context, env *Environment) (*Result, error)
}

// BashVerifier runs a configured shell command through RunVerify.
type BashVerifier struct {
	Command string
	Timeout time.Duration
	Out     io.Writer
}

func (v *BashVerifier) Verify(ctx context.Context, env *Environment) (*Result, error) {
	return RunVerify(ctx, v.Command, v.Timeout, env, v.Out)
}

// exitCode maps a Run error to the process exit status. Errors other than
// a nonzero exit are returned as is.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, err
}
