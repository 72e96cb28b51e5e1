// Package procexec spawns initdb/pg_ctl child processes, pumps their
// stdout/stderr to the log facade, enforces a wall-clock timeout, and
// drives a shared status cell through entry/exit/failure transitions. One
// Execute implementation drives all three PostgreSQL commands; callers
// supply the status triple and the per-command error constructors,
// matching the spec's "polymorphic over {entry, exit, failure}" executor.
package procexec

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/pgembed/pgembed/internal/pglog"
)

// Status is a server lifecycle state, shared by reference between the
// lifecycle manager and whichever Execute call is currently running.
type Status int32

// StatusCell is a mutex-guarded Status, safe to read concurrently with the
// writes Execute performs.
type StatusCell struct {
	mu  sync.Mutex
	val Status
}

// NewStatusCell builds a cell holding the given initial status.
func NewStatusCell(initial Status) *StatusCell {
	return &StatusCell{val: initial}
}

// Get returns the current status.
func (c *StatusCell) Get() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Set updates the current status.
func (c *StatusCell) Set(s Status) {
	c.mu.Lock()
	c.val = s
	c.mu.Unlock()
}

// ProcessError wraps a spawn/wait transport failure (maps to PgProcessError).
type ProcessError struct{ Err error }

func (e *ProcessError) Error() string { return fmt.Sprintf("procexec: process error: %v", e.Err) }
func (e *ProcessError) Unwrap() error { return e.Err }

// TimedOutError is returned when the wall-clock timeout elapses before the
// child exits.
type TimedOutError struct{ Timeout time.Duration }

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("procexec: timed out after %s", e.Timeout)
}

// BufferReadError wraps a stdout/stderr pump failure. Pump failures never
// kill the child; they are only surfaced once the child's own outcome is
// known.
type BufferReadError struct{ Err error }

func (e *BufferReadError) Error() string { return fmt.Sprintf("procexec: buffer read error: %v", e.Err) }
func (e *BufferReadError) Unwrap() error { return e.Err }

// Spec configures one Execute invocation. NewFailure builds the
// command-specific typed error (PgInitFailure / PgStartFailure /
// PgStopFailure) for a non-zero exit.
type Spec struct {
	Bin  string
	Args []string
	Env  []string

	Timeout time.Duration // zero means no wall-clock ceiling

	Status        *StatusCell
	EntryStatus   Status
	ExitStatus    Status
	FailureStatus Status

	NewFailure func(cause error) error
}

// Execute spawns the child described by spec, immediately sets
// spec.Status to EntryStatus, pumps stdout/stderr to logger at Info (the
// logger's own level decides whether those lines are emitted), waits
// for exit subject to spec.Timeout, and leaves spec.Status at ExitStatus
// on success or FailureStatus otherwise.
func Execute(ctx context.Context, logger *slog.Logger, spec Spec) error {
	cmd := exec.CommandContext(ctx, spec.Bin, spec.Args...)
	if spec.Env != nil {
		cmd.Env = spec.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		spec.Status.Set(spec.FailureStatus)
		return &ProcessError{Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		spec.Status.Set(spec.FailureStatus)
		return &ProcessError{Err: err}
	}

	if err := cmd.Start(); err != nil {
		spec.Status.Set(spec.FailureStatus)
		return &ProcessError{Err: err}
	}
	spec.Status.Set(spec.EntryStatus)

	var wg sync.WaitGroup
	pumpErrCh := make(chan error, 2)
	wg.Add(2)
	go pump(stdout, "stdout", logger, &wg, pumpErrCh)
	go pump(stderr, "stderr", logger, &wg, pumpErrCh)

	// Wait closes the pipes, so it must not run until both pumps have read
	// everything the child wrote.
	waitDone := make(chan error, 1)
	go func() {
		wg.Wait()
		waitDone <- cmd.Wait()
	}()

	var timeoutCh <-chan time.Time
	if spec.Timeout > 0 {
		timer := time.NewTimer(spec.Timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case waitErr := <-waitDone:
		wg.Wait()
		pumpErr := firstPumpError(pumpErrCh)

		if waitErr != nil {
			spec.Status.Set(spec.FailureStatus)
			return spec.NewFailure(waitErr)
		}
		if pumpErr != nil {
			logger.Warn("pump channel reported an error after successful exit", slog.Any("err", pumpErr))
			spec.Status.Set(spec.ExitStatus)
			return &BufferReadError{Err: pumpErr}
		}
		spec.Status.Set(spec.ExitStatus)
		return nil

	case <-timeoutCh:
		// Closing the read ends unblocks the pumps even if a grandchild
		// still holds the write ends open.
		_ = stdout.Close()
		_ = stderr.Close()
		killAndDrain(cmd, waitDone)
		wg.Wait()
		spec.Status.Set(spec.FailureStatus)
		return &TimedOutError{Timeout: spec.Timeout}

	case <-ctx.Done():
		_ = stdout.Close()
		_ = stderr.Close()
		killAndDrain(cmd, waitDone)
		wg.Wait()
		spec.Status.Set(spec.FailureStatus)
		return &ProcessError{Err: ctx.Err()}
	}
}

func killAndDrain(cmd *exec.Cmd, waitDone <-chan error) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-waitDone
}

func firstPumpError(ch <-chan error) error {
	select {
	case err := <-ch:
		return err
	default:
		return nil
	}
}

func pump(r io.Reader, stream string, logger *slog.Logger, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		pglog.ChildLine(logger, stream, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		errCh <- err
	}
}
