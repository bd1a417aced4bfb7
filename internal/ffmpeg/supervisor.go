package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

const maxLineBytes = 1024 * 1024

// RunResult is the outcome of one supervised subprocess run.
type RunResult struct {
	Cancelled bool
	ExitCode  int
	Err       error // launch or pipe failure; nil for a clean start
}

// OK reports whether the process ran to completion with exit code zero.
func (r RunResult) OK() bool {
	return !r.Cancelled && r.Err == nil && r.ExitCode == 0
}

// Message returns the terminal diagnostic for a failed or cancelled run.
func (r RunResult) Message() string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Err != nil:
		return r.Err.Error()
	case r.ExitCode != 0:
		return fmt.Sprintf("exit code %d", r.ExitCode)
	default:
		return ""
	}
}

// Supervisor runs one external command at a time, streaming its diagnostic
// output line-by-line to an observer. It is the only component that touches
// the process boundary; it never interprets the output.
type Supervisor struct {
	logger *slog.Logger
}

func NewSupervisor(logger *slog.Logger) *Supervisor {
	return &Supervisor{logger: logger}
}

// Run launches argv, forwards each stderr line to onLine as it is read, and
// waits for exit. Cancelling ctx kills the child process rather than waiting
// for a graceful stop; the result then reports Cancelled instead of an exit
// failure.
func (s *Supervisor) Run(ctx context.Context, argv []string, onLine func(string)) RunResult {
	if len(argv) == 0 {
		return RunResult{Err: errors.New("empty command")}
	}
	if ctx.Err() != nil {
		return RunResult{Cancelled: true}
	}

	if s.logger != nil {
		s.logger.Debug("running command", "argv", argv)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = io.Discard

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return RunResult{Err: err}
	}

	if err := cmd.Start(); err != nil {
		return RunResult{Err: err}
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cmd.Process.Kill()
		case <-done:
		}
	}()

	sc := bufio.NewScanner(stderr)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if onLine != nil {
			onLine(sc.Text())
		}
	}
	if scanErr := sc.Err(); scanErr != nil {
		// An oversized line aborts the scan; keep draining so the child
		// never blocks on a full pipe.
		if s.logger != nil {
			s.logger.Warn("stderr scan aborted", "error", scanErr)
		}
		io.Copy(io.Discard, stderr)
	}

	waitErr := cmd.Wait()
	close(done)

	if ctx.Err() != nil {
		return RunResult{Cancelled: true}
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return RunResult{ExitCode: exitErr.ExitCode()}
		}
		return RunResult{Err: waitErr}
	}
	return RunResult{}
}
