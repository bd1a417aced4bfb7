package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/clipx/clipx-agent/internal/ffmpeg"
)

type Status string

const (
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Result is the terminal outcome of one export run.
type Result struct {
	Status     Status
	OutputPath string
	Err        error
}

// Observer receives pipeline events as they happen. Progress values are
// strictly increasing for the lifetime of one run; Log receives raw
// diagnostic lines from the subprocesses.
type Observer interface {
	Progress(pct int, stage string)
	Log(line string)
}

// CommandRunner abstracts the subprocess boundary so the pipeline can be
// driven in tests without launching anything.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, onLine func(string)) ffmpeg.RunResult
}

const (
	cutPhaseCeiling = 70
	concatProgress  = 80
	doneProgress    = 100
)

// Exporter drives the cut-then-concatenate pipeline for one task at a time.
type Exporter struct {
	runner     CommandRunner
	scratchDir string
	logger     *slog.Logger
}

// New builds an exporter. scratchDir is the base directory for per-run
// scratch space; empty means the system temp directory.
func New(runner CommandRunner, scratchDir string, logger *slog.Logger) *Exporter {
	return &Exporter{runner: runner, scratchDir: scratchDir, logger: logger}
}

// Run executes the task: validate everything, cut each segment into a
// scratch directory, then concatenate. Stream-copy concatenation is tried
// first; if it exits non-zero the cuts are re-encoded through a filter-graph
// concat instead. The scratch directory is removed on every path out.
func (e *Exporter) Run(ctx context.Context, task Task, obs Observer) Result {
	if err := task.Validate(); err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	scratch, err := os.MkdirTemp(e.scratchDir, "clipx_")
	if err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("scratch dir: %w", err)}
	}
	defer os.RemoveAll(scratch)

	progress := newProgressTracker(obs)
	total := len(task.Segments)

	cutPaths := make([]string, 0, total)
	for i, seg := range task.Segments {
		if ctx.Err() != nil {
			return Result{Status: StatusCancelled, Err: ctx.Err()}
		}

		progress.emit(i*cutPhaseCeiling/total, fmt.Sprintf("Extracting %d/%d", i+1, total))

		outPath := filepath.Join(scratch, fmt.Sprintf("cut_%03d.mp4", i+1))
		argv, err := ffmpeg.BuildCutArgs(task.FFmpegPath, seg, task.SourceLookup, task.Profile, outPath)
		if err != nil {
			return Result{Status: StatusFailed, Err: err}
		}

		res := e.runner.Run(ctx, argv, progress.log)
		if res.Cancelled {
			return Result{Status: StatusCancelled, Err: context.Canceled}
		}
		if !res.OK() {
			return Result{Status: StatusFailed,
				Err: fmt.Errorf("cut %d/%d failed: %s", i+1, total, res.Message())}
		}
		cutPaths = append(cutPaths, outPath)
	}

	progress.emit(cutPhaseCeiling, fmt.Sprintf("Extracted %d/%d", total, total))

	if ctx.Err() != nil {
		return Result{Status: StatusCancelled, Err: ctx.Err()}
	}

	progress.emit(concatProgress, "Concatenating")

	if err := e.concatenate(ctx, task, scratch, cutPaths, progress); err != nil {
		if ctx.Err() != nil {
			return Result{Status: StatusCancelled, Err: ctx.Err()}
		}
		return Result{Status: StatusFailed, Err: err}
	}

	progress.emit(doneProgress, "Done")
	return Result{Status: StatusDone, OutputPath: task.OutputPath}
}

func (e *Exporter) concatenate(ctx context.Context, task Task, scratch string, cutPaths []string, progress *progressTracker) error {
	listPath := filepath.Join(scratch, "concat.txt")
	if err := os.WriteFile(listPath, []byte(ffmpeg.ConcatManifest(cutPaths)), 0644); err != nil {
		return fmt.Errorf("concat manifest: %w", err)
	}

	res := e.runner.Run(ctx, ffmpeg.BuildConcatArgs(task.FFmpegPath, listPath, task.OutputPath, task.Profile.WebOptimize), progress.log)
	if res.OK() {
		return nil
	}
	if res.Cancelled {
		return context.Canceled
	}
	if res.Err != nil {
		// The binary itself failed to start; retrying with a different
		// argument shape cannot help.
		return fmt.Errorf("concat launch failed: %w", res.Err)
	}

	if e.logger != nil {
		e.logger.Warn("stream-copy concat failed, re-encoding",
			"exit_code", res.ExitCode, "cuts", len(cutPaths))
	}
	progress.log(fmt.Sprintf("stream-copy concat exited with code %d, falling back to re-encode", res.ExitCode))

	res = e.runner.Run(ctx, ffmpeg.BuildConcatFallbackArgs(task.FFmpegPath, cutPaths, task.OutputPath, task.Profile), progress.log)
	if res.Cancelled {
		return context.Canceled
	}
	if !res.OK() {
		return fmt.Errorf("concat fallback failed: %s", res.Message())
	}
	return nil
}

// progressTracker enforces the strictly-increasing progress contract: a
// stale or repeated percentage is swallowed rather than emitted.
type progressTracker struct {
	obs  Observer
	last int
}

func newProgressTracker(obs Observer) *progressTracker {
	return &progressTracker{obs: obs, last: -1}
}

func (p *progressTracker) emit(pct int, stage string) {
	if pct <= p.last {
		return
	}
	p.last = pct
	if p.obs != nil {
		p.obs.Progress(pct, stage)
	}
}

func (p *progressTracker) log(line string) {
	if p.obs != nil {
		p.obs.Log(line)
	}
}
