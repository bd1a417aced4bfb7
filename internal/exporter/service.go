package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clipx/clipx-agent/internal/ffmpeg"
	"github.com/clipx/clipx-agent/internal/media"
)

var (
	ErrExportActive = errors.New("an export is already running")
	ErrJobNotFound  = errors.New("job not found")
)

const logBufferSize = 1000

// Request is what the outside world asks for: where the output goes and how
// it is encoded. Segments and source paths are resolved from the catalog.
type Request struct {
	OutputPath string
	Profile    ffmpeg.Profile
	SegmentIDs []string // empty means every segment, in global order
}

// Service accepts export requests, enforces the one-active-export rule, and
// records each run as a job. Progress and logs are observable while the run
// is live and after it finishes.
type Service struct {
	repo       media.Repository
	exporter   *Exporter
	ffmpegPath string
	logger     *slog.Logger

	mu     sync.Mutex
	active *activeExport
	logs   map[string]*logBuffer
}

type activeExport struct {
	jobID  string
	cancel context.CancelFunc
}

func NewService(repo media.Repository, exp *Exporter, ffmpegPath string, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		exporter:   exp,
		ffmpegPath: ffmpegPath,
		logger:     logger,
		logs:       make(map[string]*logBuffer),
	}
}

// Start resolves the request against the catalog, persists a pending job,
// and launches the pipeline in the background. Only one export may run at a
// time; a second request is rejected without creating a job.
func (s *Service) Start(ctx context.Context, req Request) (*media.Job, error) {
	task, err := s.buildTask(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.active != nil {
		s.mu.Unlock()
		return nil, ErrExportActive
	}

	now := time.Now()
	job := &media.Job{
		ID:         media.NewID(),
		Status:     media.JobStatusPending,
		Stage:      "Queued",
		OutputPath: req.OutputPath,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.active = &activeExport{jobID: job.ID, cancel: cancel}
	s.logs[job.ID] = newLogBuffer(logBufferSize)
	s.mu.Unlock()

	if err := s.repo.CreateJob(ctx, job); err != nil {
		s.clearActive(job.ID)
		s.mu.Lock()
		delete(s.logs, job.ID)
		s.mu.Unlock()
		return nil, err
	}

	go s.execute(runCtx, job.ID, task)

	if s.logger != nil {
		s.logger.Info("export started", "job_id", job.ID,
			"segments", len(task.Segments), "output", req.OutputPath)
	}
	return job, nil
}

func (s *Service) execute(ctx context.Context, jobID string, task Task) {
	defer s.clearActive(jobID)

	bg := context.Background()
	s.repo.UpdateJobStatus(bg, jobID, media.JobStatusRunning, "")

	obs := &jobObserver{svc: s, jobID: jobID}
	result := s.exporter.Run(ctx, task, obs)

	switch result.Status {
	case StatusDone:
		s.repo.UpdateJobProgress(bg, jobID, doneProgress, "Done")
		s.repo.UpdateJobStatus(bg, jobID, media.JobStatusDone, "")
	case StatusCancelled:
		s.repo.UpdateJobStatus(bg, jobID, media.JobStatusCancelled, "cancelled")
	default:
		msg := "export failed"
		if result.Err != nil {
			msg = result.Err.Error()
		}
		s.repo.UpdateJobStatus(bg, jobID, media.JobStatusFailed, msg)
	}

	if s.logger != nil {
		s.logger.Info("export finished", "job_id", jobID, "status", result.Status, "error", result.Err)
	}
}

// Cancel requests cancellation of the running export. It returns as soon as
// the request is delivered; the job reaches its terminal state when the
// pipeline observes the cancellation.
func (s *Service) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.jobID != jobID {
		return ErrJobNotFound
	}
	s.active.cancel()
	return nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*media.Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*media.Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

// Logs returns the retained diagnostic lines for a job, oldest first. Only
// the most recent lines are kept for long runs.
func (s *Service) Logs(jobID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.logs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return buf.Lines(), nil
}

// Active returns the ID of the running export, or empty.
func (s *Service) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.jobID
}

func (s *Service) buildTask(ctx context.Context, req Request) (Task, error) {
	var segments []media.Segment
	if len(req.SegmentIDs) == 0 {
		all, err := s.repo.ListSegments(ctx)
		if err != nil {
			return Task{}, err
		}
		for _, seg := range all {
			segments = append(segments, *seg)
		}
	} else {
		for _, id := range req.SegmentIDs {
			seg, err := s.repo.GetSegment(ctx, id)
			if err != nil {
				return Task{}, err
			}
			if seg == nil {
				return Task{}, fmt.Errorf("segment %s: %w", id, media.ErrSegmentNotFound)
			}
			segments = append(segments, *seg)
		}
	}

	lookup := make(map[string]string)
	for _, seg := range segments {
		if _, ok := lookup[seg.FileID]; ok {
			continue
		}
		file, err := s.repo.GetFile(ctx, seg.FileID)
		if err != nil {
			return Task{}, err
		}
		if file == nil {
			return Task{}, &ffmpeg.MissingSourceError{FileID: seg.FileID}
		}
		lookup[seg.FileID] = file.Path
	}

	return Task{
		FFmpegPath:   s.ffmpegPath,
		Segments:     segments,
		SourceLookup: lookup,
		Profile:      req.Profile,
		OutputPath:   req.OutputPath,
	}, nil
}

func (s *Service) clearActive(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil && s.active.jobID == jobID {
		s.active.cancel()
		s.active = nil
	}
}

func (s *Service) appendLog(jobID, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if buf, ok := s.logs[jobID]; ok {
		buf.Append(line)
	}
}

// jobObserver forwards pipeline events into the job record and log buffer.
type jobObserver struct {
	svc   *Service
	jobID string
}

func (o *jobObserver) Progress(pct int, stage string) {
	o.svc.repo.UpdateJobProgress(context.Background(), o.jobID, pct, stage)
}

func (o *jobObserver) Log(line string) {
	o.svc.appendLog(o.jobID, line)
}

// logBuffer keeps the most recent lines in insertion order.
type logBuffer struct {
	lines []string
	max   int
	start int
	count int
}

func newLogBuffer(max int) *logBuffer {
	return &logBuffer{lines: make([]string, max), max: max}
}

func (b *logBuffer) Append(line string) {
	idx := (b.start + b.count) % b.max
	b.lines[idx] = line
	if b.count < b.max {
		b.count++
	} else {
		b.start = (b.start + 1) % b.max
	}
}

func (b *logBuffer) Lines() []string {
	out := make([]string, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.lines[(b.start+i)%b.max]
	}
	return out
}
