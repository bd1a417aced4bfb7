package media

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clipx/clipx-agent/internal/probe"
)

// ProberFunc inspects a media file and returns its stream descriptor.
type ProberFunc func(ctx context.Context, path string) (*probe.MediaInfo, error)

// ProbeCoordinator runs background probes for newly registered files. Each
// file is probed at most once per registration; a file already in flight is
// not scheduled again. Results are written through the repository, which
// rejects a second write for the same file.
type ProbeCoordinator struct {
	repo    Repository
	prober  ProberFunc
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

func NewProbeCoordinator(repo Repository, prober ProberFunc, timeout time.Duration, logger *slog.Logger) *ProbeCoordinator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ProbeCoordinator{
		repo:     repo,
		prober:   prober,
		timeout:  timeout,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Schedule starts a background probe for the file unless one is already in
// flight. It returns immediately.
func (c *ProbeCoordinator) Schedule(fileID, path string) {
	c.mu.Lock()
	if c.inflight[fileID] {
		c.mu.Unlock()
		return
	}
	c.inflight[fileID] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, fileID)
			c.mu.Unlock()
		}()
		c.run(fileID, path)
	}()
}

func (c *ProbeCoordinator) run(fileID, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	info, err := c.prober(ctx, path)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("probe failed", "file_id", fileID, "path", path, "error", err)
		}
		return
	}

	if err := c.repo.SetMediaInfo(ctx, fileID, info); err != nil {
		if c.logger != nil {
			c.logger.Warn("probe result dropped", "file_id", fileID, "error", err)
		}
		return
	}

	if c.logger != nil {
		c.logger.Info("file probed", "file_id", fileID,
			"width", info.Width, "height", info.Height, "duration", info.Duration)
	}
}

// Pending reports whether a probe for the file is still in flight.
func (c *ProbeCoordinator) Pending(fileID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[fileID]
}

// Wait blocks until every scheduled probe has finished.
func (c *ProbeCoordinator) Wait() {
	c.wg.Wait()
}
