package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrSegmentNotFound = errors.New("segment not found")
	ErrNotVideo        = errors.New("not a recognized video file")
)

// InvalidRangeError reports a segment whose time range is not usable.
type InvalidRangeError struct {
	Start float64
	End   float64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid segment range: start=%g end=%g", e.Start, e.End)
}

type MediaService interface {
	AddFile(ctx context.Context, path string) (*File, error)
	GetFile(ctx context.Context, id string) (*File, error)
	GetFiles(ctx context.Context) ([]*File, error)
	RemoveFile(ctx context.Context, id string) error
	CountFiles(ctx context.Context) (int, error)

	AddSegment(ctx context.Context, fileID string, start, end float64) (*Segment, error)
	GetSegment(ctx context.Context, id string) (*Segment, error)
	GetSegments(ctx context.Context) ([]*Segment, error)
	RemoveSegment(ctx context.Context, id string) error
}

type Service struct {
	repo   Repository
	probes *ProbeCoordinator
	logger *slog.Logger
}

func NewService(repo Repository, probes *ProbeCoordinator, logger *slog.Logger) *Service {
	return &Service{repo: repo, probes: probes, logger: logger}
}

// AddFile registers a source video. Registering the same path twice returns
// the existing record; the probe for a new file is scheduled in the
// background and its result lands on the record once, later.
func (s *Service) AddFile(ctx context.Context, path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if !IsVideoFile(absPath) {
		return nil, ErrNotVideo
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}

	existing, err := s.repo.GetFileByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	file := &File{
		ID:        NewID(),
		Path:      absPath,
		Filename:  filepath.Base(absPath),
		Size:      info.Size(),
		Mtime:     info.ModTime(),
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	if s.probes != nil {
		s.probes.Schedule(file.ID, absPath)
	}

	if s.logger != nil {
		s.logger.Info("file added", "file_id", file.ID, "path", absPath)
	}
	return file, nil
}

func (s *Service) GetFile(ctx context.Context, id string) (*File, error) {
	return s.repo.GetFile(ctx, id)
}

func (s *Service) GetFiles(ctx context.Context) ([]*File, error) {
	return s.repo.ListFiles(ctx)
}

// RemoveFile deletes the file record; its segments go with it.
func (s *Service) RemoveFile(ctx context.Context, id string) error {
	file, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return err
	}
	if file == nil {
		return ErrFileNotFound
	}
	return s.repo.DeleteFile(ctx, id)
}

func (s *Service) CountFiles(ctx context.Context) (int, error) {
	return s.repo.CountFiles(ctx)
}

// AddSegment records a time range of a registered file. The range must be
// strictly positive and the file must exist; the new segment is appended to
// the end of the global order.
func (s *Service) AddSegment(ctx context.Context, fileID string, start, end float64) (*Segment, error) {
	if start < 0 || end <= start {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	file, err := s.repo.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}
	if file.Info != nil && file.Info.Duration > 0 && start >= file.Info.Duration {
		return nil, &InvalidRangeError{Start: start, End: end}
	}

	ord, err := s.repo.NextSegmentOrd(ctx)
	if err != nil {
		return nil, err
	}

	seg := &Segment{
		ID:        NewID(),
		FileID:    fileID,
		Start:     start,
		End:       end,
		Ord:       ord,
		CreatedAt: time.Now(),
	}

	if err := s.repo.CreateSegment(ctx, seg); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("segment added", "segment_id", seg.ID, "file_id", fileID,
			"start", start, "end", end, "ord", ord)
	}
	return seg, nil
}

func (s *Service) GetSegment(ctx context.Context, id string) (*Segment, error) {
	return s.repo.GetSegment(ctx, id)
}

func (s *Service) GetSegments(ctx context.Context) ([]*Segment, error) {
	return s.repo.ListSegments(ctx)
}

func (s *Service) RemoveSegment(ctx context.Context, id string) error {
	seg, err := s.repo.GetSegment(ctx, id)
	if err != nil {
		return err
	}
	if seg == nil {
		return ErrSegmentNotFound
	}
	return s.repo.DeleteSegment(ctx, id)
}
