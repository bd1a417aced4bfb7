package media

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clipx/clipx-agent/internal/probe"
)

func testInfo() *probe.MediaInfo {
	return &probe.MediaInfo{Width: 1920, Height: 1080, FPSNum: 30, FPSDen: 1, Duration: 60}
}

func TestProbeCoordinator_AttachesResultOnce(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	var calls atomic.Int32
	prober := func(ctx context.Context, path string) (*probe.MediaInfo, error) {
		calls.Add(1)
		return testInfo(), nil
	}

	coord := NewProbeCoordinator(repo, prober, time.Second, nil)
	svc := NewService(repo, coord, nil)

	file, err := svc.AddFile(context.Background(), writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	coord.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("prober called %d times, want 1", got)
	}

	stored, err := svc.GetFile(context.Background(), file.ID)
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if stored.Info == nil {
		t.Fatal("file.Info is nil after probe")
	}
	if stored.Info.Width != 1920 || stored.Info.Height != 1080 {
		t.Errorf("stored info = %+v, want 1920x1080", stored.Info)
	}
	if fps := stored.Info.FPS(); fps != 30 {
		t.Errorf("FPS() = %g, want 30", fps)
	}
}

func TestProbeCoordinator_SecondWriteRejected(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	file, err := svc.AddFile(context.Background(), writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	ctx := context.Background()
	if err := repo.SetMediaInfo(ctx, file.ID, testInfo()); err != nil {
		t.Fatalf("first SetMediaInfo() error = %v", err)
	}

	other := testInfo()
	other.Width = 640
	if err := repo.SetMediaInfo(ctx, file.ID, other); err == nil {
		t.Fatal("second SetMediaInfo() should be rejected")
	}

	stored, _ := svc.GetFile(ctx, file.ID)
	if stored.Info.Width != 1920 {
		t.Errorf("stored width = %d, first result must win", stored.Info.Width)
	}
}

func TestProbeCoordinator_FailedProbeLeavesFileUnprobed(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	prober := func(ctx context.Context, path string) (*probe.MediaInfo, error) {
		return nil, errors.New("ffprobe exploded")
	}
	coord := NewProbeCoordinator(repo, prober, time.Second, nil)
	svc := NewService(repo, coord, nil)

	file, err := svc.AddFile(context.Background(), writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	coord.Wait()

	stored, _ := svc.GetFile(context.Background(), file.ID)
	if stored.Info != nil {
		t.Errorf("file.Info = %+v, want nil after failed probe", stored.Info)
	}
}

func TestProbeCoordinator_DeduplicatesInflight(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	release := make(chan struct{})
	var calls atomic.Int32
	prober := func(ctx context.Context, path string) (*probe.MediaInfo, error) {
		calls.Add(1)
		<-release
		return testInfo(), nil
	}

	coord := NewProbeCoordinator(repo, prober, 5*time.Second, nil)
	svc := NewService(repo, coord, nil)

	file, err := svc.AddFile(context.Background(), writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	// Re-scheduling while the first probe is blocked must be a no-op.
	coord.Schedule(file.ID, file.Path)
	coord.Schedule(file.ID, file.Path)
	if !coord.Pending(file.ID) {
		t.Error("Pending() = false while probe is in flight")
	}

	close(release)
	coord.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("prober called %d times, want 1", got)
	}
	if coord.Pending(file.ID) {
		t.Error("Pending() = true after Wait()")
	}
}
