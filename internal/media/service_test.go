package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/clipx/clipx-agent/internal/db"
)

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	database, err := db.New(dbPath, nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	repo := NewRepository(database.Conn())
	return database, repo
}

func writeTestVideo(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("fake video content"), 0644); err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return path
}

func TestService_AddFile(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	path := writeTestVideo(t, "clip.mp4")

	file, err := svc.AddFile(context.Background(), path)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	if file.ID == "" {
		t.Error("file.ID is empty")
	}
	if file.Filename != "clip.mp4" {
		t.Errorf("file.Filename = %s, want clip.mp4", file.Filename)
	}
	if file.Info != nil {
		t.Error("file.Info should be nil before the probe completes")
	}
}

func TestService_AddFile_DuplicatePath(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	path := writeTestVideo(t, "clip.mp4")

	first, err := svc.AddFile(ctx, path)
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	second, err := svc.AddFile(ctx, path)
	if err != nil {
		t.Fatalf("AddFile() second call error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("duplicate path created a new record: %s vs %s", first.ID, second.ID)
	}

	count, err := svc.CountFiles(ctx)
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountFiles() = %d, want 1", count)
	}
}

func TestService_AddFile_NotVideo(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	path := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(path, []byte("text"), 0644)

	if _, err := svc.AddFile(context.Background(), path); !errors.Is(err, ErrNotVideo) {
		t.Errorf("AddFile() error = %v, want ErrNotVideo", err)
	}
}

func TestService_AddFile_MissingPath(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	if _, err := svc.AddFile(context.Background(), "/nonexistent/clip.mp4"); err == nil {
		t.Error("AddFile() should return error for nonexistent path")
	}
}

func TestService_RemoveFile_CascadesSegments(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	file, err := svc.AddFile(ctx, writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	if _, err := svc.AddSegment(ctx, file.ID, 1, 5); err != nil {
		t.Fatalf("AddSegment() error = %v", err)
	}

	if err := svc.RemoveFile(ctx, file.ID); err != nil {
		t.Fatalf("RemoveFile() error = %v", err)
	}

	segments, err := svc.GetSegments(ctx)
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(segments) != 0 {
		t.Errorf("found %d segments after file removal, want 0", len(segments))
	}
}

func TestService_RemoveFile_NotFound(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	if err := svc.RemoveFile(context.Background(), "missing"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("RemoveFile() error = %v, want ErrFileNotFound", err)
	}
}

func TestService_AddSegment_InvalidRange(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	file, err := svc.AddFile(ctx, writeTestVideo(t, "clip.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	tests := []struct {
		name  string
		start float64
		end   float64
	}{
		{"end equals start", 5, 5},
		{"end before start", 10, 5},
		{"negative start", -1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddSegment(ctx, file.ID, tt.start, tt.end)
			var invalid *InvalidRangeError
			if !errors.As(err, &invalid) {
				t.Errorf("AddSegment(%g, %g) error = %v, want InvalidRangeError", tt.start, tt.end, err)
			}
		})
	}
}

func TestService_AddSegment_UnknownFile(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	if _, err := svc.AddSegment(context.Background(), "missing", 0, 5); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("AddSegment() error = %v, want ErrFileNotFound", err)
	}
}

func TestService_Segments_OrderedGlobally(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	fileA, err := svc.AddFile(ctx, writeTestVideo(t, "a.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}
	fileB, err := svc.AddFile(ctx, writeTestVideo(t, "b.mp4"))
	if err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	s1, _ := svc.AddSegment(ctx, fileA.ID, 0, 5)
	s2, _ := svc.AddSegment(ctx, fileB.ID, 10, 20)
	s3, _ := svc.AddSegment(ctx, fileA.ID, 30, 40)

	segments, err := svc.GetSegments(ctx)
	if err != nil {
		t.Fatalf("GetSegments() error = %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("found %d segments, want 3", len(segments))
	}

	wantIDs := []string{s1.ID, s2.ID, s3.ID}
	for i, seg := range segments {
		if seg.ID != wantIDs[i] {
			t.Errorf("segments[%d].ID = %s, want %s", i, seg.ID, wantIDs[i])
		}
		if seg.Ord != i+1 {
			t.Errorf("segments[%d].Ord = %d, want %d", i, seg.Ord, i+1)
		}
	}
}

func TestService_RemoveSegment(t *testing.T) {
	database, repo := setupTestDB(t)
	defer database.Close()

	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	file, _ := svc.AddFile(ctx, writeTestVideo(t, "clip.mp4"))
	seg, err := svc.AddSegment(ctx, file.ID, 0, 5)
	if err != nil {
		t.Fatalf("AddSegment() error = %v", err)
	}

	if err := svc.RemoveSegment(ctx, seg.ID); err != nil {
		t.Fatalf("RemoveSegment() error = %v", err)
	}
	if err := svc.RemoveSegment(ctx, seg.ID); !errors.Is(err, ErrSegmentNotFound) {
		t.Errorf("second RemoveSegment() error = %v, want ErrSegmentNotFound", err)
	}
}

func TestSegmentDuration(t *testing.T) {
	if d := (Segment{Start: 2.5, End: 7}).Duration(); d != 4.5 {
		t.Errorf("Duration() = %g, want 4.5", d)
	}
	if d := (Segment{Start: 7, End: 2}).Duration(); d != 0 {
		t.Errorf("Duration() = %g, want 0 for inverted range", d)
	}
}

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"video.mp4", true},
		{"video.MP4", true},
		{"video.mov", true},
		{"video.mkv", true},
		{"video.webm", true},
		{"document.pdf", false},
		{"image.jpg", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsVideoFile(tt.filename); got != tt.want {
				t.Errorf("IsVideoFile(%s) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}
