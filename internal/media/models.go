// Package media holds the agent's catalog: probed video files and the
// time-ranged segments selected from them, persisted in SQLite.
package media

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clipx/clipx-agent/internal/probe"
)

// File is a registered source video. Info stays nil until the background
// probe completes; it is attached exactly once and never mutated afterwards.
type File struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	Filename  string           `json:"filename"`
	Size      int64            `json:"size"`
	Mtime     time.Time        `json:"mtime"`
	Info      *probe.MediaInfo `json:"info,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Segment is a time range within one source file. Ord is the global order
// key that fixes the final concatenation order across files; ties are broken
// by insertion order. End > Start is enforced when the segment is created.
type Segment struct {
	ID        string    `json:"id"`
	FileID    string    `json:"file_id"`
	Start     float64   `json:"start_sec"`
	End       float64   `json:"end_sec"`
	Ord       int       `json:"ord"`
	CreatedAt time.Time `json:"created_at"`
}

// Duration returns the segment length in seconds, never negative.
func (s Segment) Duration() float64 {
	if d := s.End - s.Start; d > 0 {
		return d
	}
	return 0
}

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusDone      = "done"
	JobStatusFailed    = "failed"
	JobStatusCancelled = "cancelled"
)

// Job is the persisted record of one export task.
type Job struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	Stage      string    `json:"stage,omitempty"`
	Error      string    `json:"error,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
