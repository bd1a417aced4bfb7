// Package exporter turns an ordered list of segments into a single output
// video: each segment is cut from its source into a scratch directory, then
// the cuts are joined into the final file.
package exporter

import (
	"fmt"

	"github.com/clipx/clipx-agent/internal/ffmpeg"
	"github.com/clipx/clipx-agent/internal/media"
)

// Task is one fully resolved export: every segment, the path of every source
// file it references, the encoding profile, and the destination. A task
// carries no database handles; building one resolves all lookups up front so
// the pipeline can fail before any subprocess is launched.
type Task struct {
	FFmpegPath   string
	Segments     []media.Segment
	SourceLookup map[string]string
	Profile      ffmpeg.Profile
	OutputPath   string
}

// Validate checks the task without touching the filesystem. A task that
// passes is safe to hand to the pipeline: every segment has a usable range
// and a known source.
func (t Task) Validate() error {
	if len(t.Segments) == 0 {
		return fmt.Errorf("no segments to export")
	}
	if t.OutputPath == "" {
		return fmt.Errorf("no output path")
	}
	if t.FFmpegPath == "" {
		return fmt.Errorf("no ffmpeg binary configured")
	}
	for _, seg := range t.Segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			return fmt.Errorf("segment %s: invalid range start=%g end=%g", seg.ID, seg.Start, seg.End)
		}
		if _, ok := t.SourceLookup[seg.FileID]; !ok {
			return &ffmpeg.MissingSourceError{FileID: seg.FileID}
		}
	}
	return nil
}
