// Package edl renders the selected segments as a CMX 3600 edit decision
// list, so a cut planned here can be refined in an NLE instead of being
// rendered directly.
package edl

import (
	"fmt"
	"math"
	"strings"

	"github.com/clipx/clipx-agent/internal/media"
)

// Clip is one EDL event: a segment resolved against its source file.
type Clip struct {
	ClipName  string
	MediaPath string
	StartMs   int
	EndMs     int
}

// FromSegments resolves segments against the catalog files. Segments whose
// source is unknown are skipped; order is preserved.
func FromSegments(segments []*media.Segment, files []*media.File) []Clip {
	byID := make(map[string]*media.File, len(files))
	for _, f := range files {
		byID[f.ID] = f
	}

	var clips []Clip
	for _, seg := range segments {
		f, ok := byID[seg.FileID]
		if !ok {
			continue
		}
		clips = append(clips, Clip{
			ClipName:  f.Filename,
			MediaPath: f.Path,
			StartMs:   int(math.Round(seg.Start * 1000)),
			EndMs:     int(math.Round(seg.End * 1000)),
		})
	}
	return clips
}

// Generate renders the clip list as CMX 3600 text. Record timecodes run
// contiguously from zero, matching the concatenated output.
func Generate(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordOffsetMs := 0
	for i, clip := range clips {
		srcIn := msToTimecode(clip.StartMs, fps)
		srcOut := msToTimecode(clip.EndMs, fps)
		recIn := msToTimecode(recordOffsetMs, fps)
		durationMs := clip.EndMs - clip.StartMs
		recOut := msToTimecode(recordOffsetMs+durationMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", clip.MediaPath),
		)

		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
