// Package ffmpeg constructs and supervises external ffmpeg invocations:
// filter graph assembly, argument vector building for cuts and
// concatenation, and line-streamed subprocess execution.
package ffmpeg

import "strings"

// DefaultWatermarkMargin is the overlay margin in pixels used when a
// request leaves a margin unset.
const DefaultWatermarkMargin = 16

// Watermark configures an image overlay anchored to the bottom-left of the
// output frame.
type Watermark struct {
	Enabled      bool
	Path         string
	ScalePct     int // percent of the primary video width, default 20
	MarginLeft   int // pixels
	MarginBottom int // pixels
}

// Profile holds the encoding parameters shared by every cut of one export
// task. It is immutable for the lifetime of the task.
type Profile struct {
	Codec        string // h264/h265 aliases, default h264
	CRF          *int
	Preset       string
	AudioBitrate string  // e.g. "192k", empty = encoder default
	FPS          float64 // 0 = keep source
	Width        int     // 0 = no scaling
	Height       int     // 0 = no scaling
	Letterbox    bool
	Watermark    Watermark
	WebOptimize  bool // relocate container metadata for progressive playback
}

// VideoCodec maps the profile's codec aliases to an ffmpeg encoder name.
func (p Profile) VideoCodec() string {
	switch strings.ToLower(p.Codec) {
	case "h265", "hevc", "libx265":
		return "libx265"
	default:
		return "libx264"
	}
}

// HasWatermark reports whether a watermark overlay input is required.
func (p Profile) HasWatermark() bool {
	return p.Watermark.Enabled && p.Watermark.Path != ""
}
