// Package probe inspects media files with a single ffprobe JSON call and
// parses the primary video stream plus container-level attributes into a
// typed descriptor.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoVideoStream is returned when the probed file carries no video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// MediaInfo is the parsed descriptor of a media file's primary video stream.
// FPSDen may be 0 when the frame rate is unknown; FPS guards against it.
type MediaInfo struct {
	Width    int
	Height   int
	FPSNum   int
	FPSDen   int
	Duration float64
	Codec    string
	PixFmt   string
	Bitrate  int64 // bits/sec, 0 when unknown
}

// FPS returns the derived frame rate, or 0 when the rational is unknown.
func (m MediaInfo) FPS() float64 {
	if m.FPSDen == 0 {
		return 0
	}
	return float64(m.FPSNum) / float64(m.FPSDen)
}

// Probe runs ffprobe against path and returns the parsed descriptor.
// Any failure (launch, non-zero exit, no video stream, bad JSON) is an
// error; callers record the descriptor as absent rather than crashing.
func Probe(ctx context.Context, ffprobePath, mediaPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_streams",
		"-show_format",
		"-of", "json",
		mediaPath,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", mediaPath, err)
	}

	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a MediaInfo.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if len(raw.Streams) == 0 {
		return nil, ErrNoVideoStream
	}
	return buildInfo(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecName    string `json:"codec_name"`
	PixFmt       string `json:"pix_fmt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	BitRate      string `json:"bit_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
}

// --- Conversion from wire types to the descriptor ---

func buildInfo(raw *ffprobeOutput) *MediaInfo {
	v := &raw.Streams[0]

	rate := v.AvgFrameRate
	if rate == "" || rate == "0/0" {
		rate = v.RFrameRate
	}
	num, den := parseRate(rate)

	duration := parseFloat(raw.Format.Duration)
	if duration == 0 {
		duration = parseFloat(v.Duration)
	}

	codec := v.CodecName
	if codec == "" {
		codec = raw.Format.FormatName
	}
	if codec == "" {
		codec = "unknown"
	}

	pixFmt := v.PixFmt
	if pixFmt == "" {
		pixFmt = "unknown"
	}

	bitrate := parseInt64(raw.Format.BitRate)
	if bitrate == 0 {
		bitrate = parseInt64(v.BitRate)
	}

	return &MediaInfo{
		Width:    v.Width,
		Height:   v.Height,
		FPSNum:   num,
		FPSDen:   den,
		Duration: duration,
		Codec:    codec,
		PixFmt:   pixFmt,
		Bitrate:  bitrate,
	}
}

// parseRate parses ffprobe's rational frame rate ("30000/1001", "30").
// Unknown rates map to 0/1 so FPS derives to 0 without a divide-by-zero.
func parseRate(rate string) (num, den int) {
	if rate == "" || rate == "0/0" {
		return 0, 1
	}
	if i := strings.IndexByte(rate, '/'); i >= 0 {
		num, _ = strconv.Atoi(rate[:i])
		den, _ = strconv.Atoi(rate[i+1:])
		if den == 0 {
			den = 1
		}
		return num, den
	}
	f, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return 0, 1
	}
	return int(f), 1
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
