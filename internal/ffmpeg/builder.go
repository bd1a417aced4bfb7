package ffmpeg

import (
	"strconv"
	"strings"

	"github.com/clipx/clipx-agent/internal/media"
)

// BuildCutArgs assembles the full argument vector for a single-segment cut:
// fast seek before input open, cut end relative to the input, optional
// filter stage, codec parameters. Pure function of its inputs.
//
// Single-input filters use -vf; a watermark makes the graph two-input and
// switches to -filter_complex with an explicit image input.
func BuildCutArgs(ffmpegPath string, seg media.Segment, lookup map[string]string, p Profile, outPath string) ([]string, error) {
	src, ok := lookup[seg.FileID]
	if !ok {
		return nil, &MissingSourceError{FileID: seg.FileID}
	}

	args := []string{
		ffmpegPath,
		"-hide_banner", "-nostdin", "-y",
		"-ss", formatSeconds(seg.Start),
		"-to", formatSeconds(seg.End),
		"-i", src,
	}

	if p.HasWatermark() {
		args = append(args, "-i", p.Watermark.Path)
	}

	if spec := ApplyWatermark(p, BuildScale(p)); spec != nil {
		if spec.Complex() {
			args = append(args, "-filter_complex", spec.String())
		} else {
			args = append(args, "-vf", spec.String())
		}
	}

	args = appendVideoCodec(args, p)
	args = appendAudioCodec(args, p)
	args = append(args, outPath)
	return args, nil
}

// BuildConcatArgs assembles the fast stream-copy concatenation command over
// a concat-demuxer manifest. Valid only when every cut shares identical
// codec parameters, which holds by construction for cuts of one profile.
func BuildConcatArgs(ffmpegPath, listPath, outPath string, webOptimize bool) []string {
	args := []string{
		ffmpegPath,
		"-hide_banner", "-nostdin", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
	}
	if webOptimize {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, outPath)
}

// BuildConcatFallbackArgs assembles the n-input filter-graph concatenation
// that re-encodes every cut with the task's codec parameters. It is the
// mandatory fallback when the stream-copy concat exits non-zero.
func BuildConcatFallbackArgs(ffmpegPath string, cutPaths []string, outPath string, p Profile) []string {
	args := []string{ffmpegPath, "-hide_banner", "-nostdin", "-y"}
	for _, c := range cutPaths {
		args = append(args, "-i", c)
	}
	args = append(args,
		"-filter_complex", concatGraph(len(cutPaths)).String(),
		"-map", "[v]",
		"-map", "[a]",
	)
	args = appendVideoCodec(args, p)
	args = appendAudioCodec(args, p)
	if p.WebOptimize {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, outPath)
}

// ConcatManifest renders the concat-demuxer file list. Paths are single
// quoted with embedded quotes escaped the way the demuxer expects.
func ConcatManifest(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func appendVideoCodec(args []string, p Profile) []string {
	args = append(args, "-c:v", p.VideoCodec())
	if p.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*p.CRF))
	}
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	// 4:2:0 keeps the output broadly decodable
	args = append(args, "-pix_fmt", "yuv420p")
	if p.FPS > 0 {
		args = append(args, "-r", formatSeconds(p.FPS))
	}
	return args
}

func appendAudioCodec(args []string, p Profile) []string {
	args = append(args, "-c:a", "aac")
	if p.AudioBitrate != "" {
		args = append(args, "-b:a", p.AudioBitrate)
	}
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
