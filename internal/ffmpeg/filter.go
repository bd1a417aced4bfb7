package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterSpec is a structured filter graph: named stages with typed
// parameters, grouped into labeled chains. Serialization to ffmpeg's
// textual syntax happens in one place (String) so escaping and ordering
// stay consistent.
//
// A spec with a single unlabeled chain serializes to the simple -vf form;
// anything touching a second input carries stream labels and requires
// -filter_complex.
type FilterSpec struct {
	chains []filterChain
}

type filterChain struct {
	inputs  []string // stream labels, e.g. "0:v", "scaled"
	stages  []filterStage
	outputs []string
}

type filterStage struct {
	name string
	args []filterArg
}

type filterArg struct {
	key   string
	value string
}

func arg(key, value string) filterArg {
	return filterArg{key: key, value: value}
}

func newStage(name string, args ...filterArg) filterStage {
	return filterStage{name: name, args: args}
}

// Complex reports whether the graph needs the -filter_complex form.
func (s *FilterSpec) Complex() bool {
	return len(s.chains) > 1
}

// String serializes the graph to ffmpeg filter syntax.
func (s *FilterSpec) String() string {
	var b strings.Builder
	for i, c := range s.chains {
		if i > 0 {
			b.WriteByte(';')
		}
		for _, in := range c.inputs {
			fmt.Fprintf(&b, "[%s]", in)
		}
		for j, st := range c.stages {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(st.String())
		}
		for _, out := range c.outputs {
			fmt.Fprintf(&b, "[%s]", out)
		}
	}
	return b.String()
}

func (st filterStage) String() string {
	var b strings.Builder
	b.WriteString(st.name)
	for i, a := range st.args {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(':')
		}
		if a.key != "" {
			b.WriteString(a.key)
			b.WriteByte('=')
		}
		b.WriteString(a.value)
	}
	return b.String()
}

// BuildScale produces the scale (and optional letterbox pad) stage for a
// profile, or nil when no target dimensions are set. The scale fits within
// the requested box preserving aspect ratio; letterboxing pads the result
// onto a centered black canvas of exactly the requested size.
func BuildScale(p Profile) *FilterSpec {
	if p.Width <= 0 || p.Height <= 0 {
		return nil
	}

	w := fmt.Sprintf("%d", p.Width)
	h := fmt.Sprintf("%d", p.Height)

	stages := []filterStage{
		newStage("scale",
			arg("w", w),
			arg("h", h),
			arg("force_original_aspect_ratio", "decrease"),
			arg("flags", "bicubic"),
		),
	}
	if p.Letterbox {
		stages = append(stages, newStage("pad",
			arg("w", w),
			arg("h", h),
			arg("x", "(ow-iw)/2"),
			arg("y", "(oh-ih)/2"),
			arg("color", "black"),
		))
	}

	return &FilterSpec{chains: []filterChain{{stages: stages}}}
}

// ApplyWatermark fuses a watermark overlay into base. When watermarking is
// disabled it returns base unchanged. The watermark image (input 1) is
// scaled to a percentage of the primary video's width and overlaid at
// x=MarginLeft, y=H-h-MarginBottom. Any prior scale stage is applied to the
// primary video BEFORE the overlay, so margins stay absolute regardless of
// the source resolution.
func ApplyWatermark(p Profile, base *FilterSpec) *FilterSpec {
	if !p.HasWatermark() {
		return base
	}

	pct := p.Watermark.ScalePct
	if pct <= 0 {
		pct = 20
	}
	left := p.Watermark.MarginLeft
	if left < 0 {
		left = 0
	}
	bottom := p.Watermark.MarginBottom
	if bottom < 0 {
		bottom = 0
	}

	var chains []filterChain
	overlayInput := "0:v"

	if base != nil && len(base.chains) == 1 {
		scaled := base.chains[0]
		scaled.inputs = []string{"0:v"}
		scaled.outputs = []string{"scaled"}
		chains = append(chains, scaled)
		overlayInput = "scaled"
	}

	chains = append(chains,
		filterChain{
			inputs: []string{"1:v"},
			stages: []filterStage{newStage("scale",
				arg("w", fmt.Sprintf("iw*%d/100", pct)),
				arg("h", "-1"),
			)},
			outputs: []string{"wm"},
		},
		filterChain{
			inputs: []string{overlayInput, "wm"},
			stages: []filterStage{newStage("overlay",
				arg("x", fmt.Sprintf("%d", left)),
				arg("y", fmt.Sprintf("H-h-%d", bottom)),
			)},
		},
	)

	return &FilterSpec{chains: chains}
}

// concatGraph builds the n-input re-encode concatenation graph with labeled
// video/audio outputs for -map.
func concatGraph(n int) *FilterSpec {
	return &FilterSpec{chains: []filterChain{{
		stages: []filterStage{newStage("concat",
			arg("n", fmt.Sprintf("%d", n)),
			arg("v", "1"),
			arg("a", "1"),
		)},
		outputs: []string{"v", "a"},
	}}}
}
