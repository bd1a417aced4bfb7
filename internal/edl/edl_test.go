package edl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/clipx/clipx-agent/internal/media"
)

func TestGenerate(t *testing.T) {
	clips := []Clip{
		{ClipName: "a.mp4", MediaPath: "/videos/a.mp4", StartMs: 0, EndMs: 5000},
		{ClipName: "b.mp4", MediaPath: "/videos/b.mp4", StartMs: 10000, EndMs: 12000},
	}

	out := Generate(clips, "My Cut", 30)

	if !strings.HasPrefix(out, "TITLE: My Cut\nFCM: NON-DROP FRAME\n") {
		t.Errorf("header wrong:\n%s", out)
	}
	if !strings.Contains(out, "001  AX       V     C        00:00:00:00 00:00:05:00 00:00:00:00 00:00:05:00") {
		t.Errorf("first event wrong:\n%s", out)
	}
	// Record timecodes continue where the previous clip ended.
	if !strings.Contains(out, "002  AX       V     C        00:00:10:00 00:00:12:00 00:00:05:00 00:00:07:00") {
		t.Errorf("second event wrong:\n%s", out)
	}
	if !strings.Contains(out, "* FROM CLIP NAME:  a.mp4") {
		t.Errorf("clip name comment missing:\n%s", out)
	}
	if !strings.Contains(out, "* MEDIA PATH:  /videos/b.mp4") {
		t.Errorf("media path comment missing:\n%s", out)
	}
}

func TestGenerate_DropFrame(t *testing.T) {
	out := Generate(nil, "DF", 29.97)
	if !strings.Contains(out, "FCM: DROP FRAME") {
		t.Errorf("29.97 fps must be drop frame:\n%s", out)
	}

	out = Generate(nil, "NDF", 25)
	if !strings.Contains(out, "FCM: NON-DROP FRAME") {
		t.Errorf("25 fps must be non-drop frame:\n%s", out)
	}
}

func TestGenerate_ZeroFrameRateDefaults(t *testing.T) {
	out := Generate([]Clip{{ClipName: "a", StartMs: 0, EndMs: 1000}}, "T", 0)
	if !strings.Contains(out, "00:00:00:00 00:00:01:00") {
		t.Errorf("zero frame rate should fall back to 30 fps:\n%s", out)
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		ms   int
		fps  int
		want string
	}{
		{0, 30, "00:00:00:00"},
		{1000, 30, "00:00:01:00"},
		{1500, 30, "00:00:01:15"},
		{3661000, 25, "01:01:01:00"},
	}
	for _, tt := range tests {
		if got := msToTimecode(tt.ms, tt.fps); got != tt.want {
			t.Errorf("msToTimecode(%d, %d) = %s, want %s", tt.ms, tt.fps, got, tt.want)
		}
	}
}

func TestFromSegments(t *testing.T) {
	files := []*media.File{
		{ID: "f1", Path: "/videos/a.mp4", Filename: "a.mp4"},
	}
	segments := []*media.Segment{
		{ID: "s1", FileID: "f1", Start: 1.5, End: 4},
		{ID: "s2", FileID: "ghost", Start: 0, End: 1},
		{ID: "s3", FileID: "f1", Start: 10, End: 20},
	}

	clips := FromSegments(segments, files)
	if len(clips) != 2 {
		t.Fatalf("got %d clips, want 2 (unknown source skipped)", len(clips))
	}
	if clips[0].StartMs != 1500 || clips[0].EndMs != 4000 {
		t.Errorf("clips[0] = %+v, want 1500..4000", clips[0])
	}
	if clips[1].ClipName != "a.mp4" || clips[1].MediaPath != "/videos/a.mp4" {
		t.Errorf("clips[1] = %+v", clips[1])
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"My Cut (v2).mp4", 0, "My Cut (v2).mp4"},
		{"bad/name:here", 0, "bad_name_here"},
		{"tab\there", 0, "tabhere"},
		{"  spaced  ", 0, "spaced"},
		{"truncated", 5, "trunc"},
	}
	for _, tt := range tests {
		if got := SanitizeName(tt.in, tt.max); got != tt.want {
			t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestValidateOutputDir(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateOutputDir(dir); err != nil {
		t.Errorf("ValidateOutputDir(%s) error = %v", dir, err)
	}

	if err := ValidateOutputDir(""); err == nil {
		t.Error("empty dir should be rejected")
	}
	if err := ValidateOutputDir(dir + "/../escape"); err == nil {
		t.Error("traversal should be rejected")
	}
	if err := ValidateOutputDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing dir should be rejected")
	}

	file := filepath.Join(dir, "f.txt")
	os.WriteFile(file, []byte("x"), 0644)
	if err := ValidateOutputDir(file); err == nil {
		t.Error("file path should be rejected")
	}
}
