package api

import (
	"time"

	"github.com/clipx/clipx-agent/internal/ffmpeg"
	"github.com/clipx/clipx-agent/internal/media"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State        string       `json:"state"`
	LastError    string       `json:"last_error,omitempty"`
	FilesCount   int          `json:"files_count"`
	SegmentCount int          `json:"segment_count"`
	ActiveJob    *JobResponse `json:"active_job,omitempty"`
}

type AddFileRequest struct {
	Path string `json:"path"`
}

type MediaInfoResponse struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration_sec"`
	Codec    string  `json:"codec"`
	PixFmt   string  `json:"pix_fmt,omitempty"`
	Bitrate  int64   `json:"bitrate,omitempty"`
}

type FileResponse struct {
	ID        string             `json:"id"`
	Path      string             `json:"path"`
	Filename  string             `json:"filename"`
	Size      int64              `json:"size"`
	Probed    bool               `json:"probed"`
	Info      *MediaInfoResponse `json:"info,omitempty"`
	CreatedAt string             `json:"created_at"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

type AddSegmentRequest struct {
	FileID   string  `json:"file_id"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

type SegmentResponse struct {
	ID          string  `json:"id"`
	FileID      string  `json:"file_id"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	DurationSec float64 `json:"duration_sec"`
	Ord         int     `json:"ord"`
	CreatedAt   string  `json:"created_at"`
}

type SegmentsResponse struct {
	Segments []SegmentResponse `json:"segments"`
}

// WatermarkPayload mirrors ffmpeg.Watermark on the wire. The margins are
// pointers so an omitted margin gets the default while an explicit zero
// pins the overlay to the corner.
type WatermarkPayload struct {
	Enabled      bool   `json:"enabled"`
	Path         string `json:"path,omitempty"`
	ScalePct     int    `json:"scale_pct,omitempty"`
	MarginLeft   *int   `json:"margin_left,omitempty"`
	MarginBottom *int   `json:"margin_bottom,omitempty"`
}

type ProfilePayload struct {
	Codec        string            `json:"codec,omitempty"`
	CRF          *int              `json:"crf,omitempty"`
	Preset       string            `json:"preset,omitempty"`
	AudioBitrate string            `json:"audio_bitrate,omitempty"`
	FPS          float64           `json:"fps,omitempty"`
	Width        int               `json:"width,omitempty"`
	Height       int               `json:"height,omitempty"`
	Letterbox    bool              `json:"letterbox,omitempty"`
	Watermark    *WatermarkPayload `json:"watermark,omitempty"`
	WebOptimize  bool              `json:"web_optimize,omitempty"`
}

func (p ProfilePayload) ToProfile() ffmpeg.Profile {
	profile := ffmpeg.Profile{
		Codec:        p.Codec,
		CRF:          p.CRF,
		Preset:       p.Preset,
		AudioBitrate: p.AudioBitrate,
		FPS:          p.FPS,
		Width:        p.Width,
		Height:       p.Height,
		Letterbox:    p.Letterbox,
		WebOptimize:  p.WebOptimize,
	}
	if p.Watermark != nil {
		wm := ffmpeg.Watermark{
			Enabled:      p.Watermark.Enabled,
			Path:         p.Watermark.Path,
			ScalePct:     p.Watermark.ScalePct,
			MarginLeft:   ffmpeg.DefaultWatermarkMargin,
			MarginBottom: ffmpeg.DefaultWatermarkMargin,
		}
		if p.Watermark.MarginLeft != nil {
			wm.MarginLeft = *p.Watermark.MarginLeft
		}
		if p.Watermark.MarginBottom != nil {
			wm.MarginBottom = *p.Watermark.MarginBottom
		}
		profile.Watermark = wm
	}
	return profile
}

type ExportRequest struct {
	OutputPath string         `json:"output_path"`
	SegmentIDs []string       `json:"segment_ids,omitempty"`
	Profile    ProfilePayload `json:"profile"`
}

type ExportResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Stage      string `json:"stage,omitempty"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type JobLogResponse struct {
	JobID string   `json:"job_id"`
	Lines []string `json:"lines"`
}

type EDLRequest struct {
	OutputDir   string  `json:"output_dir"`
	ProjectName string  `json:"project_name,omitempty"`
	FrameRate   float64 `json:"frame_rate,omitempty"`
}

type EDLResponse struct {
	Status     string `json:"status"`
	OutputPath string `json:"output_path"`
	ClipCount  int    `json:"clip_count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func FileToResponse(f *media.File) FileResponse {
	resp := FileResponse{
		ID:        f.ID,
		Path:      f.Path,
		Filename:  f.Filename,
		Size:      f.Size,
		Probed:    f.Info != nil,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
	if f.Info != nil {
		resp.Info = &MediaInfoResponse{
			Width:    f.Info.Width,
			Height:   f.Info.Height,
			FPS:      f.Info.FPS(),
			Duration: f.Info.Duration,
			Codec:    f.Info.Codec,
			PixFmt:   f.Info.PixFmt,
			Bitrate:  f.Info.Bitrate,
		}
	}
	return resp
}

func SegmentToResponse(s *media.Segment) SegmentResponse {
	return SegmentResponse{
		ID:          s.ID,
		FileID:      s.FileID,
		StartSec:    s.Start,
		EndSec:      s.End,
		DurationSec: s.Duration(),
		Ord:         s.Ord,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *media.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		Status:     j.Status,
		Progress:   j.Progress,
		Stage:      j.Stage,
		Error:      j.Error,
		OutputPath: j.OutputPath,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}
