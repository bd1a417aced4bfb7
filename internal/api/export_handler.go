package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/clipx/clipx-agent/internal/edl"
	"github.com/clipx/clipx-agent/internal/exporter"
)

func startExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.OutputPath == "" {
			WriteError(w, http.StatusBadRequest, "output_path is required", "BAD_REQUEST")
			return
		}

		job, err := cfg.ExportService.Start(r.Context(), exporter.Request{
			OutputPath: req.OutputPath,
			SegmentIDs: req.SegmentIDs,
			Profile:    req.Profile.ToProfile(),
		})
		if errors.Is(err, exporter.ErrExportActive) {
			WriteError(w, http.StatusConflict, "an export is already running", "EXPORT_ACTIVE")
			return
		}
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ExportResponse{JobID: job.ID})
	}
}

func jobLogHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")
		lines, err := cfg.ExportService.Logs(jobID)
		if errors.Is(err, exporter.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, JobLogResponse{JobID: jobID, Lines: lines})
	}
}

func cancelExportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")
		err := cfg.ExportService.Cancel(jobID)
		if errors.Is(err, exporter.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "no running export with that id", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		// Delivery only; the job reaches cancelled once the pipeline stops.
		w.WriteHeader(http.StatusAccepted)
	}
}

func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EDLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := edl.ValidateOutputDir(req.OutputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		projectName := edl.SanitizeName(req.ProjectName, 120)
		if projectName == "" {
			projectName = "clipx_export"
		}

		frameRate := req.FrameRate
		if frameRate <= 0 {
			frameRate = 30.0
		}

		segments, err := cfg.MediaService.GetSegments(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		files, err := cfg.MediaService.GetFiles(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		clips := edl.FromSegments(segments, files)
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no segments could be resolved", "UNRESOLVABLE_SEGMENTS")
			return
		}

		content := edl.Generate(clips, projectName, frameRate)
		outputPath := filepath.Join(req.OutputDir, projectName+".edl")
		if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, EDLResponse{
			Status:     "ok",
			OutputPath: outputPath,
			ClipCount:  len(clips),
		})
	}
}
