package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipx/clipx-agent/internal/media"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/files", listFilesHandler(cfg))
		r.Post("/files", addFileHandler(cfg))
		r.Get("/files/{id}", getFileHandler(cfg))
		r.Delete("/files/{id}", deleteFileHandler(cfg))
		r.Get("/files/{id}/segments", listFileSegmentsHandler(cfg))

		r.Get("/segments", listSegmentsHandler(cfg))
		r.Post("/segments", addSegmentHandler(cfg))
		r.Delete("/segments/{id}", deleteSegmentHandler(cfg))

		r.Post("/exports", startExportHandler(cfg))
		r.Get("/exports", listJobsHandler(cfg))
		r.Post("/exports/edl", exportEDLHandler(cfg))
		r.Get("/exports/{id}", getJobHandler(cfg))
		r.Get("/exports/{id}/log", jobLogHandler(cfg))
		r.Post("/exports/{id}/cancel", cancelExportHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filesCount, _ := cfg.MediaService.CountFiles(ctx)
		segments, _ := cfg.MediaService.GetSegments(ctx)

		state := "idle"
		var activeJob *JobResponse
		lastError := ""

		if jobID := cfg.ExportService.Active(); jobID != "" {
			state = "exporting"
			if job, err := cfg.ExportService.GetJob(ctx, jobID); err == nil && job != nil {
				resp := JobToResponse(job)
				activeJob = &resp
			}
		}

		jobs, _ := cfg.ExportService.ListJobs(ctx, 10)
		for _, j := range jobs {
			if j.Status == media.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:        state,
			LastError:    lastError,
			FilesCount:   filesCount,
			SegmentCount: len(segments),
			ActiveJob:    activeJob,
		})
	}
}

func listFilesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := cfg.MediaService.GetFiles(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list files", "INTERNAL_ERROR")
			return
		}

		resp := FilesResponse{Files: make([]FileResponse, len(files))}
		for i, f := range files {
			resp.Files[i] = FileToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddFileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		file, err := cfg.MediaService.AddFile(r.Context(), req.Path)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, FileToResponse(file))
	}
}

func getFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := cfg.MediaService.GetFile(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if file == nil {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, FileToResponse(file))
	}
}

func deleteFileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.MediaService.RemoveFile(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, media.ErrFileNotFound) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listFileSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fileID := chi.URLParam(r, "id")
		file, err := cfg.MediaService.GetFile(r.Context(), fileID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if file == nil {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}

		segments, err := cfg.Repository.ListSegmentsByFile(r.Context(), fileID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, segmentsResponse(segments))
	}
}

func listSegmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		segments, err := cfg.MediaService.GetSegments(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list segments", "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, segmentsResponse(segments))
	}
}

func segmentsResponse(segments []*media.Segment) SegmentsResponse {
	resp := SegmentsResponse{Segments: make([]SegmentResponse, len(segments))}
	for i, s := range segments {
		resp.Segments[i] = SegmentToResponse(s)
	}
	return resp
}

func addSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddSegmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.FileID == "" {
			WriteError(w, http.StatusBadRequest, "file_id is required", "BAD_REQUEST")
			return
		}

		seg, err := cfg.MediaService.AddSegment(r.Context(), req.FileID, req.StartSec, req.EndSec)
		if errors.Is(err, media.ErrFileNotFound) {
			WriteError(w, http.StatusNotFound, "file not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, SegmentToResponse(seg))
	}
}

func deleteSegmentHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := cfg.MediaService.RemoveSegment(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, media.ErrSegmentNotFound) {
			WriteError(w, http.StatusNotFound, "segment not found", "NOT_FOUND")
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.ExportService.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.ExportService.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}
