package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/retell/internal/adapter/http/validation"
	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/infrastructure/logger"
)

// JobService is what the handlers need from the service layer.
type JobService interface {
	Submit(ctx context.Context, video io.Reader, audience domain.RawAudience, opts domain.RunOptions) (string, error)
	Get(jobID string) (*domain.Job, []domain.Artifact, error)
	List() ([]*domain.Job, error)
	Result(jobID string) (*domain.Result, error)
	ArtifactPath(jobID string, kind domain.ArtifactKind) (string, error)
	RerunStage(ctx context.Context, jobID string, stage domain.Stage, force bool) error
}

type Handlers struct {
	jobs      JobService
	maxSizeMB int
	logger    *slog.Logger
}

func NewHandlers(jobs JobService, maxSizeMB int, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:      jobs,
		maxSizeMB: maxSizeMB,
		logger:    logger,
	}
}

type jobView struct {
	ID          string            `json:"id"`
	Status      domain.JobStatus  `json:"status"`
	State       domain.JobState   `json:"state"`
	Stage       domain.Stage      `json:"stage,omitempty"`
	Segment     bool              `json:"segment"`
	Degraded    bool              `json:"degraded"`
	Error       string            `json:"error,omitempty"`
	Attempts    int64             `json:"attempts"`
	CreatedAt   time.Time         `json:"createdAt"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
	Artifacts   []domain.Artifact `json:"artifacts,omitempty"`
}

func toJobView(j *domain.Job, artifacts []domain.Artifact) jobView {
	v := jobView{
		ID:        j.ID,
		Status:    j.Status,
		State:     j.State,
		Stage:     j.Stage,
		Segment:   j.Options.Segment,
		Degraded:  j.Degraded,
		Error:     j.ErrorMessage,
		Attempts:  j.Attempts,
		CreatedAt: j.CreatedAt,
		Artifacts: artifacts,
	}
	if j.StartedAt.Valid {
		v.StartedAt = &j.StartedAt.Time
	}
	if j.CompletedAt.Valid {
		v.CompletedAt = &j.CompletedAt.Time
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// CreateJob accepts a multipart upload with a "video" file and an "audience"
// JSON field, stores it and queues the job.
func (h *Handlers) CreateJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := int64(h.maxSizeMB) * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, limit)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			if tooLarge(err) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.Itoa(h.maxSizeMB)+"MB")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll() //nolint:errcheck

		file, header, err := r.FormFile("video")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing video file")
			return
		}
		defer file.Close() //nolint:errcheck

		mime, err := validation.DetectVideo(file)
		if err != nil {
			if errors.Is(err, validation.ErrDisallowedFileType) {
				writeError(w, http.StatusUnsupportedMediaType, "unsupported video type: "+mime)
				return
			}
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}

		rawAudience := []byte(r.FormValue("audience"))
		if len(rawAudience) == 0 {
			rawAudience = []byte("{}")
		}
		if err := validation.ValidateAudience(rawAudience); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var audience domain.RawAudience
		if err := json.Unmarshal(rawAudience, &audience); err != nil {
			writeError(w, http.StatusBadRequest, "invalid audience")
			return
		}

		opts, err := parseRunOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		jobID, err := h.jobs.Submit(r.Context(), file, audience, opts)
		if err != nil {
			h.logger.Error("http.upload.failed", logger.Text("filename", header.Filename), "error", err)
			writeError(w, http.StatusInternalServerError, "could not create job")
			return
		}

		h.logger.Info("http.upload.accepted",
			"job_id", jobID,
			logger.Text("filename", header.Filename),
			"mime", mime,
			"size", header.Size,
		)
		w.Header().Set("Location", "/api/jobs/"+jobID)
		writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID})
	}
}

func parseRunOptions(r *http.Request) (domain.RunOptions, error) {
	var opts domain.RunOptions
	if v := r.FormValue("segment"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("invalid segment flag")
		}
		opts.Segment = b
	}
	if v := r.FormValue("maxSegmentSeconds"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, errors.New("invalid maxSegmentSeconds")
		}
		opts.MaxSegmentDuration = f
	}
	return opts, nil
}

func (h *Handlers) ListJobs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := h.jobs.List()
		if err != nil {
			h.logger.Error("http.jobs.list_failed", "error", err)
			writeError(w, http.StatusInternalServerError, "could not list jobs")
			return
		}
		views := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, toJobView(j, nil))
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func (h *Handlers) GetJob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, artifacts, err := h.jobs.Get(r.PathValue("id"))
		if err != nil {
			h.notFoundOr500(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toJobView(job, artifacts))
	}
}

// Result returns the completion report: 409 while the job is running and
// 422 once it has failed.
func (h *Handlers) Result() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h.jobs.Result(r.PathValue("id"))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, domain.ErrNotReady):
			writeError(w, http.StatusConflict, "job is not finished")
		case errors.Is(err, domain.ErrJobFailed):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.notFoundOr500(w, err)
		}
	}
}

func (h *Handlers) Artifact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.PathValue("id")
		kind, err := domain.ParseArtifactKind(r.PathValue("kind"))
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown artifact")
			return
		}

		path, err := h.jobs.ArtifactPath(jobID, kind)
		if err != nil {
			h.notFoundOr500(w, err)
			return
		}
		f, err := os.Open(path)
		if err != nil {
			h.notFoundOr500(w, err)
			return
		}
		defer f.Close() //nolint:errcheck

		info, err := f.Stat()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not read artifact")
			return
		}

		w.Header().Set("Content-Type", kind.ContentType())
		w.Header().Set("Content-Disposition", validation.ContentDisposition(jobID+"-"+kind.FileName(), kind.IsMedia()))
		http.ServeContent(w, r, kind.FileName(), info.ModTime(), f)
	}
}

// RerunStage runs one stage synchronously. ?force=true re-transcribes even
// when a transcript exists.
func (h *Handlers) RerunStage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := r.PathValue("id")
		stage, err := domain.ParseStage(r.PathValue("stage"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown stage")
			return
		}
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		err = h.jobs.RerunStage(r.Context(), jobID, stage, force)
		var stageErr *domain.StageError
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, map[string]string{"jobId": jobID, "stage": string(stage), "status": "done"})
		case errors.As(err, &stageErr):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.notFoundOr500(w, err)
		}
	}
}

func (h *Handlers) notFoundOr500(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("http.handler.error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
