package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/service"
)

const keepAliveInterval = 15 * time.Second

// EventSource is the subscription side of the event bus.
type EventSource interface {
	Subscribe(jobID string) chan service.Event
	Unsubscribe(jobID string, ch chan service.Event)
}

type SSEHandler struct {
	events    EventSource
	jobs      JobService
	logger    *slog.Logger
	keepAlive time.Duration
}

func NewSSEHandler(events EventSource, jobs JobService, logger *slog.Logger) *SSEHandler {
	return &SSEHandler{
		events:    events,
		jobs:      jobs,
		logger:    logger,
		keepAlive: keepAliveInterval,
	}
}

// sseWrite writes an SSE event, handling multi-line data correctly.
func sseWrite(w http.ResponseWriter, eventName string, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\n", eventName)
	for _, line := range strings.Split(data, "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func sendEvent(w http.ResponseWriter, e service.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	sseWrite(w, e.Type, string(data))
}

// sendKeepAlive writes an SSE comment to keep the connection active.
func sendKeepAlive(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, ": keep-alive\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// snapshot turns the ledger row into the event a late subscriber would have
// seen last.
func snapshot(job *domain.Job) service.Event {
	e := service.Event{
		JobID:   job.ID,
		Stage:   job.Stage,
		State:   job.State,
		Message: job.ErrorMessage,
		Time:    time.Now().UTC(),
	}
	switch job.Status {
	case domain.JobStatusDone:
		e.Type = service.EventCompleted
	case domain.JobStatusFailed:
		e.Type = service.EventFailed
	default:
		e.Type = service.EventStage
		e.Status = string(job.Status)
	}
	return e
}

// Events streams job progress until the job reaches a terminal event or the
// client goes away.
func (h *SSEHandler) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		job, _, err := h.jobs.Get(id)
		if err != nil {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		if e := snapshot(job); e.Terminal() {
			sendEvent(w, e)
			return
		}

		ch := h.events.Subscribe(id)
		defer h.events.Unsubscribe(id, ch)

		// The job may have finished between the lookup and the subscription.
		if job, _, err = h.jobs.Get(id); err == nil {
			e := snapshot(job)
			sendEvent(w, e)
			if e.Terminal() {
				return
			}
		}

		ctx := r.Context()
		keepAlive := time.NewTicker(h.keepAlive)
		defer keepAlive.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				sendKeepAlive(w)
			case event, ok := <-ch:
				if !ok {
					return
				}
				sendEvent(w, event)
				if event.Terminal() {
					h.logger.Debug("http.events.closed", "job_id", id, "type", event.Type)
					return
				}
			}
		}
	}
}
