package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/orusmind/orus-builder/internal/generation"
)

var wsTracer = otel.Tracer("generation-stream")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		return true
	},
}

// StreamEvent is the wire format sent over the progress WebSocket.
type StreamEvent struct {
	Type      string                   `json:"type"`
	JobID     string                   `json:"jobId"`
	Progress  generation.ProgressEvent `json:"progress,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

const (
	// maxBufferedEvents caps the replay buffer of a single job; the oldest
	// events are dropped once the cap is reached.
	maxBufferedEvents = 256
	// maxFinishedJobs caps how many finished jobs stay subscribable. Older
	// finished jobs are evicted; their results remain in the result store.
	maxFinishedJobs = 64
)

// jobStream buffers the events of one generation job so subscribers that
// connect after the job started still see the full sequence.
type jobStream struct {
	mu     sync.Mutex
	events []generation.ProgressEvent
	subs   map[chan generation.ProgressEvent]struct{}
	done   bool
}

// ProgressHub fans generation progress out to WebSocket subscribers,
// replaying buffered events to late joiners. Finished jobs are retained
// for replay up to maxFinishedJobs, then evicted oldest-first.
type ProgressHub struct {
	mu       sync.RWMutex
	jobs     map[string]*jobStream
	finished []string
	tracer   trace.Tracer
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		jobs:   make(map[string]*jobStream),
		tracer: wsTracer,
	}
}

// Open registers a job before generation starts.
func (h *ProgressHub) Open(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.jobs[jobID]; !ok {
		h.jobs[jobID] = &jobStream{subs: make(map[chan generation.ProgressEvent]struct{})}
	}
}

// Publish buffers an event and delivers it to live subscribers. Slow
// subscribers are skipped rather than blocking the generation loop.
func (h *ProgressHub) Publish(jobID string, ev generation.ProgressEvent) {
	h.mu.RLock()
	js, ok := h.jobs[jobID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	js.mu.Lock()
	defer js.mu.Unlock()
	if js.done {
		return
	}
	js.events = append(js.events, ev)
	if len(js.events) > maxBufferedEvents {
		trimmed := make([]generation.ProgressEvent, maxBufferedEvents)
		copy(trimmed, js.events[len(js.events)-maxBufferedEvents:])
		js.events = trimmed
	}
	for ch := range js.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close marks the job finished, releases all subscribers and evicts the
// oldest finished jobs beyond the retention cap.
func (h *ProgressHub) Close(jobID string) {
	h.mu.RLock()
	js, ok := h.jobs[jobID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	js.mu.Lock()
	if js.done {
		js.mu.Unlock()
		return
	}
	js.done = true
	for ch := range js.subs {
		close(ch)
	}
	js.subs = make(map[chan generation.ProgressEvent]struct{})
	js.mu.Unlock()

	h.mu.Lock()
	h.finished = append(h.finished, jobID)
	for len(h.finished) > maxFinishedJobs {
		delete(h.jobs, h.finished[0])
		h.finished = h.finished[1:]
	}
	h.mu.Unlock()
}

// Subscribe returns the buffered events plus a channel of live events. The
// channel is nil when the job already finished. The cancel func must be
// called when the subscriber disconnects.
func (h *ProgressHub) Subscribe(jobID string) (replay []generation.ProgressEvent, live chan generation.ProgressEvent, cancel func(), known bool) {
	h.mu.RLock()
	js, ok := h.jobs[jobID]
	h.mu.RUnlock()
	if !ok {
		return nil, nil, func() {}, false
	}

	js.mu.Lock()
	defer js.mu.Unlock()

	replay = make([]generation.ProgressEvent, len(js.events))
	copy(replay, js.events)

	if js.done {
		return replay, nil, func() {}, true
	}

	ch := make(chan generation.ProgressEvent, 64)
	js.subs[ch] = struct{}{}
	cancel = func() {
		js.mu.Lock()
		defer js.mu.Unlock()
		if _, still := js.subs[ch]; still {
			delete(js.subs, ch)
			close(ch)
		}
	}
	return replay, ch, cancel, true
}

// StreamProgress handles WebSocket /api/v1/generation/:jobId/stream
// @Summary Stream generation progress
// @Description WebSocket endpoint streaming real-time progress events for a generation job, replaying past events for late subscribers
// @Tags generation
// @Param jobId path string true "Job ID"
// @Param Authorization header string true "Bearer token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /v1/generation/{jobId}/stream [get]
func (h *Handler) StreamProgress(c *gin.Context) {
	_, span := wsTracer.Start(c.Request.Context(), "stream.progress")
	defer span.End()

	jobID := c.Param("jobId")
	span.SetAttributes(attribute.String("job.id", jobID))

	replay, live, cancel, known := h.hub.Subscribe(jobID)
	if !known {
		// A finished job may have been evicted from the hub but still
		// have a stored result.
		if _, ok := h.results.Get(jobID); !ok {
			h.respondError(c, http.StatusNotFound, errNotFound(c))
			return
		}
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("job_id", jobID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	write := func(ev generation.ProgressEvent) error {
		return conn.WriteJSON(StreamEvent{
			Type:      "progress",
			JobID:     jobID,
			Progress:  ev,
			Timestamp: time.Now(),
		})
	}

	// Replay buffered events first so late subscribers see the full run.
	for _, ev := range replay {
		if err := write(ev); err != nil {
			span.RecordError(err)
			return
		}
	}

	if live == nil {
		conn.WriteJSON(StreamEvent{Type: "done", JobID: jobID, Timestamp: time.Now()})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
		return
	}

	// Client -> ignore (one-way stream to client), but detect disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-live:
			if !ok {
				conn.WriteJSON(StreamEvent{Type: "done", JobID: jobID, Timestamp: time.Now()})
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}
			if err := write(ev); err != nil {
				span.RecordError(err)
				return
			}
		case <-clientGone:
			log.Debug().Str("job_id", jobID).Msg("stream client disconnected")
			return
		}
	}
}
