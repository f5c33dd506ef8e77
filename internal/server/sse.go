package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// sseRingBufferSize is the number of recent events retained for
	// Last-Event-ID reconnection replay.
	sseRingBufferSize = 1000

	// sseKeepaliveInterval is how often a comment line is sent to keep
	// idle connections from timing out.
	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is a single event held in the replay ring and delivered to
// SSE clients.
type sseEvent struct {
	ID    uint64 // monotonically increasing sequence number
	Topic string
	Data  []byte // JSON-encoded payload
}

// sseClient is one connected SSE consumer.
type sseClient struct {
	topics []string      // topic patterns to match; empty matches all
	ch     chan sseEvent // buffered delivery channel
}

// sseHub fans published collector events out to connected SSE clients
// and keeps a ring of recent events so reconnecting clients can replay
// what they missed.
type sseHub struct {
	mu      sync.Mutex
	clients map[*sseClient]struct{}
	nextID  atomic.Uint64

	ring    [sseRingBufferSize]sseEvent
	ringPos int // next write position, wraps around
	ringLen int // valid entries, up to sseRingBufferSize
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast assigns the event a sequence number, records it in the
// replay ring, and delivers it to every subscriber whose topic filter
// matches. Delivery drops when a client's buffer is full.
func (h *sseHub) broadcast(topic string, payload []byte) {
	ev := sseEvent{ID: h.nextID.Add(1), Topic: topic, Data: payload}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.ringPos] = ev
	h.ringPos = (h.ringPos + 1) % sseRingBufferSize
	if h.ringLen < sseRingBufferSize {
		h.ringLen++
	}

	for c := range h.clients {
		if !c.matchesTopic(topic) {
			continue
		}
		select {
		case c.ch <- ev:
		default:
		}
	}
}

// subscribe registers a new client with the given topic filters. The
// caller must unsubscribe when done.
func (h *sseHub) subscribe(topics []string) *sseClient {
	c := &sseClient{topics: topics, ch: make(chan sseEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// eventsSince returns ring events with ID > lastID, oldest first. An
// lastID older than the ring simply replays everything still held.
func (h *sseHub) eventsSince(lastID uint64) []sseEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ringLen == 0 {
		return nil
	}

	var out []sseEvent
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += sseRingBufferSize
	}
	for i := range h.ringLen {
		ev := h.ring[(start+i)%sseRingBufferSize]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// matchesTopic reports whether any of the client's filters match topic.
// An empty filter list matches all topics.
func (c *sseClient) matchesTopic(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, pattern := range c.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern.
// "*" matches exactly one segment and ">" matches one or more trailing
// segments, so "hoptrace.trace.*" matches "hoptrace.trace.completed"
// and "hoptrace.>" matches every collector topic.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}
	return len(patParts) == len(topParts)
}

// handleEventStream serves GET /v1/events/stream. Clients may filter
// with ?topics=a,b and resume with the standard Last-Event-ID header.
func (s *PerfServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				topics = append(topics, t)
			}
		}
	}

	client := s.sseHub.subscribe(topics)
	defer s.sseHub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Replay what the client missed since its last connection.
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, ev := range s.sseHub.eventsSince(lastID) {
				if client.matchesTopic(ev.Topic) {
					writeSSEEvent(w, ev)
				}
			}
			flusher.Flush()
		}
	}

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-client.ch:
			writeSSEEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes one event in the SSE wire format.
func writeSSEEvent(w http.ResponseWriter, ev sseEvent) {
	fmt.Fprintf(w, "id:%d\n", ev.ID)
	fmt.Fprintf(w, "event:%s\n", ev.Topic)
	fmt.Fprintf(w, "data:%s\n\n", ev.Data)
}

// broadcastEvent marshals event and hands it to the hub. Called on the
// ingest path, so marshal failures are logged rather than returned.
func (s *PerfServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("marshal event for broadcast", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
