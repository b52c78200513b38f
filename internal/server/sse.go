package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseHistorySize is how many recent events a reconnecting client can
	// replay with Last-Event-ID.
	sseHistorySize = 512

	sseKeepaliveInterval = 15 * time.Second
	sseClientBuffer      = 64
)

type sseEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

func (e sseEvent) writeTo(w io.Writer) error {
	_, err := fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", e.ID, e.Topic, e.Data)
	return err
}

// topicFilter holds NATS-style patterns. An empty filter matches everything.
type topicFilter []string

func parseTopicFilter(q string) topicFilter {
	var f topicFilter
	for _, p := range strings.Split(q, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

func (f topicFilter) match(topic string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if matchTopicPattern(p, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern reports whether topic matches pattern, where "*" stands
// for one dot-separated token and a trailing ">" for one or more.
func matchTopicPattern(pattern, topic string) bool {
	for {
		p, prest, pmore := strings.Cut(pattern, ".")
		if p == ">" {
			return topic != ""
		}
		t, trest, tmore := strings.Cut(topic, ".")
		if t == "" || (p != "*" && p != t) {
			return false
		}
		if !pmore || !tmore {
			return pmore == tmore
		}
		pattern, topic = prest, trest
	}
}

type sseSubscriber struct {
	filter topicFilter
	ch     chan sseEvent
}

// sseHub fans server events out to connected SSE clients and remembers the
// last sseHistorySize of them.
type sseHub struct {
	mu      sync.Mutex
	seq     uint64
	subs    map[*sseSubscriber]struct{}
	history []sseEvent // ring, oldest at head once full
	head    int
}

func newSSEHub() *sseHub {
	return &sseHub{
		subs:    make(map[*sseSubscriber]struct{}),
		history: make([]sseEvent, 0, sseHistorySize),
	}
}

func (h *sseHub) broadcast(topic string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	evt := sseEvent{ID: h.seq, Topic: topic, Data: data}
	if len(h.history) < sseHistorySize {
		h.history = append(h.history, evt)
	} else {
		h.history[h.head] = evt
		h.head = (h.head + 1) % sseHistorySize
	}
	for s := range h.subs {
		if !s.filter.match(topic) {
			continue
		}
		select {
		case s.ch <- evt:
		default:
			// slow client, drop
		}
	}
}

// subscribe registers a subscriber and returns the remembered events after
// lastID that pass filter. Registration and the history read happen under
// one lock, so nothing is missed or delivered twice in between.
func (h *sseHub) subscribe(filter topicFilter, lastID uint64) (*sseSubscriber, []sseEvent) {
	s := &sseSubscriber{filter: filter, ch: make(chan sseEvent, sseClientBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s] = struct{}{}
	var backlog []sseEvent
	if lastID > 0 {
		for _, evt := range h.since(lastID) {
			if filter.match(evt.Topic) {
				backlog = append(backlog, evt)
			}
		}
	}
	return s, backlog
}

func (h *sseHub) unsubscribe(s *sseSubscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// since returns remembered events with an ID above lastID, oldest first.
// Callers hold h.mu.
func (h *sseHub) since(lastID uint64) []sseEvent {
	var out []sseEvent
	n := len(h.history)
	for i := range n {
		evt := h.history[(h.head+i)%n]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

// handleEventStream serves GET /api/events/stream?topics=a,b as
// server-sent events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	sub, backlog := s.hub.subscribe(parseTopicFilter(r.URL.Query().Get("topics")), lastID)
	defer s.hub.unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, evt := range backlog {
		if err := evt.writeTo(w); err != nil {
			return
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()
	for {
		var err error
		select {
		case <-r.Context().Done():
			return
		case evt := <-sub.ch:
			err = evt.writeTo(w)
		case <-keepalive.C:
			_, err = io.WriteString(w, ":keepalive\n\n")
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}
