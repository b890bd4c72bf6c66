package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/vaudio/internal/logging"
	"github.com/aretw0/vaudio/pkg/domain"
	"github.com/aretw0/vaudio/pkg/eventbus"
)

// streamBuffer is the per-client backlog before events are dropped.
const streamBuffer = 32

// Frame is one server-sent event payload.
type Frame struct {
	Kind    domain.EventKind `json:"kind"`
	Command *domain.Command  `json:"command,omitempty"`
	Message string           `json:"message,omitempty"`
	Data    map[string]any   `json:"data,omitempty"`
}

type subscriber struct {
	ch    chan Frame
	kinds map[domain.EventKind]bool
}

func (s subscriber) wants(kind domain.EventKind) bool {
	return len(s.kinds) == 0 || s.kinds[kind]
}

// StreamManager fans bus events out to SSE clients.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Frame]subscriber
	logger      *slog.Logger
}

// NewStreamManager subscribes to every event of bus.
func NewStreamManager(bus *eventbus.Bus, logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	sm := &StreamManager{
		subscribers: make(map[chan Frame]subscriber),
		logger:      logger,
	}
	if bus != nil {
		bus.SubscribeAll(func(ev domain.Event) error {
			sm.Broadcast(frameOf(ev))
			return nil
		})
	}
	return sm
}

// frameOf drops payloads that do not serialize cleanly (state pointers, content nodes).
func frameOf(ev domain.Event) Frame {
	f := Frame{Kind: ev.Kind, Command: ev.Command, Message: ev.Message}
	for k, v := range ev.Data {
		switch v.(type) {
		case string, bool, int, float64:
			if f.Data == nil {
				f.Data = make(map[string]any)
			}
			f.Data[k] = v
		}
	}
	return f
}

// Subscribe registers a client. An empty kinds list receives everything.
func (sm *StreamManager) Subscribe(kinds ...domain.EventKind) (<-chan Frame, func()) {
	sub := subscriber{ch: make(chan Frame, streamBuffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[domain.EventKind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	sm.mu.Lock()
	sm.subscribers[sub.ch] = sub
	sm.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			delete(sm.subscribers, sub.ch)
			sm.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Broadcast delivers f to every interested client without blocking.
func (sm *StreamManager) Broadcast(f Frame) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for _, sub := range sm.subscribers {
		if !sub.wants(f.Kind) {
			continue
		}
		select {
		case sub.ch <- f:
		default:
			sm.logger.Warn("sse client buffer full, dropping event", "kind", f.Kind)
		}
	}
}

// Count returns the number of connected clients.
func (sm *StreamManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// SubscribeEvents handles GET /events as a server-sent event stream.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var kinds []domain.EventKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds = append(kinds, domain.EventKind(k))
			}
		}
	}

	ch, cancel := s.Streams.Subscribe(kinds...)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected")
			return
		case f, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Kind, data)
			flusher.Flush()
		}
	}
}
