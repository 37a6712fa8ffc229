package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"playcafe/internal/metrics"
	"playcafe/internal/service"
)

const (
	streamBuffer    = 64
	streamHeartbeat = 25 * time.Second
)

// handleStream pushes booking changes for the owner's cafés as Server-Sent
// Events. ?cafe_id= narrows the stream to one owned café.
func (s *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.svc.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "stream unavailable")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	cafes, err := s.svc.Cafes.ListOwned(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	cafeIDs := make([]string, 0, len(cafes))
	for _, c := range cafes {
		cafeIDs = append(cafeIDs, c.ID)
	}
	if only := r.URL.Query().Get("cafe_id"); only != "" {
		if !contains(cafeIDs, only) {
			writeServiceError(w, s.logger, service.ErrForbidden)
			return
		}
		cafeIDs = []string{only}
	}

	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	sub := s.svc.Hub.Subscribe(cafeIDs, streamBuffer)
	defer sub.Close()
	metrics.StreamConnected(1)
	defer metrics.StreamConnected(-1)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ready, _ := json.Marshal(map[string]any{"cafe_ids": cafeIDs})
	fmt.Fprintf(w, "event: ready\ndata: %s\n\n", ready)
	flusher.Flush()

	log := s.logger.With().Str("request_id", requestIDFrom(r.Context())).Str("owner_id", ownerID(r)).Logger()
	log.Debug().Int("cafes", len(cafeIDs)).Msg("Stream opened")

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Int64("dropped", sub.Dropped()).Msg("Stream closed")
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case change, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				log.Error().Err(err).Str("booking_id", change.BookingID()).Msg("Failed to encode change")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", change.Type, data)
			flusher.Flush()
		}
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
