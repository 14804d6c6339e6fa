package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"workcal/internal/log"
)

// streamKeepAlive is how often an idle event stream sends a comment line.
var streamKeepAlive = 25 * time.Second

// handleDayStream pushes the rendered day list as a server-sent event each
// time the day's appointments change. The first event carries the current list.
func (s *Server) handleDayStream(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.observer == nil {
		ErrorResponse(http.StatusServiceUnavailable, "Live updates unavailable").Write(w)
		return
	}
	d, err := ParseDateParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	ctx := r.Context()
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Streaming not supported", log.FieldError, err)
		return
	}

	updates := s.observer.ObserveByDate(ctx, d)
	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopStreams:
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		case list, ok := <-updates:
			if !ok {
				return
			}
			html, err := s.execute(ctx, "day_list", newDayView(d, list))
			if err != nil {
				return
			}
			if err := writeEvent(w, "day", html); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// writeEvent writes one SSE event, splitting data over several lines.
func writeEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
