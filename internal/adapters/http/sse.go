package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/livingsystems/orient/internal/domain"
)

type sseTextFrame struct {
	Text string `json:"text"`
}

type sseDoneFrame struct {
	Done bool `json:"done"`
}

type sseErrorFrame struct {
	Error string `json:"error"`
}

// streamSSE forwards a reply stream to the client as server-sent events.
// Frames are `data: {"text":...}` per fragment, then a single terminal
// `data: {"done":true}` or `data: {"error":...}`.
func streamSSE(w http.ResponseWriter, r *http.Request, stream <-chan domain.StreamEvent) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, canFlush := w.(http.Flusher)

	writeFrame := func(v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		if canFlush {
			flusher.Flush()
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-stream:
			if !ok {
				return
			}
			switch {
			case ev.Err != nil:
				writeFrame(sseErrorFrame{Error: ev.Err.Error()})
				return
			case ev.Done:
				writeFrame(sseDoneFrame{Done: true})
				return
			default:
				writeFrame(sseTextFrame{Text: ev.Text})
			}
		}
	}
}
