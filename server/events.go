package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"zenwriter/composer"
)

type event struct {
	Name string
	Data any
}

// eventBuffer bounds how far a slow client may fall behind before events
// are dropped. Observers run under the controller lock and never block.
const eventBuffer = 256

const heartbeatInterval = 15 * time.Second

// subscribe bridges controller notifications into a channel.
func subscribe(ctrl *composer.Controller, log *zap.Logger) (<-chan event, func()) {
	ch := make(chan event, eventBuffer)
	send := func(e event) {
		select {
		case ch <- e:
		default:
			log.Warn("event dropped", zap.String("event", e.Name))
		}
	}
	unsubscribe := ctrl.Subscribe(composer.Observer{
		OnBufferChanged: func(text string) {
			send(event{Name: "buffer", Data: map[string]string{"text": text}})
		},
		OnAppended: func(fragment string) {
			send(event{Name: "appended", Data: map[string]string{"fragment": fragment}})
		},
		OnSelectionChanged: func(sel *composer.Selection) {
			send(event{Name: "selection", Data: map[string]*composer.Selection{"selection": sel}})
		},
		OnGenerationStateChanged: func(active bool) {
			send(event{Name: "generation", Data: map[string]bool{"active": active}})
		},
		OnSaved: func(at time.Time) {
			send(event{Name: "saved", Data: map[string]time.Time{"saved_at": at}})
		},
		OnError: func(err error) {
			send(event{Name: "error", Data: errorResp{Error: err.Error()}})
		},
	})
	return ch, unsubscribe
}

// handleEvents streams observer notifications as server-sent events until the
// client goes away.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.document(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := subscribe(ctrl, s.log.With(zap.String("document", id)))
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	writeEvent(w, event{Name: "state", Data: snapshot(id, ctrl)})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-events:
			writeEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			// a connected client keeps its document open
			s.docs.touch(id)
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e event) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, data)
}
