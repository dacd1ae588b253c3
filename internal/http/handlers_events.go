package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/target/onboard-ui/internal/errors"
	"github.com/target/onboard-ui/internal/instance"
)

const (
	defaultHeartbeat = 25 * time.Second
	eventBuffer      = 16
)

// EventHandlers streams instance changes to the browser as server-sent events.
type EventHandlers struct {
	T         *TemplateRenderer
	Heartbeat time.Duration
	Logger    *slog.Logger
}

func (h *EventHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Stream serves GET /events until the client leaves or the instance is evicted.
//
// Events: "session" (JSON user summary), "modals" (modal host HTML),
// "step" (JSON current step) and "closed".
func (h *EventHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	in, ok := InstanceFromContext(r.Context())
	if !ok {
		WriteAppError(w, apperrors.Internal("no application instance"))
		return
	}

	rc := http.NewResponseController(w)
	// the server write timeout would cut the stream
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger().DebugContext(r.Context(), "clear write deadline", "error", err)
	}

	events := make(chan instance.Event, eventBuffer)
	unsubscribe := in.Subscribe(func(e instance.Event) {
		select {
		case events <- e:
		default:
			// the next event re-renders from current state
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger().WarnContext(r.Context(), "event stream unsupported", "error", err)
		return
	}

	beat := h.Heartbeat
	if beat <= 0 {
		beat = defaultHeartbeat
	}
	ticker := time.NewTicker(beat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
		case e := <-events:
			data, err := h.payload(r, in, e.Kind)
			if err != nil {
				h.logger().ErrorContext(r.Context(), "render event", "event", e.Kind, "error", err)
				continue
			}
			if err := writeEvent(w, string(e.Kind), data); err != nil {
				return
			}
			if e.Kind == instance.EventClosed {
				_ = rc.Flush()
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

type sessionEvent struct {
	SignedIn    bool   `json:"signedIn"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type stepEvent struct {
	Mounted  bool   `json:"mounted"`
	Step     string `json:"step,omitempty"`
	Complete bool   `json:"complete"`
}

func (h *EventHandlers) payload(r *http.Request, in *instance.Instance, kind instance.EventKind) (string, error) {
	switch kind {
	case instance.EventModals:
		return h.T.RenderString("modal-host", hostData(r, in))
	case instance.EventSession:
		ev := sessionEvent{}
		if u := in.Session.Get().User; u != nil {
			ev = sessionEvent{SignedIn: true, DisplayName: u.DisplayName(), AvatarURL: u.AvatarURL()}
		}
		return marshalString(ev)
	case instance.EventStep:
		ev := stepEvent{}
		if c, ok := in.Setup(); ok {
			ev = stepEvent{Mounted: true, Step: string(c.CurrentStep()), Complete: c.IsComplete()}
		}
		return marshalString(ev)
	default:
		return "{}", nil
	}
}

func marshalString(v any) (string, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

// writeEvent frames data as one SSE event; each line gets its own data field.
func writeEvent(w io.Writer, name, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", name)
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimRight(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
