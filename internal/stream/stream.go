package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/metrics"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// clientBuffer bounds the per-client queue; publishes never block on a slow
// reader, the frame is dropped instead.
const clientBuffer = 16

const welcomeMessage = "Connected to Kudos live stream 🌈"

// Handler serves the live activity feed over server-sent events. Each
// connected client gets its own bus subscription for the lifetime of the
// request.
type Handler struct {
	bus *bus.Bus
	log *zap.Logger
}

func NewHandler(b *bus.Bus, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{bus: b, log: log}
}

// Stream handles GET /api/now/stream.
func (h *Handler) Stream(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()

	events := make(chan model.ActivityEvent, clientBuffer)
	unsubscribe := h.bus.Subscribe(bus.TopicActivity, func(ev model.ActivityEvent) {
		select {
		case events <- ev:
		default:
			h.log.Debug("stream client lagging, frame dropped",
				zap.String("kind", ev.Kind().String()))
		}
	})
	defer unsubscribe()

	if err := writeFrame(w, model.EventInfo.String(), map[string]string{"message": welcomeMessage}); err != nil {
		return nil
	}
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if err := writeFrame(w, ev.Kind().String(), ev); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeFrame(w io.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
