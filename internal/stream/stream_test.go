package stream

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geekodo/kudos-portal/internal/bus"
	"github.com/geekodo/kudos-portal/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// syncRecorder is a ResponseWriter safe to inspect while the handler is
// still writing from its own goroutine.
type syncRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{header: http.Header{}}
}

func (r *syncRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *syncRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = code
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func (r *syncRecorder) statusCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func TestStreamDeliversFrames(t *testing.T) {
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/now/stream", nil).WithContext(ctx)
	rec := newSyncRecorder()
	c := e.NewContext(req, rec)

	b := bus.New(zap.NewNop())
	h := NewHandler(b, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	require.Eventually(t, func() bool {
		return strings.Contains(rec.String(), "event: info")
	}, time.Second, 5*time.Millisecond, "welcome frame not sent")

	ev, err := model.NewKudosEvent("frida", "otto", "Teamwork", "",
		"https://kudos.example.com/kudos/abc123", time.Now())
	require.NoError(t, err)
	b.Publish(bus.TopicActivity, ev)

	require.Eventually(t, func() bool {
		return strings.Contains(rec.String(), "event: kudos")
	}, time.Second, 5*time.Millisecond, "kudos frame not sent")

	cancel()
	require.NoError(t, <-done)

	body := rec.String()
	assert.Equal(t, http.StatusOK, rec.statusCode())
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, body, `data: {"message":"Connected to Kudos live stream 🌈"}`+"\n\n")
	assert.Contains(t, body, `"from":"frida"`)
	assert.Contains(t, body, `"to":"otto"`)
}

func TestStreamUnsubscribesOnDisconnect(t *testing.T) {
	e := echo.New()
	ctx, cancel := context.WithCancel(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/api/now/stream", nil).WithContext(ctx)
	rec := newSyncRecorder()
	c := e.NewContext(req, rec)

	b := bus.New(zap.NewNop())
	h := NewHandler(b, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	require.Eventually(t, func() bool {
		return strings.Contains(rec.String(), "event: info")
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	before := rec.String()

	ev, err := model.NewFollowEvent("frida", "otto", "")
	require.NoError(t, err)
	b.Publish(bus.TopicActivity, ev)

	assert.Equal(t, before, rec.String(), "disconnected client must receive nothing")
}

func TestWriteFrameFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, "badge", map[string]string{"badgeTitle": "First Kudos"})
	require.NoError(t, err)
	assert.Equal(t, "event: badge\ndata: {\"badgeTitle\":\"First Kudos\"}\n\n", buf.String())
}
