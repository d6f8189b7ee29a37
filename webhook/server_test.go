package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	transcript string
	status     string
	err        error
	calls      int
}

func (h *recordingHandler) HandleCallResult(_ context.Context, transcript, status string) error {
	h.calls++
	h.transcript = transcript
	h.status = status
	return h.err
}

type fakeTrigger struct {
	calls int
	err   error
}

func (f *fakeTrigger) Trigger(_ context.Context) error {
	f.calls++
	return f.err
}

func newTestServer(h CallResultHandler, tr CycleTrigger) http.Handler {
	return New(":0", h, tr, zerolog.Nop()).httpSrv.Handler
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&recordingHandler{}, nil).ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestCallResultDelivered(t *testing.T) {
	h := &recordingHandler{}
	rec := httptest.NewRecorder()
	body := `{"transcript": "yes, I want bitcoin", "status": "completed"}`
	newTestServer(h, nil).ServeHTTP(rec, httptest.NewRequest("POST", "/webhook/voice", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.calls)
	assert.Equal(t, "yes, I want bitcoin", h.transcript)
	assert.Equal(t, "completed", h.status)
	assert.Contains(t, rec.Body.String(), "success")
}

func TestCallResultInvalidJSON(t *testing.T) {
	h := &recordingHandler{}
	rec := httptest.NewRecorder()
	newTestServer(h, nil).ServeHTTP(rec, httptest.NewRequest("POST", "/webhook/voice", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.calls)
}

func TestCallResultHandlerErrorStillAcknowledged(t *testing.T) {
	h := &recordingHandler{err: errors.New("no active session")}
	rec := httptest.NewRecorder()
	body := `{"transcript": "", "status": "completed"}`
	newTestServer(h, nil).ServeHTTP(rec, httptest.NewRequest("POST", "/webhook/voice", strings.NewReader(body)))

	// The provider should not retry; errors are reported in the body.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestManualCheck(t *testing.T) {
	tr := &fakeTrigger{}
	rec := httptest.NewRecorder()
	newTestServer(&recordingHandler{}, tr).ServeHTTP(rec, httptest.NewRequest("POST", "/check", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, tr.calls)
}

func TestManualCheckDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&recordingHandler{}, nil).ServeHTTP(rec, httptest.NewRequest("POST", "/check", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
