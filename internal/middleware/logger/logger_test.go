package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	encoderCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encoderCfg)
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zap.DebugLevel)
	Log = zap.New(core)
	defer func() { Log = zap.NewNop() }()

	handlerCalled := false
	var seenID string
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot) // 418
		w.Write([]byte("short"))
	})

	reqLogger := RequestLogger(testHandler)

	req := httptest.NewRequest(http.MethodGet, "/test-url", nil)
	rr := httptest.NewRecorder()

	reqLogger.ServeHTTP(rr, req)

	if !handlerCalled {
		t.Fatal("Handler was not called")
	}

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body, _ := io.ReadAll(rr.Body)
	if string(body) != "short" {
		t.Errorf("Expected body 'short', got '%s'", string(body))
	}

	logOutput := buf.String()
	assert.Contains(t, logOutput, `"status":418`)
	assert.Contains(t, logOutput, `"uri":"/test-url"`)
	require.NotEmpty(t, seenID)
	assert.Contains(t, logOutput, seenID)
}

func TestRequestLogger_KeepsIncomingRequestID(t *testing.T) {
	var header, fromCtx string
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get(RequestIDHeader)
		fromCtx = RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/shorten", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc-123", header)
	assert.Equal(t, "abc-123", fromCtx)
}

func TestRequestLogger_ImplicitStatusAndUnwrap(t *testing.T) {
	var inner http.ResponseWriter
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = w
		w.Write([]byte("ok"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	lw, ok := inner.(*loggingResponseWriter)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, lw.responseData.status)
	assert.Equal(t, 2, lw.responseData.size)
	assert.Same(t, rr, lw.Unwrap())
}

func TestInitialize(t *testing.T) {
	defer func() { Log = zap.NewNop() }()
	require.NoError(t, Initialize("debug"))
	assert.True(t, Log.Core().Enabled(zap.DebugLevel))
	assert.Error(t, Initialize("loud"))
}
