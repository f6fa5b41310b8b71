package oneshot

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess играет роль бэкенда: печатает полученные аргументы как JSON
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 3 && args[0] == "/fail" {
		fmt.Fprint(os.Stderr, "Traceback: boom")
		os.Exit(1)
	}
	if len(args) == 3 && args[0] == "/silent-fail" {
		os.Exit(2)
	}
	if len(args) == 3 && args[0] == "/text" {
		fmt.Fprint(os.Stdout, "plain output")
		os.Exit(0)
	}
	out, _ := json.Marshal(map[string]interface{}{"args": args})
	fmt.Fprint(os.Stdout, string(out))
	os.Exit(0)
}

func helperHandler(t *testing.T) *Handler {
	t.Helper()
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return New([]string{os.Args[0], "-test.run=TestHelperProcess", "--"}, "")
}

func decodeArgs(t *testing.T, body []byte) []string {
	t.Helper()
	var out struct {
		Args []string `json:"args"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Args
}

func TestHandler_PassesPathMethodBody(t *testing.T) {
	srv := httptest.NewServer(helperHandler(t))
	defer srv.Close()

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		wantBody    string
	}{
		{name: "get without body", method: http.MethodGet, path: "/abc123", wantBody: "{}"},
		{name: "json body", method: http.MethodPost, path: "/shorten", contentType: "application/json", body: `{ "url": "https://example.com" }`, wantBody: `{"url":"https://example.com"}`},
		{name: "form body", method: http.MethodPost, path: "/shorten", contentType: "application/x-www-form-urlencoded", body: "url=https%3A%2F%2Fexample.com", wantBody: `{"url":"https://example.com"}`},
		{name: "other body ignored", method: http.MethodPost, path: "/shorten", contentType: "text/plain", body: "hello", wantBody: "{}"},
		{name: "shell metacharacters stay literal", method: http.MethodGet, path: "/$(id);rm", wantBody: "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := resty.New().R()
			req.Method = tt.method
			req.URL = srv.URL + tt.path
			if tt.body != "" {
				req.SetHeader("Content-Type", tt.contentType)
				req.SetBody(tt.body)
			}
			res, err := req.Send()
			require.NoError(t, err)

			assert.Equal(t, http.StatusOK, res.StatusCode())
			assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
			args := decodeArgs(t, res.Body())
			require.Len(t, args, 3)
			assert.Equal(t, tt.path, args[0])
			assert.Equal(t, tt.method, args[1])
			assert.JSONEq(t, tt.wantBody, args[2])
		})
	}
}

func TestHandler_Failure(t *testing.T) {
	h := helperHandler(t)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Traceback: boom", rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/silent-fail", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, MsgFailed, rr.Body.String())
}

func TestHandler_PlainTextOutput(t *testing.T) {
	rr := httptest.NewRecorder()
	helperHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/text", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "plain output", rr.Body.String())
}

func TestHandler_BadRequests(t *testing.T) {
	h := helperHandler(t)
	h.BodyLimit = 8

	req := httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(`{"url":"https://example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	h.BodyLimit = 0
	req = httptest.NewRequest(http.MethodPost, "/shorten", strings.NewReader(`{"url":`))
	req.Header.Set("Content-Type", "application/json")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_MissingExecutable(t *testing.T) {
	h := New([]string{"/nonexistent/backend-binary"}, "")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, MsgFailed, rr.Body.String())

	rr = httptest.NewRecorder()
	(&Handler{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSerializeBody_RepeatedFormFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tag=a&tag=b&url=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
	got, err := serializeBody(req, DefaultBodyLimit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":["a","b"],"url":"x"}`, got)
}
