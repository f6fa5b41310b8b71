// Package oneshot обслуживает каждый запрос отдельным короткоживущим
// процессом: путь, метод и тело запроса передаются аргументами команды,
// а её вывод возвращается клиенту.
//
// Режим оставлен для совместимости со старым интерфейсом бэкенда. У процесса
// нет тёплого состояния, поэтому основной режим: постоянный бэкенд за proxy.
package oneshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os/exec"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

// DefaultBodyLimit предельный размер тела запроса
const DefaultBodyLimit = 1 << 20

// MsgFailed тело ответа, если процесс упал без вывода в stderr
const MsgFailed = "Internal Server Error - backend invocation failed"

var (
	errTooLarge    = errors.New("request body too large")
	errInvalidJSON = errors.New("invalid JSON body")
)

// Handler запускает Command для каждого запроса
type Handler struct {
	Command   []string
	Dir       string
	BodyLimit int64
}

// New создаёт обработчик с лимитом тела по умолчанию
func New(command []string, dir string) *Handler {
	return &Handler{Command: command, Dir: dir, BodyLimit: DefaultBodyLimit}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if len(h.Command) == 0 {
		http.Error(w, MsgFailed, http.StatusInternalServerError)
		return
	}

	body, err := serializeBody(r, h.limit())
	switch {
	case errors.Is(err, errTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// аргументы передаются напрямую через argv, без shell
	args := append(append([]string{}, h.Command[1:]...), r.URL.Path, r.Method, body)
	cmd := exec.CommandContext(r.Context(), h.Command[0], args...)
	cmd.Dir = h.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Log.Error("backend invocation failed",
			zap.String("request_id", logger.RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("stderr", stderr.String()),
			zap.Error(err))
		out := stderr.Bytes()
		if len(bytes.TrimSpace(out)) == 0 {
			out = []byte(MsgFailed)
		}
		writeOutput(w, http.StatusInternalServerError, out)
		return
	}
	if stderr.Len() > 0 {
		logger.Log.Warn("backend invocation wrote to stderr",
			zap.String("path", r.URL.Path),
			zap.String("stderr", stderr.String()))
	}
	writeOutput(w, http.StatusOK, stdout.Bytes())
}

func (h *Handler) limit() int64 {
	if h.BodyLimit > 0 {
		return h.BodyLimit
	}
	return DefaultBodyLimit
}

func writeOutput(w http.ResponseWriter, status int, out []byte) {
	if json.Valid(out) {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(status)
	w.Write(out)
}

// serializeBody превращает тело запроса в JSON-объект: JSON передаётся
// как есть, форма становится объектом полей, остальное превращается в {}
func serializeBody(r *http.Request, limit int64) (string, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "{}", nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > limit {
		return "", errTooLarge
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		if len(bytes.TrimSpace(raw)) == 0 {
			return "{}", nil
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return "", errInvalidJSON
		}
		return compact.String(), nil
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return "", err
		}
		fields := make(map[string]interface{}, len(values))
		for k, v := range values {
			if len(v) == 1 {
				fields[k] = v[0]
			} else {
				fields[k] = v
			}
		}
		out, err := json.Marshal(fields)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return "{}", nil
	}
}
