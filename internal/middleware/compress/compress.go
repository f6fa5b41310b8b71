package compress

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/issafronov/shortener-front/internal/middleware/logger"
	"go.uber.org/zap"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// compressWriter сжимает ответ, только если бэкенд не закодировал его сам
type compressWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
	compressing bool
}

func newCompressWriter(w http.ResponseWriter) *compressWriter {
	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(w)
	return &compressWriter{
		w:  w,
		zw: zw,
	}
}

func (c *compressWriter) Header() http.Header {
	return c.w.Header()
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.compressing {
		return c.zw.Write(p)
	}
	return c.w.Write(p)
}

func (c *compressWriter) WriteHeader(statusCode int) {
	if statusCode < 200 {
		c.w.WriteHeader(statusCode)
		return
	}
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	h := c.w.Header()
	if statusCode < 300 && statusCode != http.StatusNoContent && h.Get("Content-Encoding") == "" {
		c.compressing = true
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")
		h.Add("Vary", "Accept-Encoding")
	}
	c.w.WriteHeader(statusCode)
}

// Flush сбрасывает сжатые данные клиенту для потоковых ответов
func (c *compressWriter) Flush() {
	if c.compressing {
		_ = c.zw.Flush()
	}
	_ = http.NewResponseController(c.w).Flush()
}

func (c *compressWriter) Close() error {
	var err error
	if c.compressing {
		err = c.zw.Close()
	}
	c.zw.Reset(io.Discard) // очистка, чтобы избежать утечек
	gzipWriterPool.Put(c.zw)
	return err
}

type compressReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

func newCompressReader(r io.ReadCloser) (*compressReader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &compressReader{r: r, zr: zr}, nil
}

func (c *compressReader) Read(p []byte) (int, error) {
	return c.zr.Read(p)
}

func (c *compressReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// GzipMiddleware сжимает ответы для клиентов с Accept-Encoding: gzip и
// распаковывает сжатые тела запросов. Запросы на смену протокола
// (websocket) проходят без изменений.
func GzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}

		ow := w

		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			cw := newCompressWriter(w)
			ow = cw
			defer cw.Close()
			// бэкенд не должен сжимать сам: иначе ответ уйдёт как есть
			r.Header.Del("Accept-Encoding")
		}

		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			cr, err := newCompressReader(r.Body)
			if err != nil {
				logger.Log.Info("failed to read gzip body", zap.Error(err))
				http.Error(w, "Failed to read gzip body", http.StatusBadRequest)
				return
			}
			r.Body = cr
			r.Header.Del("Content-Encoding")
			r.Header.Del("Content-Length")
			r.ContentLength = -1
			defer cr.Close()
		}

		next.ServeHTTP(ow, r)
	})
}
