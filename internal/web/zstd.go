package web

import (
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/contactkeval/oi-clusters/internal/logger"
)

// zstdResponseWriter holds back the status line until the first body write,
// so a response without a body goes out without a zstd frame or header.
type zstdResponseWriter struct {
	http.ResponseWriter
	encoder *zstd.Encoder
	status  int
	started bool
}

func (w *zstdResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *zstdResponseWriter) Write(b []byte) (int, error) {
	if !w.started {
		w.start()
	}
	if w.encoder == nil {
		return w.ResponseWriter.Write(b)
	}
	return w.encoder.Write(b)
}

func (w *zstdResponseWriter) start() {
	w.started = true
	if w.status == 0 {
		w.status = http.StatusOK
	}

	encoder, err := zstd.NewWriter(w.ResponseWriter)
	if err != nil {
		logger.Errorf("zstd encoder: %v, sending uncompressed", err)
		w.ResponseWriter.WriteHeader(w.status)
		return
	}
	w.encoder = encoder

	h := w.Header()
	h.Set("Content-Encoding", "zstd")
	h.Add("Vary", "Accept-Encoding")
	// the handler's length describes the uncompressed body
	h.Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
}

// finish flushes the zstd frame, or sends the bare status when nothing was written.
func (w *zstdResponseWriter) finish() error {
	if w.encoder != nil {
		return w.encoder.Close()
	}
	if !w.started && w.status != 0 {
		w.ResponseWriter.WriteHeader(w.status)
	}
	return nil
}

// ZstdMiddleware compresses response bodies with zstd when the client lists
// it in Accept-Encoding. Other clients get the handler's output unchanged.
func ZstdMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "zstd") {
			next.ServeHTTP(w, r)
			return
		}

		zw := &zstdResponseWriter{ResponseWriter: w}
		defer zw.finish()

		next.ServeHTTP(zw, r)
	})
}
