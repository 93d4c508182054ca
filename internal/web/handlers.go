package web

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
	"github.com/contactkeval/oi-clusters/internal/logger"
	"github.com/contactkeval/oi-clusters/internal/pipeline"
)

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleExpirations(w http.ResponseWriter, r *http.Request) {
	ticker := data.NormalizeTicker(r.URL.Query().Get("ticker"))

	expiries, err := s.pipeline.Expirations(r.Context(), ticker)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response[[]string]{
		Data: expiries,
		Meta: Meta{Ticker: ticker, Count: len(expiries)},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := pipeline.Request{
		Ticker: data.NormalizeTicker(q.Get("ticker")),
		Expiry: q.Get("expiry"),
	}

	res, err := s.pipeline.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	id := s.store.put(res)
	logger.Debugf("stored analysis %s for %s exp=%s", id, req.Ticker, req.Expiry)

	writeJSON(w, http.StatusOK, Response[Analysis]{
		Data: Analysis{
			ID:           id,
			Quote:        res.Quote,
			CallClusters: cluster.Count(res.Calls),
			PutClusters:  cluster.Count(res.Puts),
			Calls:        res.Calls,
			Puts:         res.Puts,
			ExportName:   res.ExportName,
			ExportURL:    "/api/v1/exports/" + id,
			ChartName:    res.ChartName,
			ChartURL:     "/api/v1/charts/" + id,
		},
		Meta: Meta{Ticker: res.Quote.Ticker, Expiry: res.Quote.Expiry, Count: len(res.Rows)},
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.store.get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "analysis not found or expired"})
		return
	}
	serveFile(w, "text/csv; charset=utf-8", "attachment", res.ExportName, res.Export)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	res, ok := s.store.get(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "analysis not found or expired"})
		return
	}
	serveFile(w, res.ChartType.ContentType(), "inline", res.ChartName, res.Chart)
}

func serveFile(w http.ResponseWriter, contentType, disposition, name string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	// ZstdMiddleware drops this when it compresses
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrDataUnavailable), errors.Is(err, pipeline.ErrPriceUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}
