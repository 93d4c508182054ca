package web

import (
	"encoding/json"
	"net/http"

	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
)

// Response wraps every JSON payload the API returns.
type Response[T any] struct {
	Data T    `json:"data"`
	Meta Meta `json:"meta"`
}

type Meta struct {
	Ticker string `json:"ticker,omitempty"`
	Expiry string `json:"expiry,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// Analysis is the JSON summary of one pipeline run. The export and chart
// bodies are served separately from the store.
type Analysis struct {
	ID           string        `json:"id"`
	Quote        data.Quote    `json:"quote"`
	CallClusters int           `json:"call_clusters"`
	PutClusters  int           `json:"put_clusters"`
	Calls        []cluster.Leg `json:"calls"`
	Puts         []cluster.Leg `json:"puts"`
	ExportName   string        `json:"export_name"`
	ExportURL    string        `json:"export_url"`
	ChartName    string        `json:"chart_name"`
	ChartURL     string        `json:"chart_url"`
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
