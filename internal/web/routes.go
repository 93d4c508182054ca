package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

type apiRoute struct {
	Version string // "v1"
	Path    string
	Method  string
	Handler http.HandlerFunc
}

func (s *Server) registerRoutes() []apiRoute {
	return []apiRoute{

		// ---------- V1 ----------
		{
			Version: "v1",
			Path:    "/expirations",
			Method:  http.MethodGet,
			Handler: s.handleExpirations,
		},
		{
			Version: "v1",
			Path:    "/analyze",
			Method:  http.MethodGet,
			Handler: s.handleAnalyze,
		},
		{
			Version: "v1",
			Path:    "/exports/{id}",
			Method:  http.MethodGet,
			Handler: s.handleExport,
		},
		{
			Version: "v1",
			Path:    "/charts/{id}",
			Method:  http.MethodGet,
			Handler: s.handleChart,
		},
	}
}

func (s *Server) serveRoutes(router *mux.Router) {
	router.HandleFunc("/", handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	versions := map[string]*mux.Router{}
	for _, r := range s.registerRoutes() {
		api, ok := versions[r.Version]
		if !ok {
			api = router.PathPrefix("/api/" + r.Version).Subrouter()
			versions[r.Version] = api
		}
		api.HandleFunc(r.Path, r.Handler).Methods(r.Method)
	}
}
