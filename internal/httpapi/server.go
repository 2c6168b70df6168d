// Package httpapi serves the dashboard page and its small control API.
package httpapi

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log"
	"net/http"

	"WeatherDeck/internal/dashboard"
	"WeatherDeck/internal/model"
	"WeatherDeck/internal/realtime"
	"WeatherDeck/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFS embed.FS

// Server wires the state cell, the refresher, and the realtime hub behind an
// HTTP surface. All reads go through immutable snapshots; the only mutations
// are refresh and unit-toggle signals forwarded to the refresher.
type Server struct {
	cell      *dashboard.StateCell
	refresher *dashboard.Refresher
	hub       *realtime.Hub
	renderer  *view.Renderer

	title        string
	locationName string
	mapImageURL  string
}

func NewServer(cell *dashboard.StateCell, refresher *dashboard.Refresher, hub *realtime.Hub, title, locationName, mapImageURL string) (*Server, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		cell:      cell,
		refresher: refresher,
		hub:       hub,
		renderer:  renderer,

		title:        title,
		locationName: locationName,
		mapImageURL:  mapImageURL,
	}, nil
}

// Router builds the chi router with the full route set.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handlePage)
	r.Post("/refresh", s.handleRefreshForm)
	r.Post("/units/{units}", s.handleUnitsForm)

	r.Route("/api", func(r chi.Router) {
		r.Get("/forecast", s.handleForecast)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/units/{units}", s.handleUnits)
	})

	r.Get("/ws", s.hub.ServeHTTP)
	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	return r
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state, _ := s.cell.Snapshot()
	lastErr, _ := s.cell.LastError()
	page := view.BuildPage(s.title, s.locationName, s.mapImageURL, s.refresher.Request().Units, state, lastErr)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, page); err != nil {
		log.Printf("[ERROR] render page: %v", err)
	}
}

// handleForecast exposes the current snapshot as JSON, for anything that
// wants the normalized data without the page around it.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	state, ok := s.cell.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no forecast data yet")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refresher.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) handleRefreshForm(w http.ResponseWriter, r *http.Request) {
	s.refresher.Trigger()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	u, err := model.ParseUnitSystem(chi.URLParam(r, "units"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.refresher.SetUnits(u)
	writeJSON(w, http.StatusAccepted, map[string]string{"units": string(u)})
}

func (s *Server) handleUnitsForm(w http.ResponseWriter, r *http.Request) {
	u, err := model.ParseUnitSystem(chi.URLParam(r, "units"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.refresher.SetUnits(u)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	_, hasState := s.cell.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"has_state":  hasState,
		"ws_clients": s.hub.ClientCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
