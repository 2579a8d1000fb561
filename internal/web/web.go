package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"icsagenda/internal/app"
	"icsagenda/internal/config"
	appLog "icsagenda/internal/log"
	"icsagenda/internal/model"
)

// documentCacheTTL bounds how often a browser refresh can trigger a full
// fetch/parse/render cycle.
const documentCacheTTL = 30 * time.Second

// Server serves the rendered agenda document and a small JSON API.
type Server struct {
	cfg    *config.Config
	app    *app.App
	router *mux.Router

	mu    sync.RWMutex
	cache *docCache
}

type docCache struct {
	doc       string
	events    []model.Event
	stats     app.Stats
	updatedAt time.Time
}

// NewServer constructs a Server around an already-validated pipeline.
func NewServer(cfg *config.Config, a *app.App) *Server {
	s := &Server{
		cfg:    cfg,
		app:    a,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe binds to cfg.Listen and serves until the listener fails.
func (s *Server) ListenAndServe() error {
	appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) routes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/agenda.png", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/", s.handleDocument).Methods(http.MethodGet)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleDocument serves the rendered HTML agenda, regenerating it through
// the pipeline at most once per documentCacheTTL.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	c, err := s.refresh(r.Context())
	if err != nil {
		appLog.Error("document render failed", err)
		http.Error(w, "failed to build document", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(c.doc))
}

// eventDTO is the JSON view of a filtered, sorted event.
type eventDTO struct {
	UID         string     `json:"uid,omitempty"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
}

type eventsResponse struct {
	Events          []eventDTO `json:"events"`
	Considered      int        `json:"considered"`
	Retained        int        `json:"retained"`
	DisplayTimeZone string     `json:"display_timezone"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	c, err := s.refresh(r.Context())
	if err != nil {
		appLog.Error("events pipeline failed", err)
		writeError(w, http.StatusBadGateway, "failed to load events")
		return
	}

	dtos := make([]eventDTO, 0, len(c.events))
	for _, ev := range c.events {
		dtos = append(dtos, eventDTO{
			UID:         ev.UID,
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       ev.Start,
			End:         ev.End,
		})
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events:          dtos,
		Considered:      c.stats.Considered,
		Retained:        c.stats.Retained,
		DisplayTimeZone: s.app.Location().String(),
	})
}

// handleSnapshot serves the last PNG snapshot written by the capture step,
// when one is configured.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.cfg.PNGPath == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, s.cfg.PNGPath)
}

// refresh returns the cached pipeline result, running the pipeline when
// the cache is stale or empty.
func (s *Server) refresh(ctx context.Context) (*docCache, error) {
	now := time.Now()

	s.mu.RLock()
	c := s.cache
	s.mu.RUnlock()
	if c != nil && now.Sub(c.updatedAt) < documentCacheTTL {
		return c, nil
	}

	events, stats, err := s.app.Events(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.app.RenderDocument(events)
	if err != nil {
		return nil, err
	}

	fresh := &docCache{
		doc:       doc,
		events:    events,
		stats:     stats,
		updatedAt: time.Now(),
	}
	s.mu.Lock()
	s.cache = fresh
	s.mu.Unlock()
	return fresh, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
