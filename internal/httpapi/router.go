package httpapi

import (
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go1090/internal/registry"
)

//go:embed static
var embeddedFS embed.FS

var staticFS = mustSub(embeddedFS, "static")

func mustSub(f embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(f, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Server is the HTTP network service of spec.md §4.8/§4.9, backed by
// a chi router (grounded on
// _examples/plane-watch-acars-parser/internal/api/enrichment.go's
// Run/chi.NewRouter wiring).
type Server struct {
	reg       *registry.Registry
	version   string
	homeLat   float64
	homeLon   float64
	hasHome   bool
	history   int
	refreshMS int

	messages uint64

	router chi.Router
}

// NewServer builds the HTTP surface. version is reported on
// /data/receiver.json; homeLat/homeLon/hasHome populate the receiver's
// configured location when set.
func NewServer(reg *registry.Registry, version string, homeLat, homeLon float64, hasHome bool) *Server {
	s := &Server{
		reg:       reg,
		version:   version,
		homeLat:   homeLat,
		homeLon:   homeLon,
		hasHome:   hasHome,
		history:   120,
		refreshMS: 1000,
	}
	s.router = s.buildRouter()
	return s
}

// CountMessage increments the total-messages counter reported in the
// extended snapshot shape; the application calls it once per message the
// demodulator returns.
func (s *Server) CountMessage() {
	atomic.AddUint64(&s.messages, 1)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.GetHead)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/index.html", http.StatusMovedPermanently)
	})
	r.Get("/data.json", s.handleLegacyArray)
	r.Get("/data/aircraft.json", s.handleAircraftSnapshot)
	r.Get("/data/receiver.json", s.handleReceiverInfo)
	r.Get("/favicon.ico", s.handleStatic)
	r.Get("/favicon.png", s.handleStatic)
	r.Get("/*", s.handleStatic)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "method not allowed", http.StatusBadRequest)
	})
	return r
}

func (s *Server) handleLegacyArray(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, BuildLegacyArray(s.reg, time.Now()))
}

func (s *Server) handleAircraftSnapshot(w http.ResponseWriter, r *http.Request) {
	total := int(atomic.LoadUint64(&s.messages))
	writeJSON(w, BuildSnapshot(s.reg, total, time.Now()))
}

func (s *Server) handleReceiverInfo(w http.ResponseWriter, r *http.Request) {
	info := ReceiverInfo{
		Version:   s.version,
		RefreshMS: s.refreshMS,
		History:   s.history,
	}
	if s.hasHome {
		info.Lat = s.homeLat
		info.Lon = s.homeLon
	}
	writeJSON(w, info)
}

// handleStatic serves the embedded static/ directory, falling back to
// a 404 for unknown paths (spec.md §6's "static dir or embed.FS
// fallback, 404 otherwise").
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	http.FileServer(http.FS(staticFS)).ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
