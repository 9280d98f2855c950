package api

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strconv"

	"github.com/displayhub/displayhub/internal/authority"
	"github.com/displayhub/displayhub/internal/config"
	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/logger"
	"github.com/displayhub/displayhub/internal/registry"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/image/draw"
)

// Server exposes the display registry over HTTP.
type Server struct {
	router    *mux.Router
	reg       *registry.Registry
	hub       *registry.Hub
	auth      authority.Authority
	configMgr *config.Manager
	upgrader  websocket.Upgrader
}

// displayPayload is the wire form of one display.
type displayPayload struct {
	display.Info
	Valid bool `json:"valid"`
}

func payload(d *display.Display) displayPayload {
	return displayPayload{Info: d.Info(), Valid: d.IsValid()}
}

// NewServer creates a new API server
func NewServer(reg *registry.Registry, hub *registry.Hub, auth authority.Authority, configMgr *config.Manager) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		reg:       reg,
		hub:       hub,
		auth:      auth,
		configMgr: configMgr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/displays", s.handleGetDisplays).Methods("GET")
	api.HandleFunc("/displays/{id:[0-9]+}", s.handleGetDisplay).Methods("GET")
	api.HandleFunc("/displays/{id:[0-9]+}/snapshot", s.handleSnapshot).Methods("GET")

	api.HandleFunc("/events", s.handleEventStream)

	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the server's HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start starts the HTTP server
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.WithComponent("api").Info().
		Str("addr", addr).
		Msg("Starting HTTP server")
	return http.ListenAndServe(addr, s.Handler())
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// HTTP Handlers

func (s *Server) handleGetDisplays(w http.ResponseWriter, r *http.Request) {
	displays := s.reg.GetDisplays()

	out := make([]displayPayload, 0, len(displays))
	for _, d := range displays {
		out = append(out, payload(d))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleGetDisplay(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid display id", http.StatusBadRequest)
		return
	}

	d, ok := s.reg.GetDisplay(id)
	if !ok {
		http.Error(w, "no such display", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload(d))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid display id", http.StatusBadRequest)
		return
	}

	snap, ok := s.auth.(authority.Snapshotter)
	if !ok {
		http.Error(w, "snapshots not supported by this authority", http.StatusNotImplemented)
		return
	}

	img, err := snap.CaptureDisplay(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	maxWidth := 640
	if v := r.URL.Query().Get("width"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxWidth = n
		}
	}

	img = scaleToWidth(img, maxWidth)

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		logger.WithComponent("api").Warn().
			Err(err).
			Int("display_id", id).
			Msg("Failed to encode snapshot")
	}
}

// scaleToWidth downscales the image to at most maxWidth, preserving the
// aspect ratio. Images already narrow enough pass through.
func scaleToWidth(img image.Image, maxWidth int) image.Image {
	bounds := img.Bounds()
	if bounds.Dx() <= maxWidth {
		return img
	}

	h := bounds.Dy() * maxWidth / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.configMgr.Get())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
