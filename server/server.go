package server

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"trackviz/cache"
	"trackviz/core/chart"
	"trackviz/core/dataset"
	"trackviz/logger"
	"trackviz/storage"
)

//go:embed web/index.html
var webFS embed.FS

var indexTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

const (
	sessionTTL    = 30 * time.Minute
	sweepInterval = 5 * time.Minute
)

// Options carries the server's collaborators. Cache, Snapshots and Tokens are
// optional.
type Options struct {
	Store     *dataset.Store
	Cache     cache.ChartCache
	Snapshots storage.SnapshotStore
	Tokens    *TokenSigner
}

// Server serves the charts, the command endpoint and the reload feed.
type Server struct {
	store     *dataset.Store
	cache     cache.ChartCache
	snapshots storage.SnapshotStore
	tokens    *TokenSigner

	sessions *SessionManager
	hub      *Hub
	router   *mux.Router
}

// New builds the router and starts the websocket hub. Call Close when done.
func New(opts Options) *Server {
	s := &Server{
		store:     opts.Store,
		cache:     opts.Cache,
		snapshots: opts.Snapshots,
		tokens:    opts.Tokens,
		sessions:  NewSessionManager(opts.Store, sessionTTL),
		hub:       NewHub(),
	}
	go s.hub.Run()

	opts.Store.OnReload(func(snap *dataset.Snapshot) {
		err := s.hub.BroadcastJSON(DatasetMessage{Type: "dataset", Version: snap.Version, Tracks: len(snap.Tracks)})
		if err != nil {
			logger.Warn("failed to broadcast reload", logger.ErrorField(err))
		}
	})

	s.routes()
	return s
}

func (s *Server) routes() {
	router := mux.NewRouter()
	router.Use(corsMiddleware, logMiddleware)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tracks", s.handleTracks).Methods(http.MethodGet)
	api.HandleFunc("/commands", s.handleCommands).Methods(http.MethodGet)
	api.HandleFunc("/buckets", s.handleBuckets).Methods(http.MethodGet)
	api.HandleFunc("/charts/command", s.handleCommand).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/charts/{chart}.svg", s.handleChart).Methods(http.MethodGet)
	api.HandleFunc("/charts/{chart}/snapshot", s.handleCreateSnapshot).Methods(http.MethodPost, http.MethodOptions)

	router.HandleFunc("/snapshots/{id}", s.handleGetSnapshot).Methods(http.MethodGet)
	s.router = router
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the websocket hub.
func (s *Server) Close() {
	s.hub.Stop()
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go s.sweepSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.sessions.Sweep(now); n > 0 {
				logger.Debug("expired sessions", logger.Int("count", n), logger.Int("live", s.sessions.Len()))
			}
		}
	}
}

type panel struct {
	Chart    chart.ChartKind
	Commands []chart.Command
	Snapshot bool
}

// handleIndex GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	if snap == nil {
		s.fail(w, r, errNoDataset)
		return
	}
	cmds := chart.Commands()
	byChart := lo.GroupBy(cmds, func(c chart.Command) chart.ChartKind { return c.Chart })
	panels := lo.Map(chart.ChartKinds, func(k chart.ChartKind, _ int) panel {
		return panel{Chart: k, Commands: byChart[k], Snapshot: s.snapshots != nil && s.tokens != nil}
	})

	// The page's chart requests then share one session.
	s.sessions.ID(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, map[string]any{
		"Version":     snap.Version,
		"Tracks":      len(snap.Tracks),
		"Panels":      panels,
		"HoverScript": template.JS(chart.HoverScript),
		"ChartOf": lo.SliceToMap(cmds, func(c chart.Command) (string, chart.ChartKind) {
			return c.Name, c.Chart
		}),
	})
	if err != nil {
		logger.Error("failed to render index", logger.ErrorField(err))
	}
}

// 添加 CORS 中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("http request",
			logger.String("request", uuid.NewString()),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("took", time.Since(start)))
	})
}
