// Package server hosts the preview: the host page, the sandbox document, the
// JSON API that drives the bridge, and the websocket that carries sandbox
// messages back.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/jsxlive/internal/bridge"
	"github.com/conneroisu/jsxlive/internal/config"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/generator"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/session"
	"github.com/conneroisu/jsxlive/internal/validation"
	"github.com/conneroisu/jsxlive/internal/watcher"
	"github.com/conneroisu/jsxlive/internal/websocket"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators a PreviewServer drives.
type Deps struct {
	Bridge *bridge.Bridge
	Store  session.Store
	// Generator may be nil, which disables chat.
	Generator generator.Generator
	// Files is set when the component is served from disk; applied property
	// edits are then written back to the css file.
	Files *watcher.ComponentFiles
	// SessionID resumes an existing session instead of starting a new one.
	SessionID string
	Logger    logging.Logger
}

// PreviewServer serves the live preview.
type PreviewServer struct {
	config    *config.Config
	bridge    *bridge.Bridge
	store     session.Store
	generator generator.Generator
	files     *watcher.ComponentFiles
	hub       *websocket.Manager
	logger    logging.Logger
	errors    *jsxerrors.ErrorHandler
	router    chi.Router

	// sessMu serialises load-modify-save cycles on the active session.
	sessMu    sync.Mutex
	sessionID string

	serverMutex sync.Mutex
	httpServer  *http.Server
}

// New creates the server and opens (or creates) its session.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*PreviewServer, error) {
	if deps.Bridge == nil || deps.Store == nil {
		return nil, jsxerrors.NewInternalError(jsxerrors.ErrCodeInternalError, "server requires a bridge and a session store", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("server")

	sessionID := deps.SessionID
	if sessionID == "" {
		sess, err := deps.Store.Create(ctx, "Preview session")
		if err != nil {
			return nil, err
		}
		sessionID = sess.ID
	} else if _, err := deps.Store.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	s := &PreviewServer{
		config:    cfg,
		bridge:    deps.Bridge,
		store:     deps.Store,
		generator: deps.Generator,
		files:     deps.Files,
		logger:    logger,
		errors:    jsxerrors.NewErrorHandler(logger),
		sessionID: sessionID,
	}
	s.hub = websocket.NewManager(deps.Bridge,
		websocket.NewOriginAllowList(cfg.Server.AllowedOrigins...),
		websocket.WithRateLimit(cfg.Bridge.MessagesPerSecond, cfg.Bridge.Burst),
		websocket.WithLogger(logger),
	)
	s.router = s.buildRouter()

	return s, nil
}

// ServeHTTP delegates to the chi router.
func (s *PreviewServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SessionID returns the active session.
func (s *PreviewServer) SessionID() string {
	return s.sessionID
}

func (s *PreviewServer) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/", s.handleHost)
	r.Get("/preview", s.handlePreview)
	r.Get("/health", s.handleHealth)
	r.Handle("/ws", s.hub)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Put("/component", s.handleSetComponent)
		r.Post("/reload", s.handleReload)
		r.Put("/display", s.handleDisplay)
		r.Delete("/selection", s.handleDeselect)
		r.Post("/error/dismiss", s.handleDismissError)
		r.Get("/properties", s.handlePanel)
		r.Post("/properties", s.handleApplyProperty)
		r.Post("/chat", s.handleChat)
		r.Get("/session", s.handleSession)
		r.Delete("/session", s.handleClearSession)
	})

	return r
}

// Restore loads the initial component into the bridge: the files when
// serving from disk, otherwise the resumed session's component. The bridge
// must be running.
func (s *PreviewServer) Restore(ctx context.Context) error {
	if s.files != nil {
		component, err := s.files.Load()
		if err != nil {
			return err
		}
		_, err = s.bridge.SetComponent(ctx, component)

		return err
	}

	sess, err := s.store.Get(ctx, s.sessionID)
	if err != nil {
		return err
	}
	if sess.Component.IsEmpty() {
		return nil
	}
	_, err = s.bridge.SetComponent(ctx, sess.Component)

	return err
}

// Run restores the component, then serves until ctx is cancelled.
func (s *PreviewServer) Run(ctx context.Context) error {
	if err := s.Restore(ctx); err != nil {
		return err
	}

	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return jsxerrors.NewIOError(jsxerrors.ErrCodeInternalError, "failed to listen", err).WithContext("addr", addr)
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	url := "http://" + ln.Addr().String()
	s.logger.Info(ctx, "Preview server listening", "url", url, "session", s.sessionID)
	if s.config.Server.Open {
		go s.openBrowser(ctx, url)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}

// Shutdown closes websocket connections, then the HTTP server.
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	hubErr := s.hub.Shutdown(ctx)

	s.serverMutex.Lock()
	server := s.httpServer
	s.serverMutex.Unlock()

	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			return err
		}
	}

	return hubErr
}

func (s *PreviewServer) openBrowser(ctx context.Context, url string) {
	if err := validation.ValidateURL(url); err != nil {
		s.logger.Warn(ctx, err, "Refusing to open browser", "url", url)

		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		s.logger.Warn(ctx, nil, "Cannot open browser on this platform", "os", runtime.GOOS)

		return
	}

	if err := cmd.Start(); err != nil {
		s.logger.Warn(ctx, err, "Failed to open browser", "url", url)

		return
	}
	_ = cmd.Wait()
}

func (s *PreviewServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// securityHeaders sets the headers every response carries. Only the sandbox
// document may be framed.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		if r.URL.Path != "/preview" {
			h.Set("X-Frame-Options", "DENY")
		}
		next.ServeHTTP(w, r)
	})
}
