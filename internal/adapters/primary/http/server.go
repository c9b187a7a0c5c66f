// Package http is the primary adapter: the HTTP command surface and
// WebSocket session handling, wired to internal/core/kernel.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tobogganhq/toboggan/internal/core/kernel"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
	"github.com/tobogganhq/toboggan/internal/logging"
)

// Server is the HTTP/WebSocket adapter over a kernel.Kernel. It implements
// ports.HTTPServer.
type Server struct {
	kernel    *kernel.Kernel
	config    *entities.ServerConfig
	client    entities.ClientConfig
	logger    *logging.Logger
	startedAt time.Time

	publicDir string

	mu      sync.RWMutex
	httpSrv *http.Server
	running bool
}

// New builds a Server over k, configured per cfg (which must be non-nil).
// The WebSocket heartbeat/timeout bounds are set with WithClientConfig;
// left unset, they fall back to the defaults of entities.ClientConfig.
func New(k *kernel.Kernel, cfg *entities.ServerConfig, loggingCfg *entities.LoggingConfig, publicDir string) *Server {
	if cfg == nil {
		panic("server config cannot be nil - provide a valid ServerConfig")
	}
	level := entities.LogLevelInfo
	verbose := false
	if loggingCfg != nil {
		level = loggingCfg.GetLevel()
		verbose = loggingCfg.Verbose
	}
	return &Server{
		kernel:    k,
		config:    cfg,
		logger:    logging.NewWithLevel("server", verbose, level),
		publicDir: publicDir,
	}
}

// WithClientConfig sets the heartbeat/timeout bounds new WebSocket sessions
// are held to. Call before Start.
func (s *Server) WithClientConfig(cfg entities.ClientConfig) *Server {
	s.client = cfg
	return s
}

// Start begins serving on host:port, returning once the listener is up;
// it does not block for the server's lifetime.
func (s *Server) Start(ctx context.Context, host string, port int) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}

	router := s.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.config.GetCORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	handler := c.Handler(router)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listening on %s: %w", s.httpSrv.Addr, err)
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	go func() {
		s.logger.Info("HTTP server starting on %s:%d", host, port)
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully drains in-flight HTTP requests, honoring ctx's
// deadline. Upgraded WebSocket connections are hijacked from the
// http.Server, so Shutdown neither closes them nor waits for them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) setupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.handleWebSocket)
	r.HandleFunc("/api/talk", s.handleTalk).Methods(http.MethodGet)
	r.HandleFunc("/api/slides", s.handleSlides).Methods(http.MethodGet)
	r.HandleFunc("/api/slides/{index}", s.handleSlide).Methods(http.MethodGet)
	r.HandleFunc("/api/command", s.handleCommand).Methods(http.MethodPost)
	r.HandleFunc("/api/clients", s.handleClients).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.publicDir != "" {
		r.PathPrefix("/").Handler(s.secureFileServer(s.publicDir))
	}

	handler := securityHeadersMiddleware(r)
	handler = rateLimitMiddleware(handler)
	handler = createLoggingMiddleware(handler, s.logger)
	handler = createRecoveryMiddleware(handler, s.logger)
	return handler
}

// secureFileServer serves root read-only, rejecting any request whose
// resolved path escapes it.
func (s *Server) secureFileServer(root string) http.Handler {
	fs := http.FileServer(http.Dir(root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := filepath.Clean(r.URL.Path)
		if strings.Contains(r.URL.Path, "..") {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		absRoot, err := filepath.Abs(root)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		absPath, err := filepath.Abs(filepath.Join(root, cleanPath))
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if !strings.HasPrefix(absPath, absRoot) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fs.ServeHTTP(w, r)
	})
}

// isValidOrigin validates a WebSocket connection's Origin header: a
// permissive localhost/LAN allowance in development, a strict whitelist
// (with wildcard-subdomain support) in production.
func (s *Server) isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		s.logger.Warn("WebSocket connection rejected: invalid origin URL %q: %v", origin, err)
		return false
	}

	if s.config.IsDevelopment() {
		return isDevelopmentOrigin(originURL)
	}
	return s.isProductionOrigin(originURL)
}

func isDevelopmentOrigin(originURL *url.URL) bool {
	hostname := originURL.Hostname()
	switch hostname {
	case "localhost", "127.0.0.1", "0.0.0.0":
		return true
	}
	if strings.HasPrefix(hostname, "192.168.") || strings.HasPrefix(hostname, "10.") || isPrivateClassB(hostname) {
		return true
	}
	return false
}

func (s *Server) isProductionOrigin(originURL *url.URL) bool {
	for _, allowed := range s.config.GetCORSOrigins() {
		if originURL.String() == allowed {
			return true
		}
		if strings.HasPrefix(allowed, "*.") {
			domain := strings.TrimPrefix(allowed, "*.")
			if strings.HasSuffix(originURL.Hostname(), domain) {
				return true
			}
		}
	}
	s.logger.Warn("WebSocket connection rejected: origin %q not in whitelist", originURL.String())
	return false
}

func isPrivateClassB(hostname string) bool {
	if !strings.HasPrefix(hostname, "172.") {
		return false
	}
	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return false
	}
	switch parts[1] {
	case "16", "17", "18", "19", "20", "21", "22", "23", "24", "25", "26", "27", "28", "29", "30", "31":
		return true
	default:
		return false
	}
}
