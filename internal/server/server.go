// file: internal/server/server.go
// version: 2.1.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e9f

package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/bookclub/internal/config"
	"github.com/jdfalk/bookclub/internal/covers"
	"github.com/jdfalk/bookclub/internal/database"
	"github.com/jdfalk/bookclub/internal/metadata"
	"github.com/jdfalk/bookclub/internal/metrics"
	"github.com/jdfalk/bookclub/internal/realtime"
	"github.com/jdfalk/bookclub/internal/server/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options wires a Server. NewServer fills it from the package globals.
type Options struct {
	Config config.Config
	Store  database.KVStore
	Hub    *realtime.EventHub
	// Source overrides the metadata source; nil builds a Google Books
	// client from Config.Metadata.
	Source metadata.VolumeSearcher
	// HTTPClient is used for server-side cover probing.
	HTTPClient *http.Client
}

// renderDeps is everything a reload can replace. It is swapped as a whole
// so a request never sees half of an old configuration.
type renderDeps struct {
	cfg      config.Config
	resolver *metadata.Resolver
	prober   *covers.Prober
}

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	router        *gin.Engine
	store         database.KVStore
	books         *CurrentBookService
	hub           *realtime.EventHub
	source        metadata.VolumeSearcher
	httpClient    *http.Client
	updateLimiter *middleware.IPRateLimiter
	deps          atomic.Pointer[renderDeps]
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// NewServer creates a server from config.AppConfig, database.GlobalStore
// and realtime.GlobalHub.
func NewServer() *Server {
	return New(Options{
		Config: config.AppConfig,
		Store:  database.GlobalStore,
		Hub:    realtime.GlobalHub,
	})
}

// New creates a server from explicit dependencies.
func New(opts Options) *Server {
	router := gin.New()

	// Set up middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(corsMiddleware())
	router.Use(middleware.MaxRequestBodySize(middleware.DefaultJSONBodyLimit))
	router.SetHTMLTemplate(pageTemplate)

	// Register metrics (idempotent)
	metrics.Register()

	s := &Server{
		router:        router,
		store:         opts.Store,
		books:         NewCurrentBookService(opts.Store),
		hub:           opts.Hub,
		source:        opts.Source,
		httpClient:    opts.HTTPClient,
		updateLimiter: middleware.NewIPRateLimiter(opts.Config.UpdatesPerMinute, updateBurst(opts.Config.UpdatesPerMinute)),
	}
	s.ApplyConfig(opts.Config)
	s.setupRoutes()

	return s
}

func updateBurst(perMinute int) int {
	return max(1, min(5, perMinute))
}

// ApplyConfig swaps in the settings that can change without restarting
// the listener: metadata, covers, site text, default book, the update
// rate limit and the event heartbeat. The resolution cache starts empty
// afterwards.
func (s *Server) ApplyConfig(cfg config.Config) {
	s.deps.Store(&renderDeps{
		cfg:      cfg,
		resolver: NewResolver(cfg, s.source),
		prober:   NewProber(cfg, s.httpClient),
	})
	s.updateLimiter.SetLimit(cfg.UpdatesPerMinute, updateBurst(cfg.UpdatesPerMinute))
	if s.hub != nil {
		s.hub.SetHeartbeatInterval(cfg.HeartbeatInterval)
	}
}

// NewResolver builds a metadata resolver from cfg. A nil source selects
// Google Books at cfg.Metadata.BaseURL.
func NewResolver(cfg config.Config, source metadata.VolumeSearcher) *metadata.Resolver {
	if source == nil {
		source = metadata.NewGoogleBooksClient(cfg.Metadata.BaseURL, cfg.Metadata.APIKey)
	}
	return metadata.NewResolver(source, metadata.ResolverOptions{
		MaxResults:        cfg.Metadata.MaxResults,
		Timeout:           cfg.Metadata.LookupTimeout,
		CacheTTL:          cfg.Metadata.CacheTTL,
		CacheMaxEntries:   cfg.Metadata.CacheMaxEntries,
		RequestsPerMinute: cfg.Metadata.RequestsPerMinute,
	})
}

// NewProber builds a cover prober from cfg.
func NewProber(cfg config.Config, client *http.Client) *covers.Prober {
	return covers.NewProber(client, cfg.Covers.ProbeTimeout, cfg.Covers.MinPixels)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT or SIGTERM.
func (s *Server) Start(cfg ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx, cfg)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg ServerConfig) error {
	s.httpServer = &http.Server{
		Addr:           net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	if s.hub != nil {
		// Shutdown waits for active handlers, so open event streams must end.
		s.httpServer.RegisterOnShutdown(s.hub.CloseAll)
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[INFO] Starting server on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[INFO] Shutting down server...")

	if s.hub != nil && s.hub.SendShutdown() > 0 {
		// Give clients a moment to receive the event
		time.Sleep(500 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("[INFO] Server exited")
	return nil
}

// setupRoutes configures all the routes
func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint (standard path)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/api/health", s.healthCheck)

	// Real-time events (SSE)
	s.router.GET("/events", s.handleEvents)

	s.router.GET("/", s.renderPage)
	s.router.GET("/api/book", s.getBookDetail)
	s.router.GET("/cover", s.redirectCover)

	s.router.POST("/book", s.updateRateLimit(), s.updateBook)
	s.router.OPTIONS("/book", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// updateRateLimit applies the per-IP limiter unless the configured rate is
// zero or negative.
func (s *Server) updateRateLimit() gin.HandlerFunc {
	limited := s.updateLimiter.Middleware()
	return func(c *gin.Context) {
		if s.deps.Load().cfg.UpdatesPerMinute <= 0 {
			c.Next()
			return
		}
		limited(c)
	}
}

// selectBook decides what to render: a complete query override, then the
// stored record, then the configured default. A store failure is logged
// and rendered as the default.
func (s *Server) selectBook(c *gin.Context, cfg config.Config) Selection {
	title := strings.TrimSpace(c.Query("title"))
	author := strings.TrimSpace(c.Query("author"))
	if title != "" && author != "" {
		return Selection{Title: title, Author: author, Origin: OriginOverride}
	}

	sel, err := s.books.Selection(c.Request.Context(), cfg.DefaultBook)
	if err != nil && !errors.Is(err, database.ErrStorageUnavailable) {
		log.Printf("[WARN] Failed to load current book, using default: %v [request-id: %s]", err, middleware.GetRequestID(c))
	}
	return sel
}

func (s *Server) resolve(ctx context.Context, deps *renderDeps, sel Selection) (metadata.BookDetail, []string) {
	detail := deps.resolver.Resolve(ctx, sel.Title, sel.Author)
	return detail, covers.DeriveCandidates(detail, deps.cfg.Covers.ServiceURL)
}

func (s *Server) renderPage(c *gin.Context) {
	deps := s.deps.Load()
	sel := s.selectBook(c, deps.cfg)
	detail, candidates := s.resolve(c.Request.Context(), deps, sel)

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "page.html", newPageView(deps, sel, detail, candidates))
}

func (s *Server) getBookDetail(c *gin.Context) {
	deps := s.deps.Load()
	sel := s.selectBook(c, deps.cfg)
	detail, candidates := s.resolve(c.Request.Context(), deps, sel)

	c.JSON(http.StatusOK, BookDetailResponse{
		Book:       sel,
		Detail:     detail,
		Candidates: candidates,
	})
}

// redirectCover probes candidates server-side and redirects to the first
// one that loads, or serves the placeholder.
func (s *Server) redirectCover(c *gin.Context) {
	deps := s.deps.Load()
	sel := s.selectBook(c, deps.cfg)
	detail, candidates := s.resolve(c.Request.Context(), deps, sel)

	c.Header("Cache-Control", "no-store")
	if url, ok := deps.prober.FirstWorking(c.Request.Context(), candidates); ok {
		c.Redirect(http.StatusFound, url)
		return
	}
	c.Data(http.StatusOK, "image/svg+xml; charset=utf-8", covers.Placeholder(detail.Title, detail.Author))
}

func (s *Server) updateBook(c *gin.Context) {
	opLog := NewOperationLogger("updateBook", c.Request.Method, c.Request.URL.Path, middleware.GetRequestID(c))

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.IncBookUpdate(metrics.UpdateInvalid)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondWithError(c, http.StatusRequestEntityTooLarge, "request body too large", "BODY_TOO_LARGE")
			return
		}
		ve := invalidJSONError(err)
		LogValidationError("updateBook", ve.Field, ve.Message, middleware.GetRequestID(c))
		RespondWithValidationError(c, ve)
		return
	}

	rec, err := s.books.Update(c.Request.Context(), req)
	var ve ValidationError
	switch {
	case err == nil:
	case errors.As(err, &ve):
		metrics.IncBookUpdate(metrics.UpdateInvalid)
		LogValidationError("updateBook", ve.Field, ve.Message, middleware.GetRequestID(c))
		RespondWithValidationError(c, ve)
		return
	case errors.Is(err, database.ErrStorageUnavailable):
		metrics.IncBookUpdate(metrics.UpdateUnavailable)
		opLog.LogError(http.StatusInternalServerError, err)
		RespondWithError(c, http.StatusInternalServerError, "storage unavailable", "STORAGE_UNAVAILABLE")
		return
	default:
		metrics.IncBookUpdate(metrics.UpdateError)
		opLog.LogError(http.StatusInternalServerError, err)
		RespondWithInternalError(c, "failed to save current book")
		return
	}

	metrics.IncBookUpdate(metrics.UpdateSuccess)
	if s.hub != nil {
		s.hub.SendBookUpdated(rec.Title, rec.Author, rec.UpdatedAt)
	}
	opLog.AddDetail("title", rec.Title)
	opLog.AddDetail("author", rec.Author)
	opLog.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, UpdateBookResponse{Success: true, Book: rec})
}

// healthCheck reports "degraded" rather than failing when the store is
// missing or unreadable; the page still renders in that state.
func (s *Server) healthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:       "ok",
		Timestamp:    time.Now().Unix(),
		DatabaseType: "none",
	}
	if s.hub != nil {
		resp.Clients = s.hub.GetClientCount()
	}
	if s.store == nil {
		resp.Status = "degraded"
		resp.Error = database.ErrStorageUnavailable.Error()
	} else {
		resp.DatabaseType = s.store.Kind()
		if _, _, err := s.store.Get(c.Request.Context(), database.CurrentBookKey); err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// handleEvents handles Server-Sent Events (SSE) for real-time updates
func (s *Server) handleEvents(c *gin.Context) {
	if s.hub == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "event hub not initialized", "EVENTS_UNAVAILABLE")
		return
	}
	s.hub.HandleSSE(c)
}

// GetDefaultServerConfig returns default server configuration
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Host:         "localhost",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
