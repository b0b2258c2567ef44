// Package server exposes the scanner over HTTP: the folder list, the record
// stream websocket, health, metrics and scan history.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Ning0612/Filegraph/internal/logger"
	"github.com/Ning0612/Filegraph/internal/metrics"
	"github.com/Ning0612/Filegraph/internal/protocol"
	"github.com/Ning0612/Filegraph/internal/state"
)

// DefaultHistoryLimit is used by GET /history when no limit is given
const DefaultHistoryLimit = 20

// FolderSource lists the selectable roots in display order
type FolderSource func() ([]string, error)

// HistoryStore persists finished streams
type HistoryStore interface {
	SaveScan(record state.ScanRecord) (int64, error)
	GetHistory(root string, limit int) ([]state.ScanRecord, error)
	GetAllHistory(limit int) ([]state.ScanRecord, error)
}

// Options configures a Server
type Options struct {
	Folders FolderSource

	// AllowAnyRoot accepts start messages for directories outside Folders
	AllowAnyRoot bool

	Workers       int
	IncludeHidden bool

	// History is optional; GET /history answers 404 without it
	History HistoryStore

	// WriteTimeout bounds each websocket write
	WriteTimeout time.Duration

	Logger logger.Logger
}

// Server serves the record stream
type Server struct {
	opts     Options
	log      logger.Logger
	router   *gin.Engine
	upgrader websocket.Upgrader

	// base is cancelled on shutdown so hijacked websocket handlers stop too
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds the router
func New(opts Options) *Server {
	if opts.Folders == nil {
		opts.Folders = func() ([]string, error) { return nil, nil }
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}

	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts: opts,
		log:  opts.Logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 64 * 1024,
		},
		base:   base,
		cancel: cancel,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.GET("/", s.handleIndex)
	r.GET("/health", s.handleHealth)
	r.GET("/folders", s.handleFolders)
	r.GET("/history", s.handleHistory)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", s.handleStream)
	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops every open stream and waits for the handlers to return
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, protocol.IndexResponse{Status: "ok", WSEndpoint: "/ws"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFolders(c *gin.Context) {
	folders, err := s.opts.Folders()
	if err != nil {
		s.log.Error("list folders failed", "error", err)
		c.JSON(http.StatusInternalServerError, protocol.ErrorFrame{Error: err.Error()})
		return
	}
	if folders == nil {
		folders = []string{}
	}
	c.JSON(http.StatusOK, protocol.FoldersResponse{Folders: folders})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.opts.History == nil {
		c.JSON(http.StatusNotFound, protocol.ErrorFrame{Error: "scan history is disabled"})
		return
	}

	limit := DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, protocol.ErrorFrame{Error: fmt.Sprintf("invalid limit %q", raw)})
			return
		}
		limit = n
	}

	var (
		scans []state.ScanRecord
		err   error
	)
	if root := c.Query("root"); root != "" {
		scans, err = s.opts.History.GetHistory(root, limit)
	} else {
		scans, err = s.opts.History.GetAllHistory(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, protocol.ErrorFrame{Error: err.Error()})
		return
	}
	if scans == nil {
		scans = []state.ScanRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"scans": scans})
}
