package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"csmscraper/internal/catalog"
	"csmscraper/internal/config"
	"csmscraper/internal/enrich"
	"csmscraper/internal/extract"
	"csmscraper/internal/fetcher"
	"csmscraper/internal/monitoring"
	"csmscraper/internal/rewrite"
	"csmscraper/internal/translate"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	fetcher    *fetcher.Fetcher
	extractor  *extract.Extractor
	enricher   *enrich.Enricher
	rewriter   *rewrite.Rewriter
	catalog    *catalog.Client
	cache      *translate.Cache
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, f *fetcher.Fetcher, ex *extract.Extractor, en *enrich.Enricher, rw *rewrite.Rewriter, cat *catalog.Client, cache *translate.Cache, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		config:    cfg,
		fetcher:   f,
		extractor: ex,
		enricher:  en,
		rewriter:  rw,
		catalog:   cat,
		cache:     cache,
		metrics:   m,
		logger:    l,
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Scrape responses wait on fetch + translation + OCR upstreams
		WriteTimeout: 5 * time.Minute,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
