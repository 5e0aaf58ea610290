package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"csmscraper/internal/api"
	"csmscraper/internal/catalog"
	"csmscraper/internal/config"
	"csmscraper/internal/enrich"
	"csmscraper/internal/extract"
	"csmscraper/internal/fetcher"
	"csmscraper/internal/monitoring"
	"csmscraper/internal/ocr"
	"csmscraper/internal/rewrite"
	"csmscraper/internal/translate"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	upstreamTimeout := time.Duration(cfg.UpstreamTimeout) * time.Second

	// Optional translation memo cache
	var cache *translate.Cache
	if cfg.RedisAddr != "" {
		cache = translate.NewCache(cfg.RedisAddr, time.Duration(cfg.TranslateCacheTTL)*time.Second)
	}

	// Upstream clients
	translator := translate.NewClient(cfg.TranslateURL, cfg.SourceLang, upstreamTimeout, cache, logger)
	recognizer := ocr.NewClient(cfg.OCRServiceURL, cfg.OCRLang, upstreamTimeout, logger)
	catalogClient := catalog.NewClient(cfg.WooCommerceURL, cfg.WooCommerceKey, cfg.WooCommerceSecret, upstreamTimeout, logger)

	// Pipeline
	metrics := monitoring.NewMetrics()
	pageFetcher := fetcher.New(time.Duration(cfg.FetchTimeout) * time.Second)
	extractor := extract.New(cfg.ImageCap)
	enricher := enrich.New(translator, recognizer, cfg.OCRImageCap, metrics, logger)
	rewriter := rewrite.New()

	// Initialize API Server
	server := api.NewServer(cfg, pageFetcher, extractor, enricher, rewriter, catalogClient, cache, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
