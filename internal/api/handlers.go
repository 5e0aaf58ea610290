package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"csmscraper/internal/domain"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("CSM Taobao/1688 Scraper running"))
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing url param", http.StatusBadRequest)
		return
	}

	page, err := s.fetcher.Fetch(r.Context(), target)
	if err != nil {
		s.logger.Warn("proxy fetch failed", zap.String("url", target), zap.Error(err))
		s.metrics.FetchFailures.Inc()
		http.Error(w, "Proxy error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rewritten, err := s.rewriter.Rewrite(page.HTML, target)
	if err != nil {
		s.logger.Error("proxy rewrite failed", zap.String("url", target), zap.Error(err))
		http.Error(w, "Proxy error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.metrics.PagesProxied.Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rewritten))
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req domain.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.URL == "" {
		s.respondWithError(w, http.StatusBadRequest, "Missing product URL", "")
		return
	}

	lang := req.Language
	if lang == "" {
		lang = s.config.TargetLang
	}

	page, err := s.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		s.logger.Warn("scrape fetch failed", zap.String("url", req.URL), zap.Error(err))
		s.metrics.FetchFailures.Inc()
		s.respondWithError(w, http.StatusInternalServerError, "Scraping failed", err.Error())
		return
	}

	extraction := s.extractor.Extract(page.HTML, req.URL)
	product := s.enricher.Enrich(r.Context(), extraction, lang)

	s.metrics.PagesScraped.Inc()
	s.respondWithJSON(w, http.StatusOK, domain.ScrapeResponse{
		Title:         product.Title,
		TitleEN:       product.TitleTranslated,
		Description:   product.Description,
		DescriptionEN: product.DescriptionTranslated,
		Images:        product.Images,
		OCR:           product.Enrichment,
		Source:        product.SourceURL,
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req domain.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	item, ok := buildCatalogItem(req)
	if !ok {
		s.respondWithError(w, http.StatusBadRequest, "Missing product data", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	created, err := s.catalog.CreateProduct(ctx, item)
	if err != nil {
		s.logger.Error("import failed", zap.String("name", item.Name), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Import failed", err.Error())
		return
	}

	s.metrics.ProductsImported.Inc()
	s.respondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"product": created,
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	healthStatus := map[string]string{"server": "healthy"}
	healthy := true

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			s.logger.Error("health check failed for redis", zap.Error(err))
			healthStatus["redis"] = "unhealthy"
			healthy = false
		} else {
			healthStatus["redis"] = "healthy"
		}
	}

	if !healthy {
		s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
		return
	}
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}

// buildCatalogItem maps an import request onto the catalog payload,
// preferring translated fields and falling back to the native ones. The
// second return is false when the request names no product at all.
func buildCatalogItem(req domain.ImportRequest) (domain.CatalogItem, bool) {
	item := domain.CatalogItem{Type: "simple", Images: []domain.CatalogImage{}}

	if req.Product != nil {
		p := req.Product
		if p.Title == "" && p.TitleEN == "" {
			return item, false
		}
		item.Name = p.TitleEN
		if item.Name == "" {
			item.Name = p.Title
		}
		item.Description = p.DescriptionEN
		if item.Description == "" {
			item.Description = p.Description
		}
		item.RegularPrice = string(p.Price)
		for _, u := range p.Images {
			item.Images = append(item.Images, domain.CatalogImage{Src: u})
		}
		return item, true
	}

	if req.Name == "" {
		return item, false
	}
	item.Name = req.Name
	item.Description = req.Description
	item.RegularPrice = string(req.Price)
	for _, u := range req.Images {
		item.Images = append(item.Images, domain.CatalogImage{Src: u})
	}
	return item, true
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message, details string) {
	payload := map[string]string{"error": message}
	if details != "" {
		payload["details"] = details
	}
	s.respondWithJSON(w, code, payload)
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
