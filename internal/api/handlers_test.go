package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"csmscraper/internal/catalog"
	"csmscraper/internal/config"
	"csmscraper/internal/domain"
	"csmscraper/internal/enrich"
	"csmscraper/internal/extract"
	"csmscraper/internal/fetcher"
	"csmscraper/internal/monitoring"
	"csmscraper/internal/ocr"
	"csmscraper/internal/rewrite"
	"csmscraper/internal/translate"
)

// promauto registers on the default registry, so the package shares one set.
var testMetrics = monitoring.NewMetrics()

type upstreams struct {
	page      *httptest.Server
	translate *httptest.Server
	ocr       *httptest.Server
	catalog   *httptest.Server
}

func newTestServer(t *testing.T, up upstreams) *Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:  "0",
		SourceLang:  "zh",
		TargetLang:  "en",
		ImageCap:    30,
		OCRImageCap: 5,
	}

	logger := zap.NewNop()
	timeout := 5 * time.Second

	var translateURL, ocrURL, catalogURL string
	if up.translate != nil {
		translateURL = up.translate.URL
	}
	if up.ocr != nil {
		ocrURL = up.ocr.URL
	}
	if up.catalog != nil {
		catalogURL = up.catalog.URL
	}

	translator := translate.NewClient(translateURL, cfg.SourceLang, timeout, nil, logger)
	recognizer := ocr.NewClient(ocrURL, "chi_sim", timeout, logger)
	catalogClient := catalog.NewClient(catalogURL, "ck", "cs", timeout, logger)

	return NewServer(cfg,
		fetcher.New(timeout),
		extract.New(cfg.ImageCap),
		enrich.New(translator, recognizer, cfg.OCRImageCap, testMetrics, logger),
		rewrite.New(),
		catalogClient,
		nil,
		testMetrics,
		logger)
}

func TestProxyMissingURL(t *testing.T) {
	s := newTestServer(t, upstreams{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing url param")
}

func TestProxyRewritesFetchedPage(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head></head><body><a href="/offer/55">view</a></body></html>`))
	}))
	defer page.Close()

	s := newTestServer(t, upstreams{page: page})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?url="+page.URL, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `name="csm-proxy"`)
	assert.Contains(t, rec.Body.String(), "csm-import-btn")
	assert.Contains(t, rec.Body.String(), page.URL+"/offer/55")
}

func TestProxyFetchFailure(t *testing.T) {
	s := newTestServer(t, upstreams{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/proxy?url=http://127.0.0.1:1/x", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Proxy error")
}

func TestScrapeMissingURL(t *testing.T) {
	s := newTestServer(t, upstreams{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Missing product URL", resp["error"])
}

func TestScrapePipeline(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>红鞋</title><meta name="description" content="好鞋"></head>` +
			`<body><img src="/a.jpg"><img src="/b.jpg"></body></html>`))
	}))
	defer page.Close()

	translateSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Q string `json:"q"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]string{"translatedText": "en:" + req.Q})
	}))
	defer translateSrv.Close()

	ocrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ImageURL string `json:"image_url"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if strings.HasSuffix(req.ImageURL, "/a.jpg") {
			json.NewEncoder(w).Encode(map[string]string{"text": "图中文字"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"text": ""})
	}))
	defer ocrSrv.Close()

	s := newTestServer(t, upstreams{page: page, translate: translateSrv, ocr: ocrSrv})

	body := strings.NewReader(`{"url":"` + page.URL + `"}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scrape", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "红鞋", resp.Title)
	assert.Equal(t, "en:红鞋", resp.TitleEN)
	assert.Equal(t, "好鞋", resp.Description)
	assert.Equal(t, "en:好鞋", resp.DescriptionEN)
	assert.Equal(t, []string{page.URL + "/a.jpg", page.URL + "/b.jpg"}, resp.Images)
	require.Len(t, resp.OCR, 1)
	assert.Equal(t, page.URL+"/a.jpg", resp.OCR[0].Image)
	assert.Equal(t, "图中文字", resp.OCR[0].Text)
	assert.Equal(t, "en:图中文字", resp.OCR[0].Translate)
	assert.Equal(t, page.URL, resp.Source)
}

func TestScrapeSurvivesDeadEnrichmentUpstreams(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>红鞋</title></head><body><img src="/a.jpg"></body></html>`))
	}))
	defer page.Close()

	// Translation and OCR endpoints unreachable; the record must still come back whole
	s := newTestServer(t, upstreams{page: page})

	body := strings.NewReader(`{"url":"` + page.URL + `"}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scrape", body))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp domain.ScrapeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "红鞋", resp.Title)
	assert.Equal(t, "", resp.TitleEN)
	assert.NotNil(t, resp.OCR)
	assert.Empty(t, resp.OCR)
}

func TestScrapeFetchFailure(t *testing.T) {
	s := newTestServer(t, upstreams{})

	body := strings.NewReader(`{"url":"http://127.0.0.1:1/x"}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/scrape", body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Scraping failed", resp["error"])
	assert.NotEmpty(t, resp["details"])
}

func TestImportFlattenedRequest(t *testing.T) {
	var payload map[string]any
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 5, "name": "Shoe"})
	}))
	defer catalogSrv.Close()

	s := newTestServer(t, upstreams{catalog: catalogSrv})

	body := strings.NewReader(`{"name":"Shoe","images":["https://x/a.jpg"],"price":"9.99"}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", body))

	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "Shoe", payload["name"])
	assert.Equal(t, "simple", payload["type"])
	assert.Equal(t, "9.99", payload["regular_price"])
	assert.Equal(t, "", payload["description"])
	assert.Equal(t, []any{map[string]any{"src": "https://x/a.jpg"}}, payload["images"])

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
}

func TestImportNestedProductPrefersTranslatedFields(t *testing.T) {
	var payload map[string]any
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		json.NewEncoder(w).Encode(map[string]any{"id": 6})
	}))
	defer catalogSrv.Close()

	s := newTestServer(t, upstreams{catalog: catalogSrv})

	body := strings.NewReader(`{"product":{"title":"红鞋","title_en":"Red Shoes","description":"好","description_en":"Nice","price":"12","images":["https://x/a.jpg"]}}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Red Shoes", payload["name"])
	assert.Equal(t, "Nice", payload["description"])
	assert.Equal(t, "12", payload["regular_price"])
}

func TestImportAcceptsNumericPrice(t *testing.T) {
	var payload map[string]any
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		json.NewEncoder(w).Encode(map[string]any{"id": 7})
	}))
	defer catalogSrv.Close()

	s := newTestServer(t, upstreams{catalog: catalogSrv})

	body := strings.NewReader(`{"product":{"title":"红鞋","price":12}}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12", payload["regular_price"])
}

func TestImportValidation(t *testing.T) {
	s := newTestServer(t, upstreams{})

	tests := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"product without any title", `{"product":{"description":"x"}}`},
		{"flattened without name", `{"images":["https://x/a.jpg"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(tt.body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestImportCatalogRejection(t *testing.T) {
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"cannot_create"}`))
	}))
	defer catalogSrv.Close()

	s := newTestServer(t, upstreams{catalog: catalogSrv})

	body := strings.NewReader(`{"name":"Shoe"}`)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/import", body))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Import failed", resp["error"])
	assert.Contains(t, resp["details"], "cannot_create")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, upstreams{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRootStatusLine(t *testing.T) {
	s := newTestServer(t, upstreams{})

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Scraper running")
}
