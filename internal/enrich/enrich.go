package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"csmscraper/internal/domain"
	"csmscraper/internal/monitoring"
)

// Translator renders text from the pipeline's fixed source language into a
// target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Recognizer extracts text from an image addressed by URL.
type Recognizer interface {
	RecognizeURL(ctx context.Context, imageURL string) (string, error)
}

// Enricher augments an Extraction with translations and OCR text. Every step
// is best-effort: a failed step leaves its field empty (or its image
// unreported) and the record is always returned whole.
type Enricher struct {
	translator Translator
	recognizer Recognizer
	ocrCap     int
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func New(t Translator, r Recognizer, ocrCap int, m *monitoring.Metrics, l *zap.Logger) *Enricher {
	return &Enricher{
		translator: t,
		recognizer: r,
		ocrCap:     ocrCap,
		metrics:    m,
		logger:     l,
	}
}

// Enrich translates the extraction's title and description and OCRs its
// leading images. Images are processed sequentially in extraction order and
// the enrichment list preserves that order. An image whose OCR or
// translation fails, or that yields no recognized text, is omitted.
func (e *Enricher) Enrich(ctx context.Context, ext domain.Extraction, targetLang string) domain.EnrichedProduct {
	product := domain.EnrichedProduct{
		Extraction: ext,
		Enrichment: []domain.EnrichmentItem{},
	}

	product.TitleTranslated = e.translateField(ctx, ext.Title, targetLang, "title")
	product.DescriptionTranslated = e.translateField(ctx, ext.Description, targetLang, "description")

	limit := e.ocrCap
	if limit > len(ext.Images) {
		limit = len(ext.Images)
	}
	for i := 0; i < limit; i++ {
		img := ext.Images[i]

		text, err := e.recognizer.RecognizeURL(ctx, img)
		if err != nil {
			e.logger.Warn("ocr failed, skipping image", zap.String("image", img), zap.Error(err))
			e.metrics.IncEnrichErrors("ocr")
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		translated, err := e.translator.Translate(ctx, text, targetLang)
		if err != nil {
			e.logger.Warn("ocr text translation failed, skipping image", zap.String("image", img), zap.Error(err))
			e.metrics.IncEnrichErrors("translate")
			continue
		}

		product.Enrichment = append(product.Enrichment, domain.EnrichmentItem{
			Image:     img,
			Text:      text,
			Translate: translated,
		})
	}

	return product
}

// translateField collapses a translation failure to the empty string so a
// flaky translation service can never fail the whole record.
func (e *Enricher) translateField(ctx context.Context, text, targetLang, field string) string {
	translated, err := e.translator.Translate(ctx, text, targetLang)
	if err != nil {
		e.logger.Warn("translation failed", zap.String("field", field), zap.Error(err))
		e.metrics.IncEnrichErrors("translate")
		return ""
	}
	return translated
}
