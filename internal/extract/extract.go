package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"csmscraper/internal/domain"
)

// descriptionTextLimit bounds the body-text fallback when a page carries no
// usable description metadata.
const descriptionTextLimit = 2000

// Extractor pulls structured product data out of raw marketplace HTML.
// Extraction is advisory: a page the parser cannot make sense of yields
// empty fields, never an error.
type Extractor struct {
	imageCap int
}

func New(imageCap int) *Extractor {
	return &Extractor{imageCap: imageCap}
}

// Extract parses htmlContent and collects title, description and image URLs,
// resolving relative links against baseURL.
func (e *Extractor) Extract(htmlContent, baseURL string) domain.Extraction {
	ext := domain.Extraction{SourceURL: baseURL, Images: []string{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return ext
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	ext.Title = extractTitle(doc)
	ext.Description = extractDescription(doc)
	ext.Images = e.extractImages(doc, base)
	return ext
}

func extractTitle(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && content != "" {
		return content
	}
	if t := doc.Find("title").First().Text(); t != "" {
		return t
	}
	return doc.Find("h1").First().Text()
}

func extractDescription(doc *goquery.Document) string {
	if content, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && content != "" {
		return content
	}
	if content, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && content != "" {
		return content
	}
	if t := doc.Find("#desc").Text(); t != "" {
		return t
	}
	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})
	body := doc.Find("body").Text()
	// Truncate by characters, not bytes; these pages are mostly CJK and a
	// byte cut would split a rune.
	if r := []rune(body); len(r) > descriptionTextLimit {
		body = string(r[:descriptionTextLimit])
	}
	return body
}

func (e *Extractor) extractImages(doc *goquery.Document, base *url.URL) []string {
	images := []string{}
	if e.imageCap <= 0 {
		return images
	}
	seen := make(map[string]struct{})

	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		if src == "" {
			src, _ = s.Attr("data-original")
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}

		resolved := resolve(base, src)
		if resolved == "" {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
		return len(images) < e.imageCap
	})

	return images
}

// resolve makes src absolute against base. Unresolvable references are
// dropped by returning "".
func resolve(base *url.URL, src string) string {
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if base == nil {
		if ref.IsAbs() {
			return ref.String()
		}
		return ""
	}
	return base.ResolveReference(ref).String()
}
