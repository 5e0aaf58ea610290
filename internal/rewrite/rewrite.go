package rewrite

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// sentinelMeta marks a document as already rewritten so a second pass (or a
// caller inspecting the output) can detect it.
const sentinelMeta = `<meta name="csm-proxy" content="true" />`

// buttonClass identifies the injected import controls to the forwarding
// script below.
const buttonClass = "csm-import-btn"

// forwardScript is appended to the body verbatim. Nothing from the scraped
// page is templated into it.
const forwardScript = `<script>
(function(){
  document.addEventListener('click', function(e){
    var t = e.target;
    if(t && t.classList && t.classList.contains('csm-import-btn')){
      var url = t.getAttribute('data-url');
      window.parent.postMessage({ type: 'csm-import', url: url }, '*');
      e.preventDefault();
    }
  }, true);
})();
</script>`

// productHrefPatterns match anchors that point at product detail pages on
// the supported marketplaces.
var productHrefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)detail\.|offer/`),
	regexp.MustCompile(`item\.taobao`),
}

// Rewriter annotates third-party marketplace pages with import controls for
// embedding in an operator frontend.
type Rewriter struct{}

func New() *Rewriter {
	return &Rewriter{}
}

// Rewrite parses rawHTML, inserts an import button after every product link
// and appends the click-forwarding script, then reserializes the document.
// A document already carrying the sentinel meta tag is returned as parsed,
// with no second round of buttons.
func (r *Rewriter) Rewrite(rawHTML, baseURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	if doc.Find(`meta[name="csm-proxy"]`).Length() > 0 {
		return doc.Html()
	}

	doc.Find("head").AppendHtml(sentinelMeta)

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	doc.Find("a").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !isProductHref(href) {
			return
		}
		s.AfterHtml(importButton(resolveHref(base, href)))
	})

	doc.Find("body").AppendHtml(forwardScript)

	return doc.Html()
}

func isProductHref(href string) bool {
	if href == "" {
		return false
	}
	for _, p := range productHrefPatterns {
		if p.MatchString(href) {
			return true
		}
	}
	return false
}

// resolveHref makes href absolute against base, keeping the original form
// when resolution is not possible.
func resolveHref(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// importButton renders the control carrying the product URL. The URL comes
// from scraped markup and is attribute-escaped so it cannot break out of
// data-url.
func importButton(productURL string) string {
	return fmt.Sprintf(
		`<button class="%s" style="margin-left:6px;padding:4px 6px;background:#ff6f00;color:#fff;border:none;border-radius:3px;cursor:pointer;" data-url="%s">Import</button>`,
		buttonClass, html.EscapeString(productURL))
}
