package domain

import "encoding/json"

// Extraction holds the structural data pulled from one fetched product page.
// Images are absolute URLs, de-duplicated in first-seen order.
type Extraction struct {
	Title       string
	Description string
	Images      []string
	SourceURL   string
}

// EnrichmentItem is the OCR + translation result for a single image. Only
// images that yielded non-empty recognized text are reported.
type EnrichmentItem struct {
	Image     string `json:"image"`
	Text      string `json:"text"`
	Translate string `json:"translate"`
}

// EnrichedProduct is an Extraction augmented with translations. Fields fall
// back to the empty string when their source step failed; the record itself
// is always complete.
type EnrichedProduct struct {
	Extraction
	TitleTranslated       string
	DescriptionTranslated string
	Enrichment            []EnrichmentItem
}

// CatalogImage wraps an image URL the way the catalog API expects it.
type CatalogImage struct {
	Src string `json:"src"`
}

// CatalogItem is the normalized product record sent to the catalog sink.
type CatalogItem struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	RegularPrice string         `json:"regular_price,omitempty"`
	Description  string         `json:"description"`
	Images       []CatalogImage `json:"images"`
}

// ScrapeRequest is the payload for POST /scrape.
type ScrapeRequest struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

// ScrapeResponse is the JSON returned by POST /scrape.
type ScrapeResponse struct {
	Title         string           `json:"title"`
	TitleEN       string           `json:"title_en"`
	Description   string           `json:"description"`
	DescriptionEN string           `json:"description_en"`
	Images        []string         `json:"images"`
	OCR           []EnrichmentItem `json:"ocr"`
	Source        string           `json:"source"`
}

// Price accepts either a JSON string or a JSON number; operator frontends
// send both forms.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = Price(n.String())
	return nil
}

// ImportProduct is the nested product object accepted by POST /import.
type ImportProduct struct {
	Title         string   `json:"title"`
	TitleEN       string   `json:"title_en"`
	Description   string   `json:"description"`
	DescriptionEN string   `json:"description_en"`
	Price         Price    `json:"price"`
	Images        []string `json:"images"`
}

// ImportRequest is the payload for POST /import. Either the nested product
// form or the flattened fields may be used.
type ImportRequest struct {
	Product *ImportProduct `json:"product"`

	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       Price    `json:"price"`
	Images      []string `json:"images"`
}
