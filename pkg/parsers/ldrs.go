package parsers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-feed-connector/internal/domain"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

const maxAbstractLen = 240

// ldrsPage mirrors the slice of the LDRS page schema this parser consumes.
type ldrsPage struct {
	Total int        `json:"total"`
	Items []ldrsItem `json:"items"`
}

type ldrsItem struct {
	ID             string   `json:"id"`
	Headline       string   `json:"headline"`
	Description    string   `json:"description"`
	Body           string   `json:"body"`
	URL            string   `json:"url"`
	Byline         string   `json:"byline"`
	Language       string   `json:"language"`
	UsageTerms     string   `json:"usageterms"`
	Keywords       []string `json:"keywords"`
	FirstCreated   string   `json:"firstcreated"`
	VersionCreated string   `json:"versioncreated"`
}

// ldrsParser maps LDRS item pages to normalized items.
type ldrsParser struct{}

// NewLDRSParser builds a parser for LDRS-shaped feed pages.
func NewLDRSParser() Parser {
	return &ldrsParser{}
}

func (p *ldrsParser) Type() string {
	return providers.DefaultProviderType
}

// Parse decodes a full page body and maps every item on it.
func (p *ldrsParser) Parse(page []byte) ([]domain.Item, error) {
	var decoded ldrsPage
	if err := json.Unmarshal(page, &decoded); err != nil {
		return nil, fmt.Errorf("decode ldrs page: %w", err)
	}
	if len(decoded.Items) == 0 {
		return nil, fmt.Errorf("ldrs page contains no items")
	}

	items := make([]domain.Item, 0, len(decoded.Items))
	for i, raw := range decoded.Items {
		item, err := mapLDRSItem(raw)
		if err != nil {
			return nil, fmt.Errorf("ldrs item[%d]: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func mapLDRSItem(raw ldrsItem) (domain.Item, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return domain.Item{}, fmt.Errorf("item id is empty")
	}
	headline := strings.TrimSpace(raw.Headline)
	if headline == "" {
		return domain.Item{}, fmt.Errorf("item %s headline is empty", id)
	}

	bodyText, err := htmlToText(raw.Body)
	if err != nil {
		return domain.Item{}, fmt.Errorf("item %s body: %w", id, err)
	}

	abstract := strings.TrimSpace(raw.Description)
	if abstract == "" {
		abstract = truncate(bodyText, maxAbstractLen)
	}

	item := domain.Item{
		ID:         id,
		Headline:   headline,
		Abstract:   abstract,
		BodyHTML:   raw.Body,
		BodyText:   bodyText,
		URL:        strings.TrimSpace(raw.URL),
		Byline:     strings.TrimSpace(raw.Byline),
		Language:   strings.TrimSpace(raw.Language),
		UsageTerms: strings.TrimSpace(raw.UsageTerms),
		Keywords:   cleanKeywords(raw.Keywords),
	}

	if item.FirstCreated, err = parseTimestamp(raw.FirstCreated); err != nil {
		return domain.Item{}, fmt.Errorf("item %s firstcreated: %w", id, err)
	}
	if item.VersionCreated, err = parseTimestamp(raw.VersionCreated); err != nil {
		return domain.Item{}, fmt.Errorf("item %s versioncreated: %w", id, err)
	}
	if item.VersionCreated.IsZero() {
		item.VersionCreated = item.FirstCreated
	}

	return item, nil
}

// htmlToText strips markup from an HTML body, returning plain text.
func htmlToText(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

// parseTimestamp accepts the feed's RFC3339 timestamps, with and without zone.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := strings.LastIndex(s[:limit], " ")
	if cut <= 0 {
		cut = limit
	}
	return s[:cut] + "..."
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
