package domain

import "time"

// Domain contains core models and interfaces.

// Item is a normalized content record produced from one raw feed item.
type Item struct {
	ID             string    `json:"id"`
	Headline       string    `json:"headline"`
	Abstract       string    `json:"abstract,omitempty"`
	BodyHTML       string    `json:"body_html,omitempty"`
	BodyText       string    `json:"body_text,omitempty"`
	URL            string    `json:"url,omitempty"`
	Byline         string    `json:"byline,omitempty"`
	Language       string    `json:"language,omitempty"`
	UsageTerms     string    `json:"usage_terms,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	FirstCreated   time.Time `json:"first_created"`
	VersionCreated time.Time `json:"version_created"`
}
