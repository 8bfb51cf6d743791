package parsers

import (
	"strings"
	"testing"
	"time"
)

const samplePage = `{
	"total": 2,
	"items": [
		{
			"id": "urn:ldrs:1001",
			"headline": "Council approves housing plan",
			"description": "The plan passed after a late amendment.",
			"body": "<p>The borough council voted <b>12 to 3</b> on Tuesday.</p>",
			"url": "https://news.example/1001",
			"byline": "A Reporter",
			"language": "en",
			"usageterms": "LDRS partner use",
			"keywords": ["housing", " planning ", ""],
			"firstcreated": "2024-03-05T09:15:00",
			"versioncreated": "2024-03-05T11:00:00Z"
		},
		{
			"id": "urn:ldrs:1002",
			"headline": "Library hours extended",
			"body": "<p>Opening hours grow from next month.</p>",
			"firstcreated": "2024-03-05T10:00:00Z"
		}
	]
}`

func TestLDRSParserMapsItems(t *testing.T) {
	items, err := NewLDRSParser().Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != "urn:ldrs:1001" {
		t.Errorf("unexpected id %q", first.ID)
	}
	if first.Headline != "Council approves housing plan" {
		t.Errorf("unexpected headline %q", first.Headline)
	}
	if first.Abstract != "The plan passed after a late amendment." {
		t.Errorf("unexpected abstract %q", first.Abstract)
	}
	if first.BodyText != "The borough council voted 12 to 3 on Tuesday." {
		t.Errorf("markup not stripped: %q", first.BodyText)
	}
	if !strings.Contains(first.BodyHTML, "<b>12 to 3</b>") {
		t.Errorf("original markup lost: %q", first.BodyHTML)
	}
	if len(first.Keywords) != 2 || first.Keywords[1] != "planning" {
		t.Errorf("keywords not cleaned: %#v", first.Keywords)
	}
	wantFirst := time.Date(2024, time.March, 5, 9, 15, 0, 0, time.UTC)
	if !first.FirstCreated.Equal(wantFirst) {
		t.Errorf("unexpected firstcreated %v", first.FirstCreated)
	}
	wantVersion := time.Date(2024, time.March, 5, 11, 0, 0, 0, time.UTC)
	if !first.VersionCreated.Equal(wantVersion) {
		t.Errorf("unexpected versioncreated %v", first.VersionCreated)
	}
}

func TestLDRSParserDerivesAbstractFromBody(t *testing.T) {
	items, err := NewLDRSParser().Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	second := items[1]
	if second.Abstract != "Opening hours grow from next month." {
		t.Errorf("expected abstract derived from body text, got %q", second.Abstract)
	}
	if !second.VersionCreated.Equal(second.FirstCreated) {
		t.Errorf("expected versioncreated to fall back to firstcreated, got %v", second.VersionCreated)
	}
}

func TestLDRSParserTruncatesLongDerivedAbstract(t *testing.T) {
	body := strings.Repeat("word ", 120)
	page := `{"total": 1, "items": [{"id": "x", "headline": "h", "body": "` + strings.TrimSpace(body) + `"}]}`

	items, err := NewLDRSParser().Parse([]byte(page))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	abstract := items[0].Abstract
	if len(abstract) > maxAbstractLen+len("...") {
		t.Fatalf("abstract too long: %d chars", len(abstract))
	}
	if !strings.HasSuffix(abstract, "...") {
		t.Fatalf("expected ellipsis on truncated abstract, got %q", abstract)
	}
}

func TestLDRSParserRejectsBadPages(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"invalid json", `{"total": 1, "items": [`},
		{"no items", `{"total": 0, "items": []}`},
		{"missing id", `{"total": 1, "items": [{"headline": "h"}]}`},
		{"missing headline", `{"total": 1, "items": [{"id": "x"}]}`},
		{"bad timestamp", `{"total": 1, "items": [{"id": "x", "headline": "h", "firstcreated": "yesterday"}]}`},
	}

	parser := NewLDRSParser()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parser.Parse([]byte(tc.page)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}
