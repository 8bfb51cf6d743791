package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-connector/pkg/httpclient"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

type mockResponse struct {
	body       []byte
	statusCode int
	status     string
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }
func (r mockResponse) Status() string {
	if r.status != "" {
		return r.status
	}
	return fmt.Sprintf("%d status", r.statusCode)
}

type scriptedReply struct {
	status int
	reason string
	body   string
	err    error
}

type capturedCall struct {
	url     string
	query   map[string]string
	headers map[string]string
}

// scriptedClient replays one reply per request and records every call.
type scriptedClient struct {
	t       *testing.T
	replies []scriptedReply
	calls   []capturedCall
}

func (c *scriptedClient) Get(_ context.Context, url string, query, headers map[string]string) (httpclient.Response, error) {
	idx := len(c.calls)
	c.calls = append(c.calls, capturedCall{url: url, query: query, headers: headers})
	if idx >= len(c.replies) {
		c.t.Fatalf("unexpected request %d to %s", idx+1, url)
	}
	reply := c.replies[idx]
	if reply.err != nil {
		return nil, reply.err
	}
	status := reply.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(reply.body), statusCode: status, status: reply.reason}, nil
}

var testProvider = providers.Provider{
	ID:     "ldrs-east",
	Name:   "LDRS East",
	Type:   "ldrs",
	URL:    "https://feed.example/v1/item",
	APIKey: "secret-key",
}

func TestFetchPagesEmptyFeedStopsAfterOneRequest(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: `{"total": 0, "items": []}`},
	}}

	pages, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if err != nil {
		t.Fatalf("FetchPages returned error: %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages for empty feed, got %d", len(pages))
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected exactly 1 request, got %d", len(client.calls))
	}
}

func TestFetchPagesWalksAllPages(t *testing.T) {
	page1 := `{"total": 15, "items": ["a"]}`
	page2 := `{"total": 15, "items": ["b"]}`
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: page1},
		{body: page2},
	}}

	since := time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC)
	pages, err := NewClient(client).FetchPages(context.Background(), testProvider, since)
	if err != nil {
		t.Fatalf("FetchPages returned error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0] != page1 || pages[1] != page2 {
		t.Fatalf("pages out of order or mangled: %#v", pages)
	}
	if len(client.calls) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(client.calls))
	}

	first := client.calls[0]
	if first.query["start"] != "2024-03-05T12:30:00" {
		t.Errorf("unexpected start parameter %q", first.query["start"])
	}
	if first.query["limit"] != "10" || first.query["offset"] != "0" {
		t.Errorf("unexpected first page params %#v", first.query)
	}
	if first.headers["apikey"] != "secret-key" {
		t.Errorf("apikey header missing, got %#v", first.headers)
	}
	if second := client.calls[1]; second.query["offset"] != "10" {
		t.Errorf("expected second page offset 10, got %q", second.query["offset"])
	}
}

func TestFetchPagesDefaultsWatermarkToEpoch(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: `{"total": 0}`},
	}}

	if _, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{}); err != nil {
		t.Fatalf("FetchPages returned error: %v", err)
	}
	if got := client.calls[0].query["start"]; got != "1970-01-01T00:00:00" {
		t.Fatalf("expected epoch start, got %q", got)
	}
}

func TestFetchPagesConnectionFailureDiscardsAccumulatedPages(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: `{"total": 25, "items": ["a"]}`},
		{err: cause},
	}}

	pages, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if pages != nil {
		t.Fatalf("expected no partial pages on mid-walk failure, got %d", len(pages))
	}
	if KindOf(err) != KindConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped transport cause, got %v", err)
	}
}

func TestFetchPagesAuthMarkerWinsOverStatusCode(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{status: 500, body: "Error: No API Key provided"},
	}}

	_, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if KindOf(err) != KindAuth {
		t.Fatalf("expected auth error regardless of status code, got %v", err)
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *feed.Error, got %T", err)
	}
	if fe.ProviderID != testProvider.ID {
		t.Errorf("expected provider context %q, got %q", testProvider.ID, fe.ProviderID)
	}
}

func TestFetchPagesNotFound(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{status: 404, reason: "404 Not Found", body: "missing"},
	}}

	_, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestFetchPagesGeneralErrorCarriesReason(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{status: 503, reason: "503 Service Unavailable"},
	}}

	_, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if KindOf(err) != KindGeneral {
		t.Fatalf("expected general error, got %v", err)
	}

	var fe *Error
	if !errors.As(err, &fe) || fe.Reason != "503 Service Unavailable" {
		t.Fatalf("expected reason phrase on error, got %v", err)
	}
}

func TestFetchPagesMissingTotalIsGeneralError(t *testing.T) {
	body := `{"items": ["a"]}`
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: body},
	}}

	_, err := NewClient(client).FetchPages(context.Background(), testProvider, time.Time{})
	if KindOf(err) != KindGeneral {
		t.Fatalf("expected general error for missing total, got %v", err)
	}

	var fe *Error
	if !errors.As(err, &fe) || fe.Body != body {
		t.Fatalf("expected raw body as error context, got %v", err)
	}
}

func TestProbeSuccess(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{body: `{"total": 42}`},
	}}

	if err := NewClient(client).Probe(context.Background(), testProvider); err != nil {
		t.Fatalf("Probe returned error: %v", err)
	}

	call := client.calls[0]
	if call.query["limit"] != "1" || call.query["fields"] != "id" {
		t.Errorf("expected minimal probe projection, got %#v", call.query)
	}
	if call.headers["apikey"] != "secret-key" {
		t.Errorf("apikey header missing, got %#v", call.headers)
	}
}

func TestProbeNotFound(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{status: 404, reason: "404 Not Found"},
	}}

	err := NewClient(client).Probe(context.Background(), testProvider)
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestProbeGeneralError(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{status: 500, reason: "500 Internal Server Error"},
	}}

	err := NewClient(client).Probe(context.Background(), testProvider)
	if KindOf(err) != KindGeneral {
		t.Fatalf("expected general error, got %v", err)
	}
}

func TestProbeConnectionError(t *testing.T) {
	client := &scriptedClient{t: t, replies: []scriptedReply{
		{err: errors.New("no such host")},
	}}

	err := NewClient(client).Probe(context.Background(), testProvider)
	if KindOf(err) != KindConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
}
