package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-feed-connector/pkg/httpclient"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

const (
	// PageSize is the number of items requested per page. The walk's
	// termination cadence depends on it, so it is fixed rather than
	// configurable per provider.
	PageSize = 10

	// RequestTimeout bounds every feed request; there are no retries.
	RequestTimeout = 30 * time.Second

	// timestampFormat is the feed's expected textual form for the start
	// watermark.
	timestampFormat = "2006-01-02T15:04:05"

	// authDeniedMarker is how the feed signals a missing API key in the
	// response body. The feed does not use 401/403 reliably for this.
	authDeniedMarker = "Error: No API Key provided"

	// probeFields limits the probe response to a single projected field to
	// save bandwidth.
	probeFields = "id"
)

// Client retrieves raw feed pages for a provider, classifying every failure
// into the feed error taxonomy.
type Client struct {
	http     httpclient.Client
	pageSize int
}

// NewClient builds a feed client around the given HTTP client (or a default
// resty-backed one).
func NewClient(client httpclient.Client) *Client {
	if client == nil {
		client = httpclient.NewRestyClient(RequestTimeout)
	}
	return &Client{http: client, pageSize: PageSize}
}

// Probe issues a single request to validate reachability and credential
// acceptance for a provider endpoint. The response body is discarded.
func (c *Client) Probe(ctx context.Context, cfg providers.Provider) error {
	query := map[string]string{
		"limit":  "1",
		"fields": probeFields,
	}

	resp, err := c.http.Get(ctx, cfg.URL, query, requestHeaders(cfg))
	if err != nil {
		return NewConnectionError(cfg.ID, err)
	}

	if !successStatus(resp.StatusCode()) {
		if resp.StatusCode() == http.StatusNotFound {
			return NewNotFoundError(cfg.ID, resp.Status())
		}
		return NewGeneralError(cfg.ID, resp.Status(), nil)
	}
	return nil
}

// FetchPages walks the feed's offset/limit pagination and returns every raw
// page body holding items newer than since, in retrieval order. A zero since
// means "since epoch". Any failure aborts the walk; no partial result is
// returned.
func (c *Client) FetchPages(ctx context.Context, cfg providers.Provider, since time.Time) ([]string, error) {
	if since.IsZero() {
		since = time.Unix(0, 0)
	}
	start := since.UTC().Format(timestampFormat)

	var pages []string
	for offset := 0; ; {
		query := map[string]string{
			"start":  start,
			"limit":  strconv.Itoa(c.pageSize),
			"offset": strconv.Itoa(offset),
		}

		resp, err := c.http.Get(ctx, cfg.URL, query, requestHeaders(cfg))
		if err != nil {
			return nil, NewConnectionError(cfg.ID, err)
		}

		body := resp.Body()
		if !successStatus(resp.StatusCode()) {
			// The auth marker wins over the status code: the feed
			// reports a missing key as body text, not as 401/403.
			if strings.HasPrefix(string(body), authDeniedMarker) {
				return nil, NewAuthError(cfg.ID, body)
			}
			if resp.StatusCode() == http.StatusNotFound {
				return nil, NewNotFoundError(cfg.ID, resp.Status())
			}
			return nil, NewGeneralError(cfg.ID, resp.Status(), body)
		}

		total, err := pageTotal(body)
		if err != nil {
			return nil, NewGeneralError(cfg.ID, "total count missing from page", body)
		}

		if total > 0 {
			pages = append(pages, string(body))
		}

		// Advance past the page just fetched; once the next offset reaches
		// the reported total there is nothing left to request. A zero total
		// exits after the first request with no pages accumulated.
		offset += c.pageSize
		if offset >= total {
			return pages, nil
		}
	}
}

// pageTotal decodes only the top-level total field from a page body, leaving
// full decoding of the item collection to the per-page parser.
func pageTotal(body []byte) (int, error) {
	var page struct {
		Total *int `json:"total"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return 0, err
	}
	if page.Total == nil {
		return 0, fmt.Errorf("page has no total field")
	}
	return *page.Total, nil
}

func successStatus(code int) bool {
	return code >= 200 && code < 300
}

// requestHeaders combines the provider's API key with any extra headers from
// its config block.
func requestHeaders(cfg providers.Provider) map[string]string {
	headers := providers.Headers(cfg)
	headers["apikey"] = cfg.APIKey
	return headers
}
