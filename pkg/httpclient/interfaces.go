package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// A non-nil error indicates a transport-level failure (DNS, refused connection,
// timeout); HTTP-level failures are reported through the Response status.
type Client interface {
	Get(ctx context.Context, url string, query, headers map[string]string) (Response, error)
}
