package feed

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a feed failure so hosts can decide between retrying the
// next cycle and disabling the provider.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConnection covers transport-level failures: DNS, refused
	// connections, timeouts.
	KindConnection
	// KindAuth means the feed rejected the API key.
	KindAuth
	// KindNotFound means the endpoint answered HTTP 404.
	KindNotFound
	// KindGeneral covers any other non-success response or a malformed page.
	KindGeneral
	// KindParse means a raw page could not be turned into normalized items.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindGeneral:
		return "general"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is a classified feed failure carrying the provider identity and the
// raw response detail needed for host-side logging and alerting.
type Error struct {
	Kind       Kind
	ProviderID string
	Reason     string // HTTP reason phrase or a short description
	Body       string // response or raw page snippet, trimmed for logs
	Err        error  // wrapped cause, if any
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "feed %s error", e.Kind)
	if e.ProviderID != "" {
		fmt.Fprintf(&b, " (provider %s)", e.ProviderID)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err, or KindUnknown when err is not
// a feed error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

const maxBodySnippet = 512

// bodySnippet trims a raw body for inclusion in error payloads and logs.
func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxBodySnippet {
		return s[:maxBodySnippet] + "..."
	}
	return s
}

// NewConnectionError wraps a transport-level failure.
func NewConnectionError(providerID string, err error) *Error {
	return &Error{Kind: KindConnection, ProviderID: providerID, Err: err}
}

// NewAuthError marks a credential rejection signalled by the feed.
func NewAuthError(providerID string, body []byte) *Error {
	return &Error{Kind: KindAuth, ProviderID: providerID, Reason: "api key rejected", Body: bodySnippet(body)}
}

// NewNotFoundError marks an HTTP 404 from the feed endpoint.
func NewNotFoundError(providerID, reason string) *Error {
	return &Error{Kind: KindNotFound, ProviderID: providerID, Reason: reason}
}

// NewGeneralError marks any other non-success response or a malformed page body.
func NewGeneralError(providerID, reason string, body []byte) *Error {
	return &Error{Kind: KindGeneral, ProviderID: providerID, Reason: reason, Body: bodySnippet(body)}
}

// NewParseError wraps a parser failure together with the offending raw page.
func NewParseError(providerID string, raw []byte, err error) *Error {
	return &Error{Kind: KindParse, ProviderID: providerID, Reason: "parse raw page", Body: bodySnippet(raw), Err: err}
}
