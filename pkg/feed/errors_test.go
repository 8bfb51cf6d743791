package feed

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOfClassifiesWrappedErrors(t *testing.T) {
	base := NewNotFoundError("p1", "404 Not Found")
	wrapped := fmt.Errorf("sync provider p1: %w", base)

	if got := KindOf(wrapped); got != KindNotFound {
		t.Fatalf("KindOf(wrapped) = %v, want %v", got, KindNotFound)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Fatalf("KindOf(plain) = %v, want %v", got, KindUnknown)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Fatalf("KindOf(nil) = %v, want %v", got, KindUnknown)
	}
}

func TestErrorMessageCarriesContext(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewConnectionError("p1", cause)

	msg := err.Error()
	if !strings.Contains(msg, "connection") || !strings.Contains(msg, "p1") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
}

func TestBodySnippetTruncatesLongBodies(t *testing.T) {
	long := strings.Repeat("x", 2*maxBodySnippet)
	err := NewGeneralError("p1", "500 Internal Server Error", []byte(long))

	if len(err.Body) != maxBodySnippet+len("...") {
		t.Fatalf("body not trimmed, len=%d", len(err.Body))
	}
}

func TestKindStrings(t *testing.T) {
	tests := map[Kind]string{
		KindConnection: "connection",
		KindAuth:       "auth",
		KindNotFound:   "not_found",
		KindGeneral:    "general",
		KindParse:      "parse",
		KindUnknown:    "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
