package parsers

import (
	"github.com/samvad-hq/samvad-feed-connector/internal/domain"
	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

// Parser turns one raw feed page into normalized items. It owns the item
// splitting and field mapping for a particular feed shape; concrete
// implementations live in shape-specific files (e.g., ldrs.go).
type Parser interface {
	Type() string
	Parse(page []byte) ([]domain.Item, error)
}

// Registry resolves the parser implementation for a given provider config.
type Registry interface {
	ParserFor(cfg providers.Provider) (Parser, error)
}
