package parsers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-feed-connector/pkg/providers"
)

// parserRegistry implements Registry.
type parserRegistry struct {
	parsersByType map[string]Parser
	mu            sync.RWMutex
}

// NewRegistry builds a registry for the provided parser implementations keyed
// by their declared type.
func NewRegistry(parsers ...Parser) Registry {
	reg := &parserRegistry{
		parsersByType: make(map[string]Parser),
	}

	for _, p := range parsers {
		reg.register(p)
	}

	return reg
}

func (r *parserRegistry) register(p Parser) {
	if p == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(p.Type()))
	if key == "" {
		return
	}

	r.mu.Lock()
	r.parsersByType[key] = p
	r.mu.Unlock()
}

// ParserFor selects the parser for the given provider based on its type.
func (r *parserRegistry) ParserFor(cfg providers.Provider) (Parser, error) {
	if r == nil {
		return nil, fmt.Errorf("parser registry is nil")
	}

	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		key = providers.DefaultProviderType
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsersByType[key]; ok {
		return p, nil
	}

	return nil, fmt.Errorf("no parser registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultRegistry wires up known feed parsers.
func DefaultRegistry() Registry {
	return NewRegistry(NewLDRSParser())
}
