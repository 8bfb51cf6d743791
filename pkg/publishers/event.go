package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-feed-connector/internal/domain"
)

// Event represents the payload published downstream.
type Event struct {
	ProviderID   string      `json:"provider_id"`
	ProviderName string      `json:"provider_name"`
	Item         domain.Item `json:"item"`
	CollectedAt  time.Time   `json:"collected_at"`
}

// NewEvent constructs an Event for the given provider + item.
func NewEvent(providerID, providerName string, item domain.Item) Event {
	return Event{
		ProviderID:   providerID,
		ProviderName: providerName,
		Item:         item,
		CollectedAt:  time.Now().UTC(),
	}
}
