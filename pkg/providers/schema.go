package providers

// ConnectorName is the stable identifier hosts use to register this connector.
const ConnectorName = "ldrs_http_feed"

// ConnectorLabel is the human-readable name shown in configuration UIs.
const ConnectorLabel = "LDRS HTTP Feed"

// DefaultProviderType selects the parser used when a provider declares none.
const DefaultProviderType = "ldrs"

// Field describes one provider configuration input so a host UI can render
// and validate provider setup. Metadata only; no executable logic.
type Field struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// ConfigSchema declares the provider setup fields for this connector.
func ConfigSchema() []Field {
	return []Field{
		{
			ID: "url", Type: "text", Label: "Feed URL",
			Placeholder: "Feed URL", Required: true,
			Default: "https://api.ldrs.org.uk/v1/item",
		},
		{
			ID: "api_key", Type: "text", Label: "API Key",
			Placeholder: "API Key", Required: true,
			Default: "",
		},
	}
}
