package providers

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRegistryFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeRegistryFile(t, "providers.yaml", `
providers:
  - id: ldrs-east
    name: LDRS East
    type: LDRS
    url: https://feed.example/v1/item
    api_key: key-east
    config:
      user_agent: samvad-connector/1.0
  - id: ldrs-west
    name: LDRS West
    url: https://feed.example/v1/item
    api_key: key-west
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if got := len(reg.All()); got != 2 {
		t.Fatalf("expected 2 providers, got %d", got)
	}

	east, ok := reg.ByID("ldrs-east")
	if !ok {
		t.Fatal("ldrs-east not found")
	}
	if east.Type != DefaultProviderType {
		t.Errorf("type not lowercased, got %q", east.Type)
	}

	west, ok := reg.ByID("ldrs-west")
	if !ok {
		t.Fatal("ldrs-west not found")
	}
	if west.Type != DefaultProviderType {
		t.Errorf("expected default type for empty type, got %q", west.Type)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeRegistryFile(t, "providers.json", `{
  "providers": [
    {"id": "p1", "name": "P1", "url": "https://feed.example", "api_key": "k1"}
  ]
}`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if _, ok := reg.ByID("p1"); !ok {
		t.Fatal("p1 not found")
	}
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"missing api_key", "providers.yaml", `
providers:
  - id: p1
    name: P1
    url: https://feed.example
`},
		{"missing url", "providers.yaml", `
providers:
  - id: p1
    name: P1
    api_key: k1
`},
		{"duplicate id", "providers.yaml", `
providers:
  - {id: p1, name: P1, url: https://feed.example, api_key: k1}
  - {id: p1, name: P2, url: https://feed.example, api_key: k2}
`},
		{"no entries", "providers.yaml", `providers: []`},
		{"unparseable", "providers.yaml", `providers: [`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRegistryFile(t, tc.file, tc.content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHeadersFromConfig(t *testing.T) {
	cfg := Provider{
		ID: "p1",
		Config: map[string]any{
			ConfigUserAgentKey:      "samvad-connector/1.0",
			ConfigAcceptLanguageKey: "en-GB",
		},
	}

	headers := Headers(cfg)
	if headers["User-Agent"] != "samvad-connector/1.0" {
		t.Errorf("unexpected User-Agent %q", headers["User-Agent"])
	}
	if headers["Accept-Language"] != "en-GB" {
		t.Errorf("unexpected Accept-Language %q", headers["Accept-Language"])
	}
	if _, ok := headers["Accept"]; ok {
		t.Error("Accept should be absent when unconfigured")
	}
	if _, ok := headers["apikey"]; ok {
		t.Error("apikey must not be set by Headers")
	}
}

func TestConfigSchemaRequiredFields(t *testing.T) {
	fields := ConfigSchema()
	byID := make(map[string]Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	urlField, ok := byID["url"]
	if !ok || !urlField.Required || urlField.Default == "" {
		t.Errorf("url field misconfigured: %#v", urlField)
	}
	keyField, ok := byID["api_key"]
	if !ok || !keyField.Required {
		t.Errorf("api_key field misconfigured: %#v", keyField)
	}
}
