package providers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package providers contains pluggable news source configs (YAML/JSON) and the
// fetchers that turn them into raw items.

const (
	defaultMaxItems       = 10
	defaultTimeoutSeconds = 30
)

// Provider describes one news source entry from the providers file.
type Provider struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	Category       string         `json:"category" yaml:"category"`
	Aliases        []string       `json:"aliases" yaml:"aliases"`
	MaxItems       int            `json:"max_items" yaml:"max_items"`
	TimeoutSeconds int            `json:"timeout_seconds" yaml:"timeout_seconds"`
	Enabled        *bool          `json:"enabled" yaml:"enabled"`
	Config         map[string]any `json:"config" yaml:"config"`
}

// Timeout is the per-fetch deadline for this provider.
func (p Provider) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ItemLimit caps how many items a single fetch may return.
func (p Provider) ItemLimit() int {
	if p.MaxItems <= 0 {
		return defaultMaxItems
	}
	return p.MaxItems
}

// EnabledValue returns enabled flag defaulting to true.
func (p Provider) EnabledValue() bool {
	if p.Enabled == nil {
		return true
	}
	return *p.Enabled
}

// Defaults fills provider fields left empty in the file.
type Defaults struct {
	MaxItems       int
	TimeoutSeconds int
	UserAgent      string
}

type registryFile struct {
	Providers []Provider `json:"providers" yaml:"providers"`
}

// Registry holds the providers loaded from a file, in file order.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	idx       map[string]Provider
}

// LoadRegistry loads the provider registry from a YAML/JSON file.
func LoadRegistry(path string, defaults Defaults) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("providers file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open providers file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	reg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(reg.Providers, defaults)
}

// NewRegistry validates providers and builds a registry from them.
func NewRegistry(list []Provider, defaults Defaults) (*Registry, error) {
	if len(list) == 0 {
		return nil, errors.New("providers file contains no providers entries")
	}

	reg := &Registry{
		providers: make([]Provider, 0, len(list)),
		idx:       make(map[string]Provider, len(list)),
	}
	for i := range list {
		p := sanitizeProvider(list[i], defaults)
		if err := validateProvider(p); err != nil {
			return nil, fmt.Errorf("provider[%d]: %w", i, err)
		}
		if _, exists := reg.idx[p.ID]; exists {
			return nil, fmt.Errorf("duplicate provider id %q", p.ID)
		}
		reg.providers = append(reg.providers, p)
		reg.idx[p.ID] = p
	}
	return reg, nil
}

// All returns every provider in file order.
func (r *Registry) All() []Provider {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Enabled returns providers that are not switched off.
func (r *Registry) Enabled() []Provider {
	all := r.All()
	out := make([]Provider, 0, len(all))
	for _, p := range all {
		if p.EnabledValue() {
			out = append(out, p)
		}
	}
	return out
}

// ByID returns the provider entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Provider, bool) {
	if r == nil {
		return Provider{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Provider{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idx[id]
	return p, ok
}

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("providers file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s providers: %w", name, err)
	}
	return reg, nil
}

func sanitizeProvider(p Provider, defaults Defaults) Provider {
	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.SourceURL = strings.TrimSpace(p.SourceURL)
	p.Category = strings.TrimSpace(p.Category)

	aliases := make([]string, 0, len(p.Aliases))
	for _, a := range p.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	p.Aliases = aliases

	if p.Config == nil {
		p.Config = map[string]any{}
	}
	if p.MaxItems <= 0 {
		p.MaxItems = defaults.MaxItems
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if defaults.UserAgent != "" && ConfigString(p, ConfigUserAgentKey, "") == "" {
		p.Config[ConfigUserAgentKey] = defaults.UserAgent
	}

	return p
}

func validateProvider(p Provider) error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required for provider %q", p.ID)
	}
	if p.Type == "" {
		return fmt.Errorf("type is required for provider %q", p.ID)
	}
	if p.SourceURL == "" {
		return fmt.Errorf("source_url is required for provider %q", p.ID)
	}
	if p.Category == "" {
		return fmt.Errorf("category is required for provider %q", p.ID)
	}
	return nil
}
