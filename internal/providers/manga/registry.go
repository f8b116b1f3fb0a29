package manga

import (
	"net/url"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	registry := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, adapter := range adapters {
		if err := registry.add(adapter); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

func (registry *Registry) add(adapter Adapter) error {
	if adapter == nil {
		return errors.New("nil adapter")
	}

	site := adapter.Site()
	if err := validateSite(site); err != nil {
		return err
	}
	if _, exists := registry.adapters[site.Key]; exists {
		return errors.Newf("duplicate site key %q", site.Key)
	}

	registry.adapters[site.Key] = adapter
	return nil
}

func validateSite(site Site) error {
	if site.Key == "" {
		return errors.New("site key is empty")
	}
	if site.Key != strings.ToLower(site.Key) || strings.ContainsAny(site.Key, " \t") {
		return errors.Newf("site key %q must be a short lowercase identifier", site.Key)
	}

	parsed, err := url.Parse(site.BaseURL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return errors.Newf("site %q has invalid base url %q", site.Key, site.BaseURL)
	}

	return nil
}

func (registry *Registry) Lookup(key string) (Adapter, error) {
	adapter, ok := registry.adapters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, errors.WithHint(
			errors.Wrapf(ErrUnknownSite, "%q", key),
			"run `mangadl sites` to list the supported sites",
		)
	}

	return adapter, nil
}

func (registry *Registry) Sites() []Site {
	sites := make([]Site, 0, len(registry.adapters))
	for _, adapter := range registry.adapters {
		sites = append(sites, adapter.Site())
	}
	sort.Slice(sites, func(i, j int) bool {
		return sites[i].Key < sites[j].Key
	})

	return sites
}

func (registry *Registry) Keys() []string {
	sites := registry.Sites()
	keys := make([]string, 0, len(sites))
	for _, site := range sites {
		keys = append(keys, site.Key)
	}

	return keys
}
