package manga

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	site Site
}

func (adapter stubAdapter) Site() Site { return adapter.site }

func (adapter stubAdapter) Search(ctx context.Context, page Page, query string) ([]SearchResult, error) {
	return nil, nil
}

func (adapter stubAdapter) ListChapters(ctx context.Context, page Page, workURL string) ([]Chapter, error) {
	return nil, nil
}

func (adapter stubAdapter) ExtractPageImageURLs(ctx context.Context, page Page, chapterURL string) ([]string, error) {
	return nil, nil
}

func TestRegistryLookup(t *testing.T) {
	registry, err := NewRegistry(
		stubAdapter{site: Site{Key: "zeta", Name: "Zeta", BaseURL: "https://zeta.example"}},
		stubAdapter{site: Site{Key: "alpha", Name: "Alpha", BaseURL: "https://alpha.example"}},
	)
	require.NoError(t, err)

	adapter, err := registry.Lookup("ALPHA ")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", adapter.Site().Name)

	_, err = registry.Lookup("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSite))
	assert.Contains(t, errors.FlattenHints(err), "mangadl sites")

	assert.Equal(t, []string{"alpha", "zeta"}, registry.Keys())
}

func TestRegistryRejectsInvalidSites(t *testing.T) {
	_, err := NewRegistry(
		stubAdapter{site: Site{Key: "dup", BaseURL: "https://one.example"}},
		stubAdapter{site: Site{Key: "dup", BaseURL: "https://two.example"}},
	)
	assert.ErrorContains(t, err, "duplicate site key")

	_, err = NewRegistry(stubAdapter{site: Site{Key: "Upper", BaseURL: "https://one.example"}})
	assert.ErrorContains(t, err, "lowercase")

	_, err = NewRegistry(stubAdapter{site: Site{Key: "rel", BaseURL: "/relative"}})
	assert.ErrorContains(t, err, "invalid base url")

	_, err = NewRegistry(stubAdapter{site: Site{Key: "", BaseURL: "https://one.example"}})
	assert.ErrorContains(t, err, "empty")
}
