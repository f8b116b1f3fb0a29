package main

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/boox"
	"github.com/ssh-vom/mangadl/internal/config"
	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
	"github.com/ssh-vom/mangadl/internal/providers/manga/mangadex"
	"github.com/ssh-vom/mangadl/internal/providers/manga/selector"
	"github.com/ssh-vom/mangadl/internal/publish"
)

func newHTTPClient(cfg config.Config) *http.Client {
	return &http.Client{Timeout: cfg.RequestTimeout}
}

// buildRegistry registers the built-in sites, the user's site file and MangaDex.
func buildRegistry(cfg config.Config, httpClient *http.Client, logger *zap.Logger) (*manga.Registry, error) {
	configs := selector.Builtins()
	if cfg.SitesFile != "" {
		userSites, err := selector.LoadFile(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		configs = append(configs, userSites...)
	}

	adapters := make([]manga.Adapter, 0, len(configs)+1)
	for _, siteConfig := range configs {
		adapter, err := selector.New(siteConfig)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	adapters = append(adapters, mangadex.New(mangadex.Options{
		HTTPClient: httpClient,
		APIKey:     cfg.Providers.MangaDexAPIKey,
		Language:   cfg.Providers.MangaDexLanguage,
		Logger:     logger,
	}))

	return manga.NewRegistry(adapters...)
}

// buildPublisher returns nil when no publishing target is configured.
// The returned cleanup must always be called.
func buildPublisher(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *zap.Logger) (publish.Publisher, func(), error) {
	var publishers publish.Multi
	cleanup := func() {}

	if cfg.Publish.BucketURL != "" {
		bucket, err := publish.OpenBucket(ctx, cfg.Publish.BucketURL)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() {
			if err := bucket.Close(); err != nil {
				logger.Warn("unable to close bucket", zap.Error(err))
			}
		}
		publishers = append(publishers, bucket)
	}

	if cfg.BooxConfigured() {
		baseURL, err := cfg.BooxBaseURL()
		if err != nil {
			return nil, cleanup, err
		}
		client := boox.NewClient(baseURL, httpClient)
		details, err := client.CheckConnection(ctx)
		if err != nil {
			logger.Warn("boox tablet unreachable, uploads disabled", zap.String(logging.FieldURL, baseURL), zap.Error(err))
		} else {
			logger.Info("connected to boox tablet", zap.String("model", details.Model))
			publishers = append(publishers, publish.NewBoox(client, logger))
		}
	}

	switch len(publishers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return publishers[0], cleanup, nil
	default:
		return publishers, cleanup, nil
	}
}

func isCancelled(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}
