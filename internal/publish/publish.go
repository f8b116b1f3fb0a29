package publish

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Item is one packaged chapter ready to be handed to a destination.
type Item struct {
	Work        string
	Chapter     string
	ArchivePath string
}

type Publisher interface {
	Name() string
	Publish(ctx context.Context, item Item) error
}

type Multi []Publisher

func (multi Multi) Name() string {
	return "multi"
}

func (multi Multi) Publish(ctx context.Context, item Item) error {
	var errs []error
	for _, publisher := range multi {
		if err := publisher.Publish(ctx, item); err != nil {
			errs = append(errs, errors.Wrapf(err, "%s", publisher.Name()))
		}
	}
	return errors.Join(errs...)
}
