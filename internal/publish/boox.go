package publish

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/boox"
	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

// Boox uploads archives into one library folder per work on a Boox tablet.
type Boox struct {
	client *boox.Client
	logger *zap.Logger

	mu      sync.Mutex
	folders map[string]string
}

func NewBoox(client *boox.Client, logger *zap.Logger) *Boox {
	return &Boox{client: client, logger: logging.OrNop(logger), folders: map[string]string{}}
}

func (publisher *Boox) Name() string {
	return "boox " + publisher.client.BaseURL()
}

func (publisher *Boox) Publish(ctx context.Context, item Item) error {
	folderID := publisher.folderFor(ctx, manga.Sanitize(item.Work))

	file, err := os.Open(item.ArchivePath)
	if err != nil {
		return errors.Wrap(err, "unable to open archive")
	}
	defer file.Close()

	if err := publisher.client.UploadFile(ctx, folderID, filepath.Base(item.ArchivePath), file); err != nil {
		return errors.Wrap(err, "error uploading CBZ file")
	}
	return nil
}

func (publisher *Boox) folderFor(ctx context.Context, folderName string) string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()

	if folderID, ok := publisher.folders[folderName]; ok {
		return folderID
	}

	folderID, err := publisher.client.CreateFolder(ctx, nil, folderName)
	if err != nil {
		publisher.logger.Warn("unable to create folder, uploading to root",
			zap.String(logging.FieldWork, folderName),
			zap.Error(err),
		)
		return ""
	}

	publisher.folders[folderName] = folderID
	return folderID
}
