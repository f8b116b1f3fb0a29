package publish

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const cbzContentType = "application/vnd.comicbook+zip"

type Bucket struct {
	url    string
	bucket *blob.Bucket
}

// OpenBucket accepts any gocloud blob URL, e.g. file:///srv/manga,
// s3://bucket?region=eu-west-1, gs://bucket or mem://.
func OpenBucket(ctx context.Context, bucketURL string) (*Bucket, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open bucket %s", bucketURL)
	}
	return &Bucket{url: bucketURL, bucket: bucket}, nil
}

func (publisher *Bucket) Name() string {
	return "bucket " + publisher.url
}

func ObjectKey(item Item) string {
	return path.Join(manga.Sanitize(item.Work), filepath.Base(item.ArchivePath))
}

func (publisher *Bucket) Publish(ctx context.Context, item Item) error {
	file, err := os.Open(item.ArchivePath)
	if err != nil {
		return errors.Wrap(err, "unable to open archive")
	}
	defer file.Close()

	writer, err := publisher.bucket.NewWriter(ctx, ObjectKey(item), &blob.WriterOptions{ContentType: cbzContentType})
	if err != nil {
		return errors.Wrap(err, "unable to create object writer")
	}

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return errors.Wrap(err, "error uploading archive")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "error finishing upload")
	}

	return nil
}

func (publisher *Bucket) Bucket() *blob.Bucket {
	return publisher.bucket
}

func (publisher *Bucket) Close() error {
	return publisher.bucket.Close()
}
