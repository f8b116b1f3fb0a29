package manga

import "github.com/cockroachdb/errors"

var (
	ErrUnknownSite            = errors.New("unknown site")
	ErrSearchUnavailable      = errors.New("search unavailable")
	ErrNoWorkFound            = errors.New("no work found")
	ErrInvalidChoice          = errors.New("invalid choice")
	ErrChapterListUnavailable = errors.New("chapter list unavailable")
	ErrRangeEmpty             = errors.New("range selects no chapters")

	ErrNoImagesFound      = errors.New("no images found")
	ErrArchiveWriteFailed = errors.New("archive write failed")

	ErrImageDownloadFailed = errors.New("image download failed")
)

// IsFatal reports whether err ends the whole run rather than a single chapter.
func IsFatal(err error) bool {
	return errors.IsAny(err,
		ErrUnknownSite,
		ErrSearchUnavailable,
		ErrNoWorkFound,
		ErrInvalidChoice,
		ErrChapterListUnavailable,
		ErrRangeEmpty,
	)
}
