package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"

	"github.com/ssh-vom/mangadl/internal/logging"
	"github.com/ssh-vom/mangadl/internal/providers/manga"
)

const Extension = ".cbz"

type Archive struct {
	Path       string
	ImageCount int
	Bytes      int64
}

type Archiver struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Archiver {
	return &Archiver{logger: logging.OrNop(logger)}
}

// Package zips every regular file in stagingDir into outputPath in filename
// order and removes stagingDir once the archive is in place. On failure the
// staging directory is left untouched.
func (archiver *Archiver) Package(stagingDir, outputPath string) (Archive, error) {
	names, err := stagedFiles(stagingDir)
	if err != nil {
		return Archive{}, errors.Mark(err, manga.ErrArchiveWriteFailed)
	}

	size, err := writeCBZ(stagingDir, names, outputPath)
	if err != nil {
		return Archive{}, errors.Mark(errors.Wrapf(err, "error creating %s", outputPath), manga.ErrArchiveWriteFailed)
	}

	if err := os.RemoveAll(stagingDir); err != nil {
		archiver.logger.Warn("unable to remove staging dir",
			zap.String(logging.FieldPath, stagingDir),
			zap.Error(err),
		)
	}

	archiver.logger.Debug("archive written",
		zap.String(logging.FieldPath, outputPath),
		zap.Int(logging.FieldCount, len(names)),
	)
	return Archive{Path: outputPath, ImageCount: len(names), Bytes: size}, nil
}

func stagedFiles(stagingDir string) ([]string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read staging dir")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func writeCBZ(stagingDir string, names []string, outputPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return 0, errors.Wrap(err, "unable to create output dir")
	}

	partial, err := os.CreateTemp(filepath.Dir(outputPath), filepath.Base(outputPath)+".*.part")
	if err != nil {
		return 0, errors.Wrap(err, "unable to create archive file")
	}
	partialPath := partial.Name()

	if err := writeEntries(partial, stagingDir, names); err != nil {
		partial.Close()
		os.Remove(partialPath)
		return 0, err
	}

	info, statErr := partial.Stat()
	if err := errors.CombineErrors(partial.Close(), statErr); err != nil {
		os.Remove(partialPath)
		return 0, errors.Wrap(err, "error finishing archive file")
	}

	if err := os.Rename(partialPath, outputPath); err != nil {
		os.Remove(partialPath)
		return 0, errors.Wrap(err, "unable to move archive into place")
	}

	return info.Size(), nil
}

func writeEntries(output io.Writer, stagingDir string, names []string) error {
	zipWriter := zip.NewWriter(output)
	zipWriter.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	for _, name := range names {
		if err := addEntry(zipWriter, filepath.Join(stagingDir, name), name); err != nil {
			return err
		}
	}

	if err := zipWriter.Close(); err != nil {
		return errors.Wrap(err, "error closing zip writer")
	}
	return nil
}

func addEntry(zipWriter *zip.Writer, sourcePath, name string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", name)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Wrapf(err, "unable to stat %s", name)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "error building zip header for %s", name)
	}
	header.Name = name
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return errors.Wrapf(err, "error creating zip entry %s", name)
	}
	if _, err := io.Copy(writer, source); err != nil {
		return errors.Wrapf(err, "error writing image data for %s", name)
	}

	return nil
}
