package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FieldRunID     = "run_id"
	FieldSite      = "site"
	FieldWork      = "work"
	FieldChapter   = "chapter"
	FieldURL       = "url"
	FieldState     = "state"
	FieldAttempt   = "attempt"
	FieldIndex     = "index"
	FieldCount     = "count"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldPublisher = "publisher"
)

type Options struct {
	Verbose bool
	JSON    bool
	Output  io.Writer
}

func New(options Options) *zap.Logger {
	level := zap.InfoLevel
	if options.Verbose {
		level = zap.DebugLevel
	}

	output := options.Output
	if output == nil {
		output = os.Stderr
	}

	var encoder zapcore.Encoder
	if options.JSON {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		config := zap.NewDevelopmentEncoderConfig()
		config.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		config.EncodeCaller = nil
		encoder = zapcore.NewConsoleEncoder(config)
	}

	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(output), level))
}

// OrNop lets components accept a nil logger.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
