package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mcdev12/pong/go/internal/pong/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the global zerolog logger described by cfg. The returned
// closer flushes the rotating file sink, if any.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writer, closer := Writer(cfg, os.Stderr)
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return closer, nil
}

// Writer builds the sink for cfg. Console output goes to console; a file
// rotates through lumberjack. With neither set, logs are discarded.
func Writer(cfg config.LoggingConfig, console io.Writer) (io.Writer, io.Closer) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		writers = append(writers, file)
		closer = file
	}

	switch len(writers) {
	case 0:
		return io.Discard, closer
	case 1:
		return writers[0], closer
	default:
		return zerolog.MultiLevelWriter(writers...), closer
	}
}
