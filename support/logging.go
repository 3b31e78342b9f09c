package support

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func NewLogger(cfg LogConfig) (zerolog.Logger, error) {
	return NewLoggerTo(cfg, os.Stderr)
}

// NewLoggerTo builds the logger writing to out instead of stderr.
func NewLoggerTo(cfg LogConfig, out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	switch cfg.Format {
	case "json":
	case "console", "":
		out = zerolog.ConsoleWriter{Out: out, NoColor: true}
	default:
		return zerolog.Nop(), errors.Errorf("unsupported log format %q", cfg.Format)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
