package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.dedis.ch/dela"
	"golang.org/x/xerrors"
)

// Options of the process logger.
type Options struct {
	// Level is parsed by zerolog, "" keeps the level set by the LLVL
	// environment variable.
	Level string
	// Console enables the human readable output.
	Console bool
	// Output defaults to stdout.
	Output io.Writer
}

// Setup installs the process logger as the global logger and returns it.
// The logger is derived from the dela one so that dela's LLVL variable keeps
// working.
func Setup(opts Options) (zerolog.Logger, error) {
	logger := dela.Logger

	out := opts.Output
	if out == nil && opts.Console {
		out = os.Stdout
	}

	if out != nil {
		if opts.Console {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}
		logger = logger.Output(out)
	}

	if opts.Level != "" {
		level, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return logger, xerrors.Errorf("invalid log level %q: %v", opts.Level, err)
		}
		logger = logger.Level(level)
	}

	log.Logger = logger

	return logger, nil
}
