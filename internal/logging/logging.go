// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"golang.org/x/term"
)

// Destinations understood by Setup. Any other value is a file path.
const (
	DstStderr = "stderr"
	DstStdout = "stdout"
	DstSyslog = "syslog"
)

// TimeFormat is used for console timestamps.
const TimeFormat = "15:04:05.000"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup points the global logger at dst with the given level. The returned
// Closer releases a log file, if one was opened.
//
// The MCP transport owns stdout, so servers should log to stderr, syslog or
// a file.
func Setup(level, dst, tag string) (io.Closer, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var (
		writer   io.Writer
		closer   io.Closer = nopCloser{}
		withTime           = true
	)

	switch dst {
	case DstSyslog:
		syslogger, err := syslog.New(syslog.LOG_INFO, tag)
		if err != nil {
			closer, setupErr := Setup(level, DstStderr, tag)
			if setupErr != nil {
				return nil, setupErr
			}
			log.Warn().Err(err).Msg("unable to use syslog: switched to stderr")
			return closer, nil
		}

		withTime = false
		writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.NoColor = true
			w.PartsExclude = []string{zerolog.TimestampFieldName}
			w.Out = zerolog.SyslogLevelWriter(syslogger)
		})
		closer = syslogger
	case DstStdout:
		writer = consoleWriter(os.Stdout)
	case DstStderr, "":
		writer = consoleWriter(os.Stderr)
	default:
		f, err := os.OpenFile(dst, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("unable to open %s: %w", dst, err)
		}
		writer = f
		closer = f
	}

	zerolog.SetGlobalLevel(lvl)

	if withTime {
		log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(writer)
	}

	return closer, nil
}

// SetLevel changes the global level, e.g. after the config file changed.
func SetLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func consoleWriter(f *os.File) io.Writer {
	zerolog.TimeFieldFormat = TimeFormat
	return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.TimeFormat = TimeFormat
		w.Out = f
		w.NoColor = !term.IsTerminal(int(f.Fd()))
	})
}
