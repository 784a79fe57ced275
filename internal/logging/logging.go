// =============================================================================
// SUNAT Detracciones - Logging
// =============================================================================
//
// This module builds the logrus logger shared by the CLI and the pipeline.
// Components receive it as a logrus.FieldLogger and add their own
// "component" and "run_id" fields.
//
// =============================================================================

package logging

import (
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// New creates a logger writing to out (stderr when nil).
//
// PARAMETERS:
//   - level: A logrus level name ("debug", "info", "warn", ...).
//   - format: "text" or "json".
//   - out: The destination of the log entries.
//
// RETURNS:
//   - The configured logger.
//   - An error if the level or the format is unknown.
func New(level, format string, out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	if out == nil {
		out = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("unknown log format %q", format)
	}
	return logger, nil
}
