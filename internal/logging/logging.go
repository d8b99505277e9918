package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// Setup configures the process logger. Format is "text" (default) or "json".
func Setup(level, format string, out io.Writer) error {
	if out == nil {
		out = os.Stderr
	}
	base.SetOutput(out)

	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		lvl = parsed
	}
	base.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("log format %q: expected text or json", format)
	}
	return nil
}

// For returns a logger tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Logger exposes the process logger, mainly for tests that need to capture output.
func Logger() *logrus.Logger {
	return base
}
