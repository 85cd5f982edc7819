// Package slogx wraps log/slog the way the teacher's utils/slogx does:
// a text handler over a per-run log file, plus small attribute helpers
// used across the engine's components. Unlike the teacher, a library
// must not mutate global logging state on import, so Setup is an
// explicit call made once by cmd/ssw instead of an init().
package slogx

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

// Setup opens (truncating) "ssw.log" under dir, installs it as the
// default slog logger and as the destination for the standard log
// package, and returns it so callers can wire it further (e.g. into a
// context). verbose drops the handler's level to Debug; otherwise it
// stays at the slog default (Info).
func Setup(dir string, verbose bool) (*slog.Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("slogx: create log dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "ssw.log"), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("slogx: open log file: %w", err)
	}

	opts := &slog.HandlerOptions{AddSource: true}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, opts))
	log.SetOutput(f)
	slog.SetDefault(logger)
	return logger, nil
}

// Error renders any error (nil-safe) as a slog attribute with a
// %+v-formatted value, so github.com/pkg/errors stack traces survive
// into the log.
func Error(err any) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", fmt.Sprintf("%+v", err))
}

// Bytes renders a byte slice as a string-valued attribute, used for
// short CNF/CEX dumps.
func Bytes(k string, b []byte) slog.Attr {
	return slog.String(k, string(b))
}
