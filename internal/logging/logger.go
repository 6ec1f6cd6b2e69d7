// Package logging configures the process-wide zerolog logger and keeps a
// bounded in-memory copy of recent lines for interactive views.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSinkSize is the number of recent lines a Sink keeps.
const DefaultSinkSize = 200

// Options configures Setup.
type Options struct {
	Level    string // debug|info|warn|error
	File     string // optional log file, appended to
	Console  bool   // write human-readable lines to stderr
	SinkSize int
}

// ParseLevel maps a level name to a zerolog level. Unknown names give info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Setup installs the global logger described by opts and returns the sink
// every line is copied into. The returned closer releases the log file.
func Setup(opts Options) (*Sink, io.Closer, error) {
	size := opts.SinkSize
	if size <= 0 {
		size = DefaultSinkSize
	}
	sink := NewSink(size)

	// The sink holds readable lines for interactive views; the file keeps JSON.
	writers := []io.Writer{zerolog.ConsoleWriter{Out: sink, NoColor: true, TimeFormat: time.Kitchen}}
	var closer io.Closer = nopCloser{}

	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return sink, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Sink is a ring of recent log lines. Writes never block on readers and
// never fail.
type Sink struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool
	total int64
}

// NewSink returns a sink holding at most size lines.
func NewSink(size int) *Sink {
	if size <= 0 {
		size = DefaultSinkSize
	}
	return &Sink{lines: make([]string, size)}
}

// Write stores p as one line.
func (s *Sink) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")

	s.mu.Lock()
	s.lines[s.next] = line
	s.next = (s.next + 1) % len(s.lines)
	if s.next == 0 {
		s.full = true
	}
	s.total++
	s.mu.Unlock()
	return len(p), nil
}

// Lines returns up to n recent lines, oldest first. n <= 0 returns all.
func (s *Sink) Lines(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ordered []string
	if s.full {
		ordered = append(ordered, s.lines[s.next:]...)
	}
	ordered = append(ordered, s.lines[:s.next]...)

	if n > 0 && n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// Total counts every line ever written.
func (s *Sink) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
