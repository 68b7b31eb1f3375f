// Package sink defines destinations that archive a finished report in a
// database, alongside the canonical delimited output.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/leapstack-labs/statemetrics/internal/report"
)

// Table is the table every sink writes report rows to.
const Table = "state_metrics"

// Sink writes a report to a database.
type Sink interface {
	// Name returns the registered sink name.
	Name() string
	// Open connects to the destination described by dsn.
	Open(ctx context.Context, dsn string) error
	// Write stores the report's unique rows.
	Write(ctx context.Context, rep *report.Report) error
	// Close releases the connection.
	Close() error
}

// Factory creates a sink. A nil logger means discard.
type Factory func(*slog.Logger) Sink

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a sink factory to the registry.
// Called by sink implementations in their init() functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Get retrieves a sink factory by name.
func Get(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// New creates a sink by name.
func New(name string, logger *slog.Logger) (Sink, error) {
	factory, ok := Get(name)
	if !ok {
		return nil, &UnknownSinkError{Name: name, Available: List()}
	}
	return factory(logger), nil
}

// List returns all registered sink names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownSinkError is returned when an unregistered sink is requested.
type UnknownSinkError struct {
	Name      string
	Available []string
}

func (e *UnknownSinkError) Error() string {
	return fmt.Sprintf("unknown sink %q\nAvailable sinks: %v\nHint: Check the sinks section in statemetrics.yaml", e.Name, e.Available)
}

// Logger returns logger, or a discard logger when nil.
func Logger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// EnsureDir creates the parent directory of a database file.
func EnsureDir(path string) error {
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}
