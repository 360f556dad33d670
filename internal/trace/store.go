// File: internal/trace/store.go
package trace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpcloud/tail"
	homedir "github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/warden-cli/api/schemas"
)

// FileName is the JSONL trace log inside the configured directory.
const FileName = "trace.jsonl"

// Store is the append-only JSONL trace log. Every append opens, writes one
// line, and closes - no long-held handle - so a concurrent reader always
// observes a consistent prefix. The store assumes a single writer; a
// multi-writer deployment needs external mutual exclusion.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore resolves (expanding ~) and creates the trace directory.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("trace directory cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand trace directory %q: %w", dir, err)
	}
	if err := os.MkdirAll(expanded, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory %q: %w", expanded, err)
	}
	return &Store{dir: expanded, logger: logger.Named("trace")}, nil
}

// Path returns the absolute-ish path of the trace file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Append writes one record as a single JSONL line, open-append-close.
func (s *Store) Append(rec schemas.TraceRecord) error {
	line, err := schemas.MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal trace record: %w", err)
	}

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append trace record: %w", err)
	}
	return nil
}

// Clear truncates the log to empty, creating the file if absent. It is
// idempotent and is the only sanctioned way to discard records, intended
// for use between evaluation batches.
func (s *Store) Clear() error {
	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to clear trace file: %w", err)
	}
	return f.Close()
}

// ReadAll returns every well-formed record in append order. Malformed lines
// are logged and skipped rather than failing the read; a missing file is an
// empty log.
func (s *Store) ReadAll() ([]schemas.TraceRecord, error) {
	f, err := os.Open(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	var records []schemas.TraceRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec, err := schemas.UnmarshalRecord(line)
		if err != nil {
			s.logger.Warn("Skipping malformed trace line", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to scan trace file: %w", err)
	}
	return records, nil
}

// Tail returns the raw text of the last n lines.
func (s *Store) Tail(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	f, err := os.Open(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("failed to scan trace file: %w", err)
	}
	return lines, nil
}

// Follow streams new trace lines as they are appended, invoking fn per
// line, until the context is cancelled. It starts at the current end of
// file and survives log truncation (Clear re-opens).
func (s *Store) Follow(ctx context.Context, fn func(line string)) error {
	t, err := tail.TailFile(s.Path(), tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: 2},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail trace file: %w", err)
	}
	defer func() {
		t.Cleanup()
		if stopErr := t.Stop(); stopErr != nil {
			s.logger.Debug("Error stopping trace tail", zap.Error(stopErr))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				s.logger.Warn("Trace tail read error", zap.Error(line.Err))
				continue
			}
			if line.Text != "" {
				fn(line.Text)
			}
		}
	}
}
