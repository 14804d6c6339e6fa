package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"workcal/internal/core"
)

const (
	filePrefix = "workcal-backup-"
	fileSuffix = ".json"
	fileStamp  = "20060102-150405.000"
)

// ImportError is returned when a backup cannot be imported. The store is
// left as it was.
type ImportError struct {
	Source string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("import %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("import backup: %v", e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

type (
	// Source supplies the collection to export.
	Source interface {
		ListAll(ctx context.Context) ([]core.Appointment, error)
	}

	// Replacer swaps the whole collection atomically.
	Replacer interface {
		Replace(ctx context.Context, as []core.Appointment) error
	}
)

// Service runs export and import against a store.
type Service struct {
	src Source
	dst Replacer
	now func() time.Time
}

func NewService(src Source, dst Replacer) *Service {
	return &Service{src: src, dst: dst, now: time.Now}
}

// Export writes the current collection to w.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	all, err := s.src.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load appointments: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := Encode(w, all, s.now()); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Backup exported", "count", len(all))
	return len(all), nil
}

// Import replaces the collection with the contents of r. A nil reader means
// nothing was picked and is not an error.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	return s.importFrom(ctx, r, "")
}

func (s *Service) importFrom(ctx context.Context, r io.Reader, source string) (int, error) {
	if r == nil {
		slog.DebugContext(ctx, "Import skipped, no source")
		return 0, nil
	}
	all, err := Decode(r)
	if err != nil {
		return 0, &ImportError{Source: source, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.dst.Replace(ctx, all); err != nil {
		return 0, fmt.Errorf("replace appointments: %w", err)
	}
	slog.InfoContext(ctx, "Backup imported", "count", len(all), "source", source)
	return len(all), nil
}

// ExportFile writes a timestamped backup into dir and returns its path.
// The file appears atomically.
func (s *Service) ExportFile(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	var buf bytes.Buffer
	if _, err := s.Export(ctx, &buf); err != nil {
		return "", err
	}
	return writeAtomic(dir, FileName(s.now()), buf.Bytes())
}

// WriteFile writes an already encoded backup into dir.
func WriteFile(dir string, at time.Time, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	return writeAtomic(dir, FileName(at), data)
}

func writeAtomic(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, ".tmp-"+filePrefix+"*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return path, nil
}

// ImportFile imports the backup at path. An empty path is a no-op.
func (s *Service) ImportFile(ctx context.Context, path string) (int, error) {
	if path == "" {
		return 0, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()
	return s.importFrom(ctx, f, path)
}

// FileName returns the backup file name for a given export time.
func FileName(at time.Time) string {
	return filePrefix + at.UTC().Format(fileStamp) + fileSuffix
}

// Prune removes all but the newest keep backups in dir. keep <= 0 keeps everything.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if !e.IsDir() && strings.HasPrefix(n, filePrefix) && strings.HasSuffix(n, fileSuffix) {
			names = append(names, n)
		}
	}
	if len(names) <= keep {
		return nil, nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var removed []string
	for _, n := range names[keep:] {
		path := filepath.Join(dir, n)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", n, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
