package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const maxRenameAttempts = 100

type LocalStore struct {
	dir string
	now func() time.Time
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: abs, now: time.Now}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, filename string) (*StoredFile, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return nil, ErrInvalidName
	}

	body, mtype, err := sniff(r, name)
	if err != nil {
		return nil, err
	}

	f, stored, err := s.claim(name)
	if err != nil {
		return nil, err
	}

	size, copyErr := io.Copy(f, &ctxReader{ctx: ctx, r: body})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(filepath.Join(s.dir, stored))
		if copyErr != nil {
			return nil, fmt.Errorf("failed to write %s: %w", stored, copyErr)
		}
		return nil, fmt.Errorf("failed to close %s: %w", stored, closeErr)
	}

	return &StoredFile{
		Name:     stored,
		Location: filepath.Join(s.dir, stored),
		Mime:     mtype,
		Size:     size,
	}, nil
}

// claim creates the target file exclusively. Concurrent uploads of the same
// name each end up with their own file because O_EXCL lets exactly one
// creator win per candidate name.
func (s *LocalStore) claim(name string) (*os.File, string, error) {
	base, ext := SplitName(name)
	stamp := s.now().UTC().Format("20060102-150405")

	for i := 0; i < maxRenameAttempts; i++ {
		candidate := name
		switch {
		case i == 1:
			candidate = fmt.Sprintf("%s-%s%s", base, stamp, ext)
		case i > 1:
			candidate = fmt.Sprintf("%s-%s-%d%s", base, stamp, i, ext)
		}

		f, err := os.OpenFile(filepath.Join(s.dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("no free name for %s", name)
}

func (s *LocalStore) Delete(_ context.Context, location string) error {
	path, err := s.Resolve(filepath.Base(location))
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve maps a stored name to its path, refusing anything that would
// escape the upload directory.
func (s *LocalStore) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	if !strings.HasPrefix(path, s.dir+string(os.PathSeparator)) {
		return "", ErrInvalidName
	}
	return path, nil
}

// Sweep removes files older than maxAge for which keep returns false.
func (s *LocalStore) Sweep(ctx context.Context, maxAge time.Duration, keep func(name string) (bool, error)) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		ok, err := keep(e.Name())
		if err != nil {
			return removed, err
		}
		if ok {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
