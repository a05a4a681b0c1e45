package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/unicode/norm"
)

// FileStore persists uploaded resource files.
type FileStore interface {
	// Save writes r under a name derived from filename. The store never
	// overwrites an existing object: a colliding name gets a timestamp suffix.
	Save(ctx context.Context, r io.Reader, filename string) (*StoredFile, error)
	// Delete removes the object at location (a path or URL returned by Save).
	Delete(ctx context.Context, location string) error
}

// StoredFile describes an object written by a FileStore.
type StoredFile struct {
	Name     string // name the object is addressed by
	Location string // local path or remote URL
	Mime     string
	Size     int64
}

var ErrInvalidName = errors.New("invalid file name")

const sniffLen = 3072

// sniff peeks at the head of r to detect the content type and returns a
// reader that still yields the full stream.
func sniff(r io.Reader, filename string) (io.Reader, string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", err
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	mtype := detected.String()
	if detected.Is("application/octet-stream") || detected.Is("text/plain") {
		if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
			mtype = byExt
		}
	}
	if i := strings.Index(mtype, ";"); i >= 0 {
		mtype = strings.TrimSpace(mtype[:i])
	}

	return io.MultiReader(bytes.NewReader(head), r), mtype, nil
}

// SanitizeFilename reduces an uploaded name to a safe basename made of ASCII
// letters, digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = norm.NFKD.String(name)

	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.Trim(b.String(), "._")
	if out == "" || out == "." || out == ".." {
		return ""
	}
	return out
}

// SplitName splits a filename into base and lower-cased extension.
func SplitName(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToLower(ext)
}
