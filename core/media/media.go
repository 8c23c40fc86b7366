// Package media enforces the upload policy for images and hands accepted files to a Store.
package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultMaxSize is the upload ceiling (5 MiB).
const DefaultMaxSize int64 = 5 * 1024 * 1024

// Error is an upload rejection. Its message is safe to show to callers.
type Error struct {
	message string
}

func (err Error) Error() string {
	return err.message
}

var (
	ErrNoFile               = &Error{message: "No file uploaded"}
	ErrUnsupportedMediaType = &Error{message: "Invalid file type. Only JPEG, PNG, and JPG are allowed."}
	ErrPayloadTooLarge      = &Error{message: "File size exceeds the limit of 5MB"}

	// ErrNotFound is returned by stores when no file has the requested name.
	ErrNotFound = errors.New("file not found")

	allowedTypes = map[string]string{
		"image/jpeg": ".jpeg",
		"image/png":  ".png",
		"image/jpg":  ".jpg",
	}
)

// Store persists uploaded files by name.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// Upload is a single incoming file.
type Upload struct {
	Field       string // form field the file came from
	Filename    string // name given by the client
	ContentType string // declared MIME type
	Size        int64  // declared size; <= 0 when unknown
	Body        io.Reader
}

// Stored describes an accepted upload.
type Stored struct {
	OriginalName string
	Name         string
	Size         int64
}

// SizeMB formats the size the way upload responses report it, e.g. "1.25 MB".
func (s Stored) SizeMB() string {
	return fmt.Sprintf("%.2f MB", float64(s.Size)/(1024*1024))
}

type Gatekeeper struct {
	store   Store
	maxSize int64
	now     func() time.Time
}

func NewGatekeeper(store Store, maxSize int64) *Gatekeeper {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Gatekeeper{store: store, maxSize: maxSize, now: time.Now}
}

// Store returns the store accepted files are written to.
func (g *Gatekeeper) Store() Store {
	return g.store
}

// Accept checks the type & size of up, then stores it under a new collision-resistant name.
// The size is checked against the declared value first and against the bytes actually read after.
func (g *Gatekeeper) Accept(ctx context.Context, up Upload) (Stored, error) {
	if up.Body == nil {
		return Stored{}, ErrNoFile
	}
	ct, ok := normalizeContentType(up.ContentType)
	if !ok {
		return Stored{}, ErrUnsupportedMediaType
	}
	if up.Size > g.maxSize {
		return Stored{}, ErrPayloadTooLarge
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(up.Body, g.maxSize+1))
	if err != nil {
		return Stored{}, errors.Wrap(err, "reading upload")
	}
	if n > g.maxSize {
		return Stored{}, ErrPayloadTooLarge
	}

	name := g.newName(up.Field, up.Filename, ct)
	if err = g.store.Save(ctx, name, &buf, n, ct); err != nil {
		return Stored{}, errors.Wrap(err, "saving upload")
	}
	return Stored{OriginalName: up.Filename, Name: name, Size: n}, nil
}

// newName builds `<field>_<unix millis>_<random hex><ext>`.
func (g *Gatekeeper) newName(field, filename, contentType string) string {
	if field == "" {
		field = "file"
	}
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if ext == "" || !isImageExt(ext) {
		ext = allowedTypes[contentType]
	}
	id := uuid.New()
	return fmt.Sprintf("%s_%d_%s%s", field, g.now().UnixMilli(), hex.EncodeToString(id[:4]), ext)
}

func normalizeContentType(ct string) (string, bool) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", false
	}
	mt = strings.ToLower(mt)
	_, ok := allowedTypes[mt]
	return mt, ok
}

func isImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// ContentTypeOf guesses the MIME type of a stored name from its extension.
func ContentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// CleanName reduces a client supplied name to a plain file name, refusing path tricks.
func CleanName(name string) (string, bool) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || base != name {
		return "", false
	}
	return base, true
}
