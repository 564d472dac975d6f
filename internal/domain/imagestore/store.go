package imagestore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"equipmarket/internal/domain"
)

const (
	DefaultMaxBytes = 10 * 1024 * 1024
	DefaultBaseDir  = "./images"
	DefaultURLBase  = "/api/v1/images"

	refPrefix = "images/"
)

// allowedTypes maps sniffed content types to the extensions we store them under.
// The first extension is the canonical one.
var allowedTypes = map[string][]string{
	"image/png":  {".png"},
	"image/jpeg": {".jpg", ".jpeg"},
	"image/bmp":  {".bmp"},
	"image/gif":  {".gif"},
	"image/webp": {".webp"},
}

var refPattern = regexp.MustCompile(`^images/\d{4}/\d{2}/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(png|jpg|jpeg|bmp|gif|webp)$`)

// Store keeps equipment pictures on local disk. Refs look like
// images/2026/10/<uuid>.png and are what catalog records carry.
type Store struct {
	baseDir  string
	urlBase  string
	maxBytes int64
	now      func() time.Time
}

func New(baseDir, urlBase string, maxBytes int64) *Store {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if urlBase == "" {
		urlBase = DefaultURLBase
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Store{
		baseDir:  baseDir,
		urlBase:  strings.TrimRight(urlBase, "/"),
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Store writes data and returns its ref. The content type is sniffed; the
// suggested extension is kept only when it agrees with the content.
func (s *Store) Store(ctx context.Context, data []byte, suggestedExt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.NewValidationError("file", "is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.NewValidationError("file", "must be at most %d bytes", s.maxBytes)
	}

	mimeType := strings.Split(http.DetectContentType(data), ";")[0]
	exts, ok := allowedTypes[mimeType]
	if !ok {
		return "", domain.NewValidationError("file", "unsupported image type %s", mimeType)
	}
	ext := exts[0]
	suggestedExt = strings.ToLower(suggestedExt)
	if suggestedExt != "" && !strings.HasPrefix(suggestedExt, ".") {
		suggestedExt = "." + suggestedExt
	}
	for _, e := range exts {
		if e == suggestedExt {
			ext = e
		}
	}

	now := s.now().UTC()
	ref := fmt.Sprintf("%s%04d/%02d/%s%s", refPrefix, now.Year(), int(now.Month()), uuid.New().String(), ext)

	abs := s.path(ref)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", domain.NewStorageError("images.mkdir", err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		_ = os.Remove(abs)
		return "", domain.NewStorageError("images.write", err)
	}
	return ref, nil
}

// Exists reports whether ref names a stored image.
func (s *Store) Exists(ref string) bool {
	if !ValidRef(ref) {
		return false
	}
	info, err := os.Stat(s.path(ref))
	return err == nil && info.Mode().IsRegular()
}

// PreviewURL is empty for empty or missing refs.
func (s *Store) PreviewURL(ref string) string {
	if ref == "" || !s.Exists(ref) {
		return ""
	}
	return s.urlBase + "/" + strings.TrimPrefix(ref, refPrefix)
}

// Open resolves ref to a file path for serving.
func (s *Store) Open(ref string) (string, error) {
	if !s.Exists(ref) {
		return "", domain.ErrNotFound
	}
	return s.path(ref), nil
}

// ValidRef rejects anything that is not a ref this store produced, which
// also rules out path traversal.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref) && path.Clean(ref) == ref
}

func (s *Store) path(ref string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(strings.TrimPrefix(ref, refPrefix)))
}
