// Package ingest implements the document ingestion pipeline: validate an
// uploaded file, persist it under a per-case directory, and fingerprint it.
// All operations are synchronous and block on filesystem I/O; each call owns
// its own file handle and writes to a uniquely named destination, so no
// locking is needed.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"casedocs/internal/model"
)

var (
	ErrNoFile          = errors.New("no file provided")
	ErrUnsupportedType = errors.New("file type not allowed")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNotFound        = errors.New("file not found")
)

// DefaultMaxFileSize is the upload size ceiling applied when the config
// leaves MaxFileSize unset (50 MiB).
const DefaultMaxFileSize int64 = 50 * 1024 * 1024

// hashChunkSize is the buffer size used when streaming file content through
// the hash accumulator.
const hashChunkSize = 4096

// DefaultAllowedTypes returns the extension allow-list mapped to the media
// type used when the system lookup yields nothing.
func DefaultAllowedTypes() map[string]string {
	return map[string]string{
		"pdf":  "application/pdf",
		"doc":  "application/msword",
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"jpg":  "image/jpeg",
		"jpeg": "image/jpeg",
		"png":  "image/png",
		"txt":  "text/plain",
	}
}

// Config holds the injected filesystem settings for the ingestion service.
// Root is the upload root directory; one subdirectory is created per case.
type Config struct {
	Root         string
	MaxFileSize  int64             // bytes; 0 means DefaultMaxFileSize
	AllowedTypes map[string]string // extension -> fallback media type; nil means DefaultAllowedTypes
}

// Service validates, stores, and fingerprints uploaded case documents on
// local disk. Construct with New; the zero value is not usable.
type Service struct {
	root    string
	maxSize int64
	allowed map[string]string
}

// New creates an ingestion service rooted at cfg.Root.
func New(cfg Config) *Service {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	allowed := cfg.AllowedTypes
	if allowed == nil {
		allowed = DefaultAllowedTypes()
	}
	return &Service{
		root:    cfg.Root,
		maxSize: maxSize,
		allowed: allowed,
	}
}

// FileInfo describes one stored file in a case directory.
type FileInfo struct {
	Filename string    `json:"filename"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Allowed reports whether filename carries an allow-listed extension.
// The check is case-insensitive; a filename without an extension fails.
func (s *Service) Allowed(filename string) bool {
	ext := extension(filename)
	if ext == "" {
		return false
	}
	_, ok := s.allowed[ext]
	return ok
}

// Ingest persists the stream to {root}/{caseID}/{uuid}.{ext} and returns the
// document metadata. The content is written and hashed in a single pass; if
// the persisted size exceeds the configured maximum, the file is removed and
// ErrFileTooLarge is returned so no partial upload is left behind.
func (s *Service) Ingest(r io.Reader, filename, caseID, uploadedBy string) (*model.Document, error) {
	if r == nil {
		return nil, ErrNoFile
	}
	if !s.Allowed(filename) {
		return nil, fmt.Errorf("%w: allowed types: %s", ErrUnsupportedType, strings.Join(s.allowedExtensions(), ", "))
	}

	original := sanitizeFilename(filename)
	ext := extension(original)

	id := uuid.NewString()
	storedName := id + "." + ext

	caseDir := filepath.Join(s.root, caseID)
	if err := os.MkdirAll(caseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create case directory: %w", err)
	}

	path := filepath.Join(caseDir, storedName)
	size, sum, err := s.writeAndHash(path, r)
	if err != nil {
		return nil, err
	}

	if size > s.maxSize {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: maximum size: %.1fMB", ErrFileTooLarge, float64(s.maxSize)/(1024*1024))
	}

	return &model.Document{
		ID:               id,
		CaseID:           caseID,
		OriginalFilename: original,
		StoredFilename:   storedName,
		StoragePath:      path,
		Size:             size,
		SHA256:           sum,
		FileType:         ext,
		ContentType:      s.resolveContentType(ext),
		UploadedBy:       uploadedBy,
		UploadedAt:       time.Now().UTC(),
		OCRStatus:        model.StatusPending,
		Tags:             []string{},
		Version:          1,
	}, nil
}

// writeAndHash streams r into a new file at path while feeding the same
// bytes through a SHA-256 accumulator. On any write error the partial file
// is removed before returning.
func (s *Service) writeAndHash(path string, r io.Reader) (int64, string, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, "", fmt.Errorf("create file: %w", err)
	}

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	size, err := io.CopyBuffer(io.MultiWriter(f, h), r, buf)
	if err != nil {
		f.Close()
		_ = os.Remove(path)
		return 0, "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return 0, "", fmt.Errorf("close file: %w", err)
	}

	return size, hex.EncodeToString(h.Sum(nil)), nil
}

// Locate scans the case directory for a stored filename beginning with
// documentID and returns the first match. The scan is O(n) in directory
// entries, which is acceptable at case-level volumes; callers needing O(1)
// lookups should use the persisted storage path instead.
func (s *Service) Locate(documentID, caseID string) (string, bool) {
	caseDir := filepath.Join(s.root, caseID)
	entries, err := os.ReadDir(caseDir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), documentID) {
			return filepath.Join(caseDir, e.Name()), true
		}
	}
	return "", false
}

// Delete removes the stored file for documentID. It returns ErrNotFound when
// no stored file matches the identifier.
func (s *Service) Delete(documentID, caseID string) error {
	path, ok := s.Locate(documentID, caseID)
	if !ok {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// List enumerates the regular files stored for a case. A missing case
// directory yields an empty slice, not an error.
func (s *Service) List(caseID string) ([]FileInfo, error) {
	caseDir := filepath.Join(s.root, caseID)
	entries, err := os.ReadDir(caseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("read case directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Filename: e.Name(),
			Path:     filepath.Join(caseDir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

// resolveContentType prefers the system extension lookup and falls back to
// the static allow-list mapping. Media type parameters (e.g. charset) are
// stripped so stored values stay comparable.
func (s *Service) resolveContentType(ext string) string {
	if mt := mime.TypeByExtension("." + ext); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
		return mt
	}
	return s.allowed[ext]
}

// allowedExtensions returns the allow-list in a stable order for error
// messages.
func (s *Service) allowedExtensions() []string {
	exts := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// extension returns the lowercase extension of filename without the dot,
// or "" if there is none.
func extension(filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// sanitizeFilename strips path components and unsafe characters from a
// client-supplied filename. Only ASCII letters, digits, dot, dash, and
// underscore survive; spaces become underscores.
func sanitizeFilename(filename string) string {
	// Client may send Windows-style separators regardless of server OS.
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}
