// Package media keeps uploaded video files on disk for as long as a mind map
// refers to them. Each file is a transient handle that must be released.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadBytes caps a single video upload.
const MaxUploadBytes = 2 << 30

// ErrUnknownHandle is returned for handles the store does not hold.
var ErrUnknownHandle = errors.New("unknown media handle")

var allowedExt = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
}

// Store owns the transient media directory.
type Store struct {
	dir    string
	logger *zap.Logger

	mu   sync.Mutex
	live map[string]struct{}
}

// NewStore creates the directory if needed. Files left over from an earlier
// run are removed since no document can refer to them.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading media directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return &Store{dir: dir, logger: logger, live: make(map[string]struct{})}, nil
}

// Acquire copies r into a new file and returns its handle. filename only
// supplies the extension.
func (s *Store) Acquire(r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExt[ext]; !ok {
		return "", fmt.Errorf("unsupported video type %q", ext)
	}
	handle := uuid.NewString() + ext
	path := filepath.Join(s.dir, handle)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing media file: %w", err)
	}

	s.mu.Lock()
	s.live[handle] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("media acquired", zap.String("handle", handle))
	return handle, nil
}

// Release deletes the file behind handle.
func (s *Store) Release(handle string) error {
	s.mu.Lock()
	_, ok := s.live[handle]
	delete(s.live, handle)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownHandle
	}
	if err := os.Remove(filepath.Join(s.dir, handle)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	s.logger.Info("media released", zap.String("handle", handle))
	return nil
}

// Open returns the file behind a live handle.
func (s *Store) Open(handle string) (*os.File, error) {
	if !s.Has(handle) {
		return nil, ErrUnknownHandle
	}
	return os.Open(filepath.Join(s.dir, handle))
}

// Has reports whether handle is live.
func (s *Store) Has(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live[handle]
	return ok
}

// Live lists live handles in sorted order.
func (s *Store) Live() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.live))
	for h := range s.live {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// URL is the path the media route serves handle under.
func URL(handle string) string {
	if handle == "" {
		return ""
	}
	return "/media/" + handle
}

// ContentType returns the MIME type for handle's extension.
func ContentType(handle string) string {
	if ct, ok := allowedExt[strings.ToLower(filepath.Ext(handle))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Close releases every live handle.
func (s *Store) Close() error {
	var errs []error
	for _, h := range s.Live() {
		if err := s.Release(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
