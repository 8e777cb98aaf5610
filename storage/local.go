package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BerniceZTT/feedback_end/utils"
)

// LocalStore writes attachments to a directory served statically under
// PublicPrefix.
type LocalStore struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

// Dir is the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put copies r into a new file and returns its generated name. Two uploads in
// the same millisecond get distinct names.
func (s *LocalStore) Put(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, name, err := s.create(originalName)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close attachment: %w", err)
	}

	utils.Logger.Debug().Str("file", name).Msg("attachment stored")
	return name, nil
}

func (s *LocalStore) create(originalName string) (*os.File, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	for {
		name := fileName(ts, originalName)
		f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create attachment: %w", err)
		}
		ts = ts.Add(time.Millisecond)
	}
}

// Delete removes the file behind ref. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if !validRef(ref) {
		return errInvalidRef
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove attachment: %w", err)
	}
	return nil
}

// Resolve returns the public path of ref, or "" for an empty or unsafe ref.
func (s *LocalStore) Resolve(ref string) string {
	if !validRef(ref) {
		return ""
	}
	return PublicPrefix + "/" + ref
}
