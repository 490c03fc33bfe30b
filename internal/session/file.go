package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"welfare-advisor/internal/domain"
)

const (
	userIDFile  = "userId"
	profileFile = "userProfile.json"
	ownerFile   = "owner"
)

// FileStore keeps the session keys as two files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string) (*FileStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("session: directory must not be empty")
	}
	return &FileStore{dir: dir}, nil
}

// DefaultDir returns the per-user session directory.
func DefaultDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "welfare-advisor")
	}
	return ".welfare-advisor"
}

// OwnerID returns the id naming this installation in a shared session table.
// It is generated on first use and kept next to the session files.
func (s *FileStore) OwnerID() (string, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, ownerFile))
	if err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("session: read owner id: %w", err)
	}
	id := newUUID()
	if err := s.write(ownerFile, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *FileStore) LoadUserID(context.Context) (domain.UserID, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, userIDFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: read user id: %w", err)
	}
	return domain.UserID(strings.TrimSpace(string(b))), nil
}

func (s *FileStore) SaveUserID(_ context.Context, id domain.UserID) error {
	return s.write(userIDFile, []byte(id))
}

// LoadProfile treats an unreadable profile blob as absent, so a corrupt cache
// never blocks the chat.
func (s *FileStore) LoadProfile(context.Context) (domain.Profile, bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Profile{}, false, nil
	}
	if err != nil {
		return domain.Profile{}, false, fmt.Errorf("session: read profile: %w", err)
	}
	var p domain.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		slog.Warn("ignoring unreadable profile cache", "path", filepath.Join(s.dir, profileFile), "err", err)
		return domain.Profile{}, false, nil
	}
	return p, true, nil
}

func (s *FileStore) SaveProfile(_ context.Context, p domain.Profile) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session: marshal profile: %w", err)
	}
	return s.write(profileFile, b)
}

func (s *FileStore) Clear(context.Context) error {
	var errs []error
	for _, name := range []string{userIDFile, profileFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// write replaces name atomically via a temp file and rename.
func (s *FileStore) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("session: write %s: %w", name, err)
	}
	return nil
}

var newUUID = func() string {
	return uuid.NewString()
}
