package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"pkt.systems/pslog"
	"pkt.systems/trove/schema"
)

// SnapshotFile is the name of the snapshot inside the user data directory.
const SnapshotFile = "userdata.json"

// UserDataSnapshot is the durable projection of the live workspace.
type UserDataSnapshot struct {
	ActiveTabs   []schema.Tab        `json:"active_tabs"`
	ActiveTabID  schema.TabID        `json:"active_tab_id"`
	RecentFiles  []schema.RecentFile `json:"recent_files"`
	CurrentTheme schema.ThemeName    `json:"current_theme"`

	// PendingRenames maps a renamed tab to the title its file still uses.
	PendingRenames map[schema.TabID]schema.Title `json:"pending_renames,omitempty"`
}

// Store persists the user data snapshot to disk.
type Store struct {
	dir  string
	path string
	lock *flock.Flock
	log  pslog.Logger
}

// NewStore constructs a snapshot store in the given user data directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a snapshot store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("user data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &schema.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	path := filepath.Join(dir, SnapshotFile)
	if logger != nil {
		logger = logger.With("state_path", path)
	}
	return &Store{
		dir:  dir,
		path: path,
		lock: flock.New(path + ".lock"),
		log:  logger,
	}, nil
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot. A missing file reports ok=false with no error.
func (s *Store) Load() (UserDataSnapshot, bool, error) {
	if err := s.lock.RLock(); err != nil {
		s.warn("state load failed", err)
		return UserDataSnapshot{}, false, &schema.IOError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss")
			}
			return UserDataSnapshot{}, false, nil
		}
		s.warn("state load failed", err)
		return UserDataSnapshot{}, false, &schema.IOError{Op: "read", Path: s.path, Err: err}
	}
	var snapshot UserDataSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		s.warn("state load failed", err)
		return UserDataSnapshot{}, false, err
	}
	if s.log != nil {
		s.log.Debug("state load ok", "tabs", len(snapshot.ActiveTabs), "recent", len(snapshot.RecentFiles))
	}
	return snapshot, true, nil
}

// Save overwrites the snapshot file as a whole.
func (s *Store) Save(snapshot UserDataSnapshot) error {
	if err := s.lock.Lock(); err != nil {
		s.warn("state save failed", err)
		return &schema.IOError{Op: "lock", Path: s.lock.Path(), Err: err}
	}
	defer func() { _ = s.lock.Unlock() }()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.warn("state save failed", err)
		return err
	}
	if err := writeFileAtomic(s.path, data, 0o600); err != nil {
		s.warn("state save failed", err)
		return &schema.IOError{Op: "write", Path: s.path, Err: err}
	}
	if s.log != nil {
		s.log.Trace("state save ok", "tabs", len(snapshot.ActiveTabs))
	}
	return nil
}

func (s *Store) warn(msg string, err error) {
	if s.log != nil {
		s.log.Warn(msg, "err", err)
	}
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".trove-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
