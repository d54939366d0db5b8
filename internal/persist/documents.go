package persist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/trove/schema"
)

// DocumentExt is the extension of every document file.
const DocumentExt = ".md"

// Documents reads and writes the document files of a single trove directory.
type Documents struct {
	dir string
	log pslog.Logger
}

// NewDocuments constructs a document gateway rooted at dir, creating it if needed.
func NewDocuments(dir string, logger pslog.Logger) (*Documents, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("trove directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &schema.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	if logger != nil {
		logger = logger.With("trove", dir)
	}
	return &Documents{dir: dir, log: logger}, nil
}

// Dir returns the trove directory.
func (d *Documents) Dir() string {
	return d.dir
}

// Path returns the file path backing title.
func (d *Documents) Path(title schema.Title) string {
	return filepath.Join(d.dir, schema.SanitizeTitle(title)+DocumentExt)
}

// TitleFromPath returns the document title for a file inside the trove.
func (d *Documents) TitleFromPath(path string) (schema.Title, bool) {
	if !strings.EqualFold(filepath.Ext(path), DocumentExt) {
		return "", false
	}
	rel, err := filepath.Rel(d.dir, path)
	if err != nil || rel != filepath.Base(rel) || strings.HasPrefix(rel, ".") {
		return "", false
	}
	return schema.Title(strings.TrimSuffix(rel, filepath.Ext(rel))), true
}

// Exists reports whether the file backing title is present.
func (d *Documents) Exists(title schema.Title) bool {
	_, err := os.Stat(d.Path(title))
	return err == nil
}

// Read returns the contents of the file backing title.
func (d *Documents) Read(title schema.Title) (string, error) {
	path := d.Path(title)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = schema.ErrDocumentNotFound
		}
		d.warn("document read failed", path, err)
		return "", &schema.IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// Write stores contents in the file backing title and returns its path.
func (d *Documents) Write(title schema.Title, contents string) (string, error) {
	path := d.Path(title)
	if err := writeFileAtomic(path, []byte(contents), 0o644); err != nil {
		d.warn("document write failed", path, err)
		return "", &schema.IOError{Op: "write", Path: path, Err: err}
	}
	if d.log != nil {
		d.log.Trace("document written", "path", path, "bytes", len(contents))
	}
	return path, nil
}

// Delete removes the file backing title. A missing file is not an error.
func (d *Documents) Delete(title schema.Title) error {
	path := d.Path(title)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.warn("document delete failed", path, err)
		return &schema.IOError{Op: "delete", Path: path, Err: err}
	}
	if d.log != nil {
		d.log.Debug("document deleted", "path", path)
	}
	return nil
}

// Replace writes contents under newTitle and only then removes the file of
// oldTitle, when the two map to different files.
func (d *Documents) Replace(oldTitle, newTitle schema.Title, contents string) (string, error) {
	path, err := d.Write(newTitle, contents)
	if err != nil {
		return "", err
	}
	if oldTitle == "" || d.Path(oldTitle) == path {
		return path, nil
	}
	if err := d.Delete(oldTitle); err != nil {
		return path, err
	}
	return path, nil
}

// Rename moves the document of oldTitle to newTitle. It is a no-op when both
// titles sanitize to the same file or when the old file is absent.
func (d *Documents) Rename(oldTitle, newTitle schema.Title) error {
	if d.Path(oldTitle) == d.Path(newTitle) {
		return nil
	}
	contents, err := d.Read(oldTitle)
	if err != nil {
		if errors.Is(err, schema.ErrDocumentNotFound) {
			return nil
		}
		return err
	}
	_, err = d.Replace(oldTitle, newTitle, contents)
	return err
}

// CreateAvailable claims a fresh empty document derived from base and returns
// its title and path. The file is created exclusively, so concurrent callers
// never receive the same path.
func (d *Documents) CreateAvailable(base schema.Title) (schema.Title, string, error) {
	for {
		path, err := GenerateAvailablePath(d.Path(base))
		if err != nil {
			return "", "", &schema.IOError{Op: "stat", Path: path, Err: err}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			d.warn("document create failed", path, err)
			return "", "", &schema.IOError{Op: "create", Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return "", "", &schema.IOError{Op: "create", Path: path, Err: err}
		}
		title := schema.Title(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if d.log != nil {
			d.log.Debug("document created", "path", path, "title", title)
		}
		return title, path, nil
	}
}

// GenerateAvailablePath returns base when nothing exists there. Otherwise it
// strips trailing digits from the stem, keeps a single space separator and
// appends the smallest positive suffix that does not exist yet.
func GenerateAvailablePath(base string) (string, error) {
	exists, err := pathExists(base)
	if err != nil || !exists {
		return base, err
	}
	dir := filepath.Dir(base)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(filepath.Base(base), ext)
	prefix := strings.TrimRight(strings.TrimRight(stem, "0123456789"), " ")
	if prefix == "" {
		prefix = strings.TrimRight(stem, " ")
	}
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, prefix+" "+strconv.Itoa(n)+ext)
		exists, err := pathExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (d *Documents) warn(msg, path string, err error) {
	if d.log != nil {
		d.log.Warn(msg, "path", path, "err", err)
	}
}
