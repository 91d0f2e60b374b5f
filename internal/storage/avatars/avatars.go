// Package avatars stores profile images on disk under a configured root and
// hands back the public URL they are served from.
package avatars

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported image type")

// allowed extensions, anything else is rejected before touching the disk.
var allowedExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type Store struct {
	dir     string
	baseURL string
}

// New prepares the storage root. baseURL is the prefix images are served
// under, like "/static/avatars".
func New(dir string, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating avatar dir: %w", err)
	}

	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save writes the image under <employeeID>/<uuid>.<ext> and returns its public
// URL. The object name is random so a re-upload never serves a stale cached
// image.
func (s *Store) Save(employeeID string, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExts[ext]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}

	//the employee id comes from the db, not from the raw request path, but
	//it still must not escape the storage root
	if employeeID != filepath.Base(employeeID) || employeeID == "." || employeeID == ".." {
		return "", fmt.Errorf("invalid employee id: %s", employeeID)
	}

	dir := filepath.Join(s.dir, employeeID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating employee dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing file: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}

	return s.baseURL + "/" + employeeID + "/" + name, nil
}

// Dir returns the storage root so the router can serve it.
func (s *Store) Dir() string {
	return s.dir
}
