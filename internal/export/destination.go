package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Destinations opens the writable sink behind an opaque handle.
type Destinations interface {
	Open(handle string) (io.WriteCloser, error)
}

// FileDestinations resolves handles to files inside one export directory.
// A handle may be a bare name or a file:// URI relative to that directory.
type FileDestinations struct {
	fs  afero.Fs
	dir string
}

func NewFileDestinations(fs afero.Fs, dir string) *FileDestinations {
	return &FileDestinations{fs: fs, dir: dir}
}

func (d *FileDestinations) Open(handle string) (io.WriteCloser, error) {
	name := filepath.FromSlash(strings.TrimPrefix(handle, "file://"))
	if name == "" || !filepath.IsLocal(name) {
		return nil, fmt.Errorf("handle %q is outside the export directory", handle)
	}
	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir: %w", err)
	}
	f, err := d.fs.OpenFile(filepath.Join(d.dir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Path returns where handle is written on disk.
func (d *FileDestinations) Path(handle string) string {
	return filepath.Join(d.dir, filepath.FromSlash(strings.TrimPrefix(handle, "file://")))
}
