package chart

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Writer stores figures under <dir>/<category>_loads/<hostname>_<category>_load.png.
type Writer struct {
	dir string
	// EnsureDir makes sure a target directory exists before a write.
	EnsureDir func(dir string) error

	locks sync.Map
}

func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		EnsureDir: func(dir string) error {
			return os.MkdirAll(dir, 0o755)
		},
	}
}

// Path returns the file a figure for hostname and category is written to.
func (w *Writer) Path(category Category, hostname string) string {
	return filepath.Join(w.dir, string(category)+"_loads", fmt.Sprintf("%s_%s_load.png", hostname, category))
}

// Save writes fig to its path, replacing any previous chart, and closes it.
// Saves to the same path are serialized.
func (w *Writer) Save(fig *Figure) (string, error) {
	defer fig.Close()

	if fig.Closed() {
		return "", ErrFigureClosed
	}
	if fig.Hostname == "" || strings.ContainsAny(fig.Hostname, `/\`) || fig.Hostname == "." || fig.Hostname == ".." {
		return "", fmt.Errorf("invalid hostname %q for chart file name", fig.Hostname)
	}

	path := w.Path(fig.Category, fig.Hostname)
	mu, _ := w.locks.LoadOrStore(path, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	dir := filepath.Dir(path)
	if w.EnsureDir != nil {
		if err := w.EnsureDir(dir); err != nil {
			return "", fmt.Errorf("failed to prepare %s: %w", dir, err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	if _, err := fig.WriteTo(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to encode chart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write chart file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to replace %s: %w", path, err)
	}

	fig.Path = path
	return path, nil
}
