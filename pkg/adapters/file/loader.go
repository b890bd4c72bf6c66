package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/vaudio/pkg/domain"
)

// contentExts are the extensions tried, in order, when a requested path is missing.
var contentExts = []string{".json", ".yaml", ".yml"}

// Loader implements ports.ContentLoader over a directory tree.
// Reads are confined to the base directory; paths escaping it fail.
type Loader struct {
	BasePath string
}

// New creates a loader rooted at basePath. An empty basePath means the working directory.
func New(basePath string) *Loader {
	if basePath == "" {
		basePath = "."
	}
	return &Loader{BasePath: basePath}
}

// Load reads a content file. A ".json" request falls back to the YAML variants of the
// same name, so content can be authored in either format.
func (l *Loader) Load(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel := cleanPath(p)
	if rel == "" {
		return nil, fmt.Errorf("content path cannot be empty")
	}

	root, err := os.OpenRoot(l.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open content root %s: %w", l.BasePath, err)
	}
	defer root.Close()

	for _, candidate := range candidates(rel) {
		data, err := readFile(root, candidate)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", candidate, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", rel, domain.ErrContentNotFound)
}

func readFile(root *os.Root, name string) ([]byte, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// candidates lists the file names tried for a request.
func candidates(rel string) []string {
	ext := path.Ext(rel)
	if ext != ".json" {
		return []string{rel}
	}
	stem := strings.TrimSuffix(rel, ext)
	out := make([]string, 0, len(contentExts))
	for _, e := range contentExts {
		out = append(out, stem+e)
	}
	return out
}

// List returns every content file under the base directory, slash separated and sorted.
// Hidden directories are skipped.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	root, err := os.OpenRoot(l.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open content root %s: %w", l.BasePath, err)
	}
	defer root.Close()

	var paths []string
	err = fs.WalkDir(root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		for _, e := range contentExts {
			if path.Ext(p) == e {
				paths = append(paths, p)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func cleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return p
}
