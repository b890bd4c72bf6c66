package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"

	"github.com/aretw0/vaudio/internal/compiler"
	"github.com/aretw0/vaudio/pkg/domain"
)

// Frontmatter is the metadata of a Loam document: the YAML header of a Markdown file,
// or the whole object of a JSON/YAML file.
type Frontmatter map[string]any

// documentExts are the file kinds Loam can serve, used to tell a missing document from a broken one.
var documentExts = []string{".md", ".json", ".yaml", ".yml"}

// Loader adapts a Loam repository to ports.ContentLoader.
//
// Content paths map to Loam ids by dropping the extension, so "program/initial/menu.json"
// may be authored as program/initial/menu.md. The Markdown body becomes the
// "description" when the frontmatter does not declare one.
type Loader struct {
	Repo *loam.TypedRepository[Frontmatter]
	root string
}

// New creates a loader over an existing repository. root is the repository directory,
// used to classify lookup failures.
func New(root string, repo *loam.TypedRepository[Frontmatter]) *Loader {
	return &Loader{Repo: repo, root: root}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	// Strict mode keeps numbers as json.Number across JSON and Markdown documents.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(absPath, loam.NewTypedRepository[Frontmatter](repo)), nil
}

// Load returns the document behind a content path re-encoded as JSON.
func (l *Loader) Load(ctx context.Context, p string) ([]byte, error) {
	id := trimExtension(p)
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		if l.missing(id) {
			return nil, fmt.Errorf("%s: %w", p, domain.ErrContentNotFound)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data := make(map[string]any, len(doc.Data)+1)
	for k, v := range doc.Data {
		data[k] = compiler.Normalize(v)
	}
	if body := strings.TrimSpace(doc.Content); body != "" {
		if _, ok := data["description"]; !ok {
			data["description"] = body
		}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document %s: %w", id, err)
	}
	return out, nil
}

// missing reports whether no file backs the id.
func (l *Loader) missing(id string) bool {
	if l.root == "" {
		return true
	}
	for _, ext := range documentExts {
		_, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(id)+ext))
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			return false
		}
	}
	return true
}

// List returns the content paths of every document, using the ".json" form.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		p := trimExtension(doc.ID) + ".json"
		if existing, ok := seen[p]; ok {
			return nil, fmt.Errorf("collision detected: %s is defined by both %s and %s", p, existing, doc.ID)
		}
		seen[p] = doc.ID
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func trimExtension(id string) string {
	id = strings.TrimPrefix(strings.ReplaceAll(id, `\`, "/"), "/")
	return strings.TrimSuffix(id, path.Ext(id))
}
