package ports

import "context"

// ContentLoader retrieves raw content files (programs, games, scenes, configuration).
// Paths are slash separated and relative to the content root, e.g. "program/initial/menu.json".
// A missing path must yield an error wrapping domain.ErrContentNotFound.
type ContentLoader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// ContentLister is implemented by loaders that can enumerate their content.
// It is used by introspection tooling such as 'vaudio validate'.
type ContentLister interface {
	List(ctx context.Context) ([]string, error)
}
