package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IndexFile is served in place of a directory listing when present
const IndexFile = "index.html"

var (
	ErrNotFound  = errors.New("not found")
	ErrTraversal = fmt.Errorf("%w: path escapes root", ErrNotFound)
)

// Kind is what a request path resolved to
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Target is a request path mapped onto the filesystem
type Target struct {
	Kind Kind
	// Path is canonical and always inside the resolver's root
	Path string
	// URLPath is the decoded request path
	URLPath string
}

// Resolver maps URL paths to files under a root directory
type Resolver struct {
	root string
}

// NewResolver canonicalizes root and returns a resolver confined to it
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(canon)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}
	return &Resolver{root: canon}, nil
}

// Root returns the canonical root directory
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps urlPath to a file or directory below the root. A directory
// holding an index file resolves to that file. Paths that canonicalize to
// somewhere outside the root fail with ErrTraversal, which also matches
// ErrNotFound.
func (r *Resolver) Resolve(urlPath string) (Target, error) {
	rel := filepath.FromSlash(strings.TrimLeft(urlPath, "/"))
	canon, err := r.canonical(filepath.Join(r.root, rel))
	if err != nil {
		return Target{}, err
	}

	info, err := os.Stat(canon)
	if err != nil {
		return Target{}, notFound(err)
	}

	switch {
	case info.Mode().IsRegular():
		return Target{Kind: KindFile, Path: canon, URLPath: urlPath}, nil
	case info.IsDir():
		if index, ok := r.index(canon); ok {
			return Target{Kind: KindFile, Path: index, URLPath: urlPath}, nil
		}
		return Target{Kind: KindDirectory, Path: canon, URLPath: urlPath}, nil
	default:
		return Target{}, fmt.Errorf("%w: %s is %s", ErrNotFound, urlPath, info.Mode().Type())
	}
}

func (r *Resolver) index(dir string) (string, bool) {
	path, err := r.canonical(filepath.Join(dir, IndexFile))
	if err != nil {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return path, true
}

// canonical resolves symlinks and checks the result stays inside the root.
// The lexical check catches "../" before touching the filesystem; the second
// one catches symlinks pointing out of the tree.
func (r *Resolver) canonical(joined string) (string, error) {
	if !r.contains(joined) {
		return "", fmt.Errorf("%w: %s", ErrTraversal, joined)
	}
	canon, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return "", notFound(err)
	}
	if !r.contains(canon) {
		return "", fmt.Errorf("%w: %s", ErrTraversal, canon)
	}
	return canon, nil
}

func (r *Resolver) contains(path string) bool {
	rel, err := filepath.Rel(r.root, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func notFound(err error) error {
	return fmt.Errorf("%w: %v", ErrNotFound, err)
}
