package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// StyleDirName is the subdirectory of the asset directory that holds user
// preview styles.
const StyleDirName = "styles"

// StyleDir serves preview stylesheets that a thesis keeps next to its
// figures, as {assetDir}/styles/{name}.css.
type StyleDir struct {
	root string // asset directory, absolute with symlinks resolved
}

// NewStyleDir opens the style directory of assetDir. The styles
// subdirectory may be absent, in which case every lookup reports
// ErrStyleNotFound. Returns ErrInvalidBasePath when assetDir itself is not
// a readable directory.
func NewStyleDir(assetDir string) (*StyleDir, error) {
	if assetDir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	root, err := filepath.Abs(assetDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	switch _, err := os.ReadDir(root); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: asset directory %s does not exist", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: asset directory %s: %v", ErrInvalidBasePath, root, err)
	}

	return &StyleDir{root: root}, nil
}

// LoadStyle returns the CSS of the named style. A file that resolves
// outside the asset directory, through a symlink for instance, is refused
// with ErrPathTraversal.
func (d *StyleDir) LoadStyle(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	path, err := d.resolve(name)
	if err != nil {
		return "", err
	}

	css, err := os.ReadFile(path) // #nosec G304 -- path is confined to the asset directory
	if err != nil {
		return "", fmt.Errorf("%w: style %q: %v", ErrAssetRead, name, err)
	}
	return string(css), nil
}

// resolve maps a style name to its file, following symlinks, and checks
// that the result stays under the asset directory.
func (d *StyleDir) resolve(name string) (string, error) {
	path := filepath.Join(d.root, StyleDirName, name+".css")

	target, err := filepath.EvalSymlinks(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("%w: style %q: %v", ErrAssetRead, name, err)
	}

	rel, err := filepath.Rel(d.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: style %q resolves to %s", ErrPathTraversal, name, target)
	}
	return target, nil
}

var _ AssetLoader = (*StyleDir)(nil)
