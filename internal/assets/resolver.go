package assets

import "errors"

// AssetResolver tries a user style directory first and falls back to the
// embedded styles when a style is not found there.
type AssetResolver struct {
	custom   AssetLoader // nil without an asset directory
	embedded AssetLoader
}

// NewAssetResolver creates an AssetResolver. An empty assetDir uses the
// embedded styles only. Returns ErrInvalidBasePath if assetDir is set but is
// not a readable directory.
func NewAssetResolver(assetDir string) (*AssetResolver, error) {
	resolver := &AssetResolver{
		embedded: NewEmbeddedLoader(),
	}

	if assetDir != "" {
		dir, err := NewStyleDir(assetDir)
		if err != nil {
			return nil, err
		}
		resolver.custom = dir
	}

	return resolver, nil
}

// LoadStyle loads a style, trying the custom loader first if available.
func (r *AssetResolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	content, err := r.custom.LoadStyle(name)
	if err == nil {
		return content, nil
	}

	// Validation and I/O errors are not masked by the fallback.
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}

	return r.embedded.LoadStyle(name)
}

// HasCustomLoader returns true if a custom style directory is configured.
func (r *AssetResolver) HasCustomLoader() bool {
	return r.custom != nil
}

// Compile-time interface check.
var _ AssetLoader = (*AssetResolver)(nil)
