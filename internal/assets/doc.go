// Package assets provides the stylesheets embedded in HTML previews.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - styles compiled into the binary (gost, plain)
//	    ├── StyleDir          - styles kept in the asset directory
//	    └── AssetResolver     - user directory first, embedded as fallback
//
// An asset directory only needs the styles it overrides:
//
//	{assetDir}/
//	└── styles/
//	    └── {name}.css
//
// # Security
//
// Style names may not contain separators or dots. StyleDir resolves
// symlinks and refuses files that end up outside the asset directory.
package assets
