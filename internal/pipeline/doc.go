// Package pipeline turns Markdown into the document block tree.
//
// Stages:
//   - front matter extraction (adrg/frontmatter, YAML via goccy)
//   - preprocessing (line endings, ==highlight== placeholders)
//   - goldmark parsing with GFM tables and a $ / $$ math extension
//   - AST to document.Block conversion, attaching "где" term lists to formulas
//
// The same goldmark setup, plus chroma highlighting, renders the optional
// HTML preview.
package pipeline
