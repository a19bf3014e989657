package pipeline

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"

	"github.com/alnah/go-stpdocx/internal/yamlutil"
)

// FrontMatter holds the document settings a Markdown file may declare.
type FrontMatter struct {
	Title      string   `yaml:"title"`
	Policy     string   `yaml:"policy"`
	Unnumbered []string `yaml:"unnumbered"`
}

var yamlFrontMatter = frontmatter.NewFormat("---", "---", func(data []byte, v interface{}) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yamlutil.Unmarshal(data, v)
})

// ParseFrontMatter splits a leading YAML block from source. Without one, the
// zero FrontMatter and the untouched source are returned.
func ParseFrontMatter(source []byte) (FrontMatter, []byte, error) {
	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta, yamlFrontMatter)
	if err != nil {
		return FrontMatter{}, nil, fmt.Errorf("parse front matter: %w", err)
	}
	return meta, body, nil
}
