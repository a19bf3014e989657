// Package stpdocx converts Markdown and constrained YAML documents to DOCX
// files laid out per the СТП 01–2024 thesis standard.
//
// # Quick Start
//
// Create a converter and convert a file:
//
//	conv, err := stpdocx.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.ConvertFile(ctx, "thesis.md", "thesis.docx")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Figures, "figures")
//
// Convert works on in-memory content and returns the DOCX bytes:
//
//	result, err := conv.Convert(ctx, stpdocx.Input{
//	    Content: []byte("# Введение\n\nТекст."),
//	})
//
// # Conversion Pipeline
//
// The conversion process follows these stages:
//
//  1. Loading: Markdown (goldmark, $ / $$ math, front matter) or YAML
//     (goccy/go-yaml, key order preserved) into a block tree
//  2. Numbering: section, figure, table and formula labels in one pass
//  3. Rendering: page template, headings, lists, code, figures, tables and
//     formulas written with fumiama/go-docx
//  4. Optional HTML preview of Markdown input via goldmark and chroma
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := stpdocx.NewConverter(
//	    stpdocx.WithPolicy(stpdocx.PolicyStrict),
//	    stpdocx.WithUnnumbered("Введение", "Заключение"),
//	    stpdocx.WithAssetDir("./figures"),
//	    stpdocx.WithStrictImages(true),
//	)
//
// WithHTMLPreview adds an HTML rendition of Markdown input to the Result.
// WithPreviewStyle picks its stylesheet by name, looked up under
// {assetDir}/styles first and then among the embedded styles.
//
// Front matter keys policy and unnumbered apply per document. Input.Policy
// overrides both the front matter and the converter default.
//
// # Section Context
//
// Figures, tables and formulas are numbered within their top-level section,
// as in "Рисунок 2.3". Entities placed before the first top-level heading get
// section 0 under PolicySectionZero, and fail with ErrMissingSectionContext
// under PolicyStrict.
package stpdocx
