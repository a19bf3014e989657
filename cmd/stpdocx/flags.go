package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// documentFlags holds flags that change how documents are laid out.
type documentFlags struct {
	policy       string
	unnumbered   []string
	assetDir     string
	strictImages bool
	codeStyle    string
}

// convertFlags holds all flags for a conversion run.
type convertFlags struct {
	common   commonFlags
	document documentFlags
	output   string
	workers  int
	html     bool
	style    string
	watch    bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and timing")
}

// addDocumentFlags adds layout flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.policy, "policy", "", "section context policy: section-zero, strict")
	fs.StringSliceVar(&f.unnumbered, "unnumbered", nil, "heading titles left unnumbered (repeatable)")
	fs.StringVar(&f.assetDir, "asset-dir", "", "directory searched first for images")
	fs.BoolVar(&f.strictImages, "strict-images", false, "fail on missing or unreadable images")
	fs.StringVar(&f.codeStyle, "code-style", "", "chroma style for code blocks")
}

// newConvertFlagSet registers every conversion flag on a fresh FlagSet.
// Completion generation reads flags from the same set.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("stpdocx", flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers for directory input (0 = auto)")
	fs.BoolVar(&f.html, "html", false, "also write an HTML preview")
	fs.StringVar(&f.style, "preview-style", "", "stylesheet of the HTML preview: gost, plain or a custom name")
	fs.BoolVar(&f.watch, "watch", false, "re-convert when the input changes")

	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)

	return fs
}

// parseConvertFlags parses conversion flags and returns positional args.
func parseConvertFlags(args []string, usage io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(f)
	fs.SetOutput(usage)
	fs.Usage = func() { printConvertUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

