package main

import (
	"errors"
	"fmt"
	"io"
)

// ErrUnknownTopic is returned by help for an unknown command or topic.
var ErrUnknownTopic = errors.New("unknown help topic")

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stpdocx <input> [flags]")
	fmt.Fprintln(w, "       stpdocx <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown or YAML documents to DOCX per СТП 01–2024.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version      Show version information")
	fmt.Fprintln(w, "  help         Show help for a command or topic")
	fmt.Fprintln(w, "  completion   Generate shell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Topics: convert, yaml, markdown, config")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'stpdocx help <topic>' for details.")
}

// printConvertUsage prints usage for a conversion run.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stpdocx <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    .md, .markdown, .yaml or .yml file, or a directory of them")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>        Output file or directory (default: input with .docx)")
	fmt.Fprintln(w, "  -c, --config <name>        Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>          Parallel workers for directory input (0 = auto)")
	fmt.Fprintln(w, "      --html                 Also write an HTML preview (Markdown input)")
	fmt.Fprintln(w, "      --preview-style <name> Preview stylesheet: gost (default), plain, or")
	fmt.Fprintln(w, "                             <asset-dir>/styles/<name>.css")
	fmt.Fprintln(w, "      --watch                Re-convert when the input changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Document:")
	fmt.Fprintln(w, "      --policy <s>           Section context: section-zero (default), strict")
	fmt.Fprintln(w, "      --unnumbered <title>   Heading title left unnumbered (repeatable)")
	fmt.Fprintln(w, "      --asset-dir <dir>      Directory searched first for images")
	fmt.Fprintln(w, "      --strict-images        Fail on missing or unreadable images")
	fmt.Fprintln(w, "      --code-style <name>    Chroma style for code blocks")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                Only show errors")
	fmt.Fprintln(w, "  -v, --verbose              Debug logging and timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 general, 2 usage/config, 3 I/O, 4 document")
}

// printYAMLUsage describes the YAML input schema.
func printYAMLUsage(w io.Writer) {
	fmt.Fprintln(w, "YAML input")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The root is a mapping; keys are rendered in the order written.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  title, heading                 level-1 heading")
	fmt.Fprintln(w, "  subtitle                       level-2 heading")
	fmt.Fprintln(w, "  context, extra_paragraph       text, blank lines split paragraphs")
	fmt.Fprintln(w, "  ordered_list, numbered_list    list of strings")
	fmt.Fprintln(w, "  bullet_list, unordered_list    list of strings")
	fmt.Fprintln(w, "  image                          path, or {path|src, caption, alt}")
	fmt.Fprintln(w, "  image_caption, image_alt       caption and alt for the path form")
	fmt.Fprintln(w, "  formula                        LaTeX, or {expression|latex|value, terms, number}")
	fmt.Fprintln(w, "  table                          {header, rows, caption}")
	fmt.Fprintln(w, "  code_block                     code, or {code, language}")
	fmt.Fprintln(w, "  page_break                     true inserts a page break")
	fmt.Fprintln(w, "  body                           sequence of entries, replaces the keys above")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Body entries use heading (with level), paragraph, ordered_list,")
	fmt.Fprintln(w, "bullet_list, image (with caption, alt), formula (with terms), table,")
	fmt.Fprintln(w, "code_block (with language) or page_break. A bare string is a paragraph.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Example:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  body:")
	fmt.Fprintln(w, "    - heading: Обзор")
	fmt.Fprintln(w, "    - Текст раздела.")
	fmt.Fprintln(w, "    - formula: E = mc^2")
	fmt.Fprintln(w, "      terms: [\"E – энергия\", \"m – масса\"]")
}

// printMarkdownUsage describes the accepted Markdown dialect.
func printMarkdownUsage(w io.Writer) {
	fmt.Fprintln(w, "Markdown input")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CommonMark with GFM tables and strikethrough, plus:")
	fmt.Fprintln(w, "  $$ ... $$               display formula, numbered (m.n)")
	fmt.Fprintln(w, "  $ ... $                 inline formula")
	fmt.Fprintln(w, "  где x – описание;       term lines right after a formula")
	fmt.Fprintln(w, "  ==text==                highlight")
	fmt.Fprintln(w, "  ![alt](path \"Caption\")  figure when alone in a paragraph")
	fmt.Fprintln(w, "  Table: Caption          caption line right before a table")
	fmt.Fprintln(w, "  \\newpage                page break")
	fmt.Fprintln(w, "  # Title {-}             unnumbered heading")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Front matter keys: title, policy, unnumbered.")
}

// printConfigUsage describes the config file and environment variables.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "--config NAME looks for NAME.yaml or NAME.yml in the current directory,")
	fmt.Fprintln(w, "then in the user config directory under stpdocx/. A value containing a")
	fmt.Fprintln(w, "path separator is read as a file path.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  policy: section-zero")
	fmt.Fprintln(w, "  strictImages: false")
	fmt.Fprintln(w, "  assetDir: ./figures")
	fmt.Fprintln(w, "  unnumbered: [Введение, Заключение]")
	fmt.Fprintln(w, "  codeStyle: friendly")
	fmt.Fprintln(w, "  workers: 0")
	fmt.Fprintln(w, "  output:")
	fmt.Fprintln(w, "    defaultDir: out")
	fmt.Fprintln(w, "    html: false")
	fmt.Fprintln(w, "    previewStyle: gost")
	fmt.Fprintln(w, "  log:")
	fmt.Fprintln(w, "    level: info")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment: STPDOCX_CONFIG, STPDOCX_POLICY, STPDOCX_LOG_LEVEL, STPDOCX_WORKERS")
	fmt.Fprintln(w, "Precedence: flags > environment > config file > defaults")
}

// runHelp prints help for a specific command or topic.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "yaml":
		printYAMLUsage(env.Stdout)
	case "markdown", "md":
		printMarkdownUsage(env.Stdout)
	case "config", "env":
		printConfigUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: stpdocx version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: stpdocx help [topic]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command or topic.")
	default:
		printUsage(env.Stderr)
		return fmt.Errorf("%w: %s", ErrUnknownTopic, args[0])
	}
	return nil
}
