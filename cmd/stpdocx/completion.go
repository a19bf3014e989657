package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-stpdocx/internal/assets"
	"github.com/alnah/go-stpdocx/internal/numbering"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Desc     string   // help text
	TakesArg bool     // false for bool flags
	Values   []string // fixed values, if any
	FileGlob string   // file glob, if any
	IsDir    bool     // directory completion
}

// completionMeta holds completion hints that a FlagSet cannot express.
type completionMeta struct {
	Values   []string
	FileGlob string
	IsDir    bool
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"policy":        {Values: []string{numbering.PolicySectionZero, numbering.PolicyStrict}},
	"code-style":    {Values: styleNames()},
	"preview-style": {Values: assets.StyleNames()},
	"config":        {FileGlob: "*.yaml,*.yml"},
	"output":        {FileGlob: "*.docx"},
	"asset-dir":     {IsDir: true},
}

var commands = []string{"version", "help", "completion"}

var inputGlobs = []string{"*.md", "*.markdown", "*.yaml", "*.yml"}

func styleNames() []string {
	names := styles.Names()
	sort.Strings(names)
	return names
}

// completionFlags extracts flag definitions from the conversion FlagSet, so
// completion never drifts from what the parser accepts.
func completionFlags() []flagDef {
	var defs []flagDef
	newConvertFlagSet(&convertFlags{}).VisitAll(func(f *flag.Flag) {
		d := flagDef{
			Long:     f.Name,
			Short:    f.Shorthand,
			Desc:     f.Usage,
			TakesArg: f.Value.Type() != "bool",
		}
		if meta, ok := flagCompletionMeta[f.Name]; ok {
			d.Values, d.FileGlob, d.IsDir = meta.Values, meta.FileGlob, meta.IsDir
		}
		defs = append(defs, d)
	})
	return defs
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	defs := completionFlags()
	var script string
	switch shell {
	case ShellBash:
		script = bashScript(defs)
	case ShellZsh:
		script = zshScript(defs)
	case ShellFish:
		script = fishScript(defs)
	case ShellPowerShell:
		script = powerShellScript(defs)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

func bashScript(defs []flagDef) string {
	var b strings.Builder
	var words []string
	b.WriteString("# bash completion for stpdocx\n")
	b.WriteString("_stpdocx() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 2 && ${COMP_WORDS[1]} == completion ]]; then\n")
	b.WriteString("        COMPREPLY=($(compgen -W \"bash zsh fish powershell\" -- \"$cur\")); return\n")
	b.WriteString("    fi\n")
	b.WriteString("    case \"$prev\" in\n")
	for _, d := range defs {
		words = append(words, "--"+d.Long)
		if d.Short != "" {
			words = append(words, "-"+d.Short)
		}
		if !d.TakesArg {
			continue
		}
		pattern := "--" + d.Long
		if d.Short != "" {
			pattern += "|-" + d.Short
		}
		switch {
		case len(d.Values) > 0:
			fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -W %q -- \"$cur\")); return ;;\n", pattern, strings.Join(d.Values, " "))
		case d.IsDir:
			fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -d -- \"$cur\")); return ;;\n", pattern)
		case d.FileGlob != "":
			fmt.Fprintf(&b, "        %s) COMPREPLY=($(compgen -f -- \"$cur\")); return ;;\n", pattern)
		default:
			fmt.Fprintf(&b, "        %s) return ;;\n", pattern)
		}
	}
	b.WriteString("    esac\n")
	b.WriteString("    if [[ $cur == -* ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\")); return\n", strings.Join(words, " "))
	b.WriteString("    fi\n")
	fmt.Fprintf(&b, "    COMPREPLY=($(compgen -W %q -- \"$cur\") $(compgen -f -- \"$cur\"))\n", strings.Join(commands, " "))
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -F _stpdocx stpdocx\n")
	return b.String()
}

func zshScript(defs []flagDef) string {
	var b strings.Builder
	b.WriteString("#compdef stpdocx\n\n")
	b.WriteString("_stpdocx() {\n")
	b.WriteString("  _arguments -s \\\n")
	for _, d := range defs {
		desc := zshEscape(d.Desc)
		action := ""
		if d.TakesArg {
			switch {
			case len(d.Values) > 0:
				action = ":" + d.Long + ":(" + strings.Join(d.Values, " ") + ")"
			case d.IsDir:
				action = ":" + d.Long + ":_directories"
			case d.FileGlob != "":
				action = ":" + d.Long + ":_files -g '" + zshGlob(d.FileGlob) + "'"
			default:
				action = ":" + d.Long + ":"
			}
		}
		if d.Short != "" {
			fmt.Fprintf(&b, "    '(-%s --%s)'{-%s,--%s}'[%s]%s' \\\n", d.Short, d.Long, d.Short, d.Long, desc, action)
		} else {
			fmt.Fprintf(&b, "    '--%s[%s]%s' \\\n", d.Long, desc, action)
		}
	}
	fmt.Fprintf(&b, "    '1:input:{_alternative \"commands:command:(%s)\" \"files:document:_files -g \\\"%s\\\"\"}' \\\n",
		strings.Join(commands, " "), zshGlob(strings.Join(inputGlobs, ",")))
	b.WriteString("    '*::arg:->args'\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _stpdocx stpdocx\n")
	return b.String()
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", "'\\''", "[", "\\[", "]", "\\]", ":", "\\:")
	return r.Replace(s)
}

// zshGlob turns "*.yaml,*.yml" into "*.(yaml|yml)"-style alternatives.
func zshGlob(globs string) string {
	parts := strings.Split(globs, ",")
	if len(parts) == 1 {
		return parts[0]
	}
	exts := make([]string, len(parts))
	for i, p := range parts {
		exts[i] = strings.TrimPrefix(p, "*.")
	}
	return "*.(" + strings.Join(exts, "|") + ")"
}

func fishScript(defs []flagDef) string {
	var b strings.Builder
	b.WriteString("# fish completion for stpdocx\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "complete -c stpdocx -n __fish_use_subcommand -a %s\n", c)
	}
	b.WriteString("complete -c stpdocx -n '__fish_seen_subcommand_from completion' -f -a 'bash zsh fish powershell'\n")
	for _, d := range defs {
		line := "complete -c stpdocx -l " + d.Long
		if d.Short != "" {
			line += " -s " + d.Short
		}
		if d.TakesArg {
			line += " -r"
			switch {
			case len(d.Values) > 0:
				line += " -f -a '" + strings.Join(d.Values, " ") + "'"
			case d.IsDir:
				line += " -f -a '(__fish_complete_directories)'"
			}
		}
		line += " -d '" + strings.ReplaceAll(d.Desc, "'", "\\'") + "'"
		b.WriteString(line + "\n")
	}
	return b.String()
}

func powerShellScript(defs []flagDef) string {
	var b strings.Builder
	b.WriteString("# PowerShell completion for stpdocx\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName stpdocx -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n")
	b.WriteString("    $items = @(\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "        @('%s', 'command'),\n", c)
	}
	for i, d := range defs {
		sep := ","
		if i == len(defs)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "        @('--%s', '%s')%s\n", d.Long, strings.ReplaceAll(d.Desc, "'", "''"), sep)
	}
	b.WriteString("    )\n")
	b.WriteString("    $items | Where-Object { $_[0] -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_[0], $_[0], 'ParameterName', $_[1])\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

// runCompletion handles the completion command.
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return GenerateCompletion(env.Stdout, Shell(args[0]))
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stpdocx completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells: bash, zsh, fish, powershell")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:        eval \"$(stpdocx completion bash)\"  # in ~/.bashrc")
	fmt.Fprintln(w, "  Zsh:         eval \"$(stpdocx completion zsh)\"   # in ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  Fish:        stpdocx completion fish > ~/.config/fish/completions/stpdocx.fish")
	fmt.Fprintln(w, "  PowerShell:  stpdocx completion powershell | Out-String | Invoke-Expression")
}
