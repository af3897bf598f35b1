// Command novac is the Nova compiler driver: it loads a nova.yaml/
// .novarc.yaml configuration, drives internal/transform's compilation
// pipeline over a source file, and reports diagnostics or a reflected
// module summary.
//
// Usage:
//
//	novac check <input.nova>
//	novac dump-ir <input.nova>
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/novalang/novac/internal/config"
	"github.com/novalang/novac/internal/diagnostic"
	"github.com/novalang/novac/internal/ir"
	"github.com/novalang/novac/internal/modreg"
	"github.com/novalang/novac/internal/source"
	"github.com/novalang/novac/internal/transform"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var (
	flagConfigFile    string
	flagNoConfig      bool
	flagPackageRoot   string
	flagExternalRoot  string
	flagStdRoot       string
	flagErrorBudget   int
	flagDebugMap      bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "novac",
		Short:   "Nova compiler driver",
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}
	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "use a specific config file")
	root.PersistentFlags().BoolVar(&flagNoConfig, "no-config", false, "ignore nova.yaml/.novarc.yaml config files")
	root.PersistentFlags().StringVar(&flagPackageRoot, "package-root", "", "override the current package's import root")
	root.PersistentFlags().StringVar(&flagExternalRoot, "external-root", "", "override the external-packages directory")
	root.PersistentFlags().StringVar(&flagStdRoot, "std-root", "", "override the std-lib import root")
	root.PersistentFlags().IntVar(&flagErrorBudget, "error-budget", 0, "override the diagnostic error budget")
	root.PersistentFlags().BoolVar(&flagDebugMap, "with-debug-map", false, "emit a source map alongside compiled output")

	root.AddCommand(newCheckCmd(), newDumpIRCmd())
	return root
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <input.nova>",
		Short: "Transform a source file and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, diags, err := compile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(diags.Format())
			if diags.HasErrors() {
				return fmt.Errorf("compilation failed with %d diagnostic(s)", diags.Count())
			}
			fmt.Fprintln(os.Stderr, "ok")
			return nil
		},
	}
}

func newDumpIRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump-ir <input.nova>",
		Short: "Transform a source file and print its reflected exports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mod, diags, err := compile(args[0])
			if err != nil {
				return err
			}
			fmt.Print(diags.Format())
			if diags.HasErrors() {
				return fmt.Errorf("compilation failed with %d diagnostic(s)", diags.Count())
			}
			for _, info := range modreg.Reflect(mod) {
				fmt.Printf("%-8s %-24s %s\n", info.Kind, info.Name, info.MangledName)
				for _, f := range info.FieldLayout {
					fmt.Printf("           .%-16s %-12s slot %d\n", f.Name, f.Type, f.Slot)
				}
			}
			if flagDebugMap {
				text, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("reading %s for debug map: %w", args[0], err)
				}
				fmt.Print(buildDebugMap(mod, args[0], string(text)).ToJSON())
				fmt.Println()
			}
			return nil
		},
	}
}

// buildDebugMap produces a Source Map v3 mapping one synthetic generated
// line per compiled function back to that function's body position in the
// original Nova source, named by its mangled symbol (spec.md §3's "each IR
// value carries ... a debug span", surfaced here at function granularity).
func buildDebugMap(mod *ir.Module, path, text string) *source.SourceMap {
	gen := source.NewGenerator(text)
	gen.SetFile(filepath.Base(path) + ".map")
	gen.SetSourceName(path)
	line := 0
	for _, fn := range mod.Functions {
		if fn.Body == nil {
			continue
		}
		span := fn.Body.Span()
		if !span.IsValid() {
			continue
		}
		gen.AddMapping(line, 0, span.Start, fn.Mangle)
		line++
	}
	return gen.Generate()
}

// compile loads config, wires an internal/transform.Pipeline, and
// compiles one input file.
func compile(inputPath string) (*ir.Module, *diagnostic.List, error) {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving %s: %w", inputPath, err)
	}
	workDir := filepath.Dir(absInput)

	var cfg *config.Config
	if !flagNoConfig {
		if flagConfigFile != "" {
			cfg, err = config.LoadFile(flagConfigFile)
		} else {
			cfg, _, err = config.Load(workDir)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	cli := config.MergeOptions{
		PackageRoot:        flagPackageRoot,
		ExternalPackageDir: flagExternalRoot,
		StdLibRoot:         flagStdRoot,
	}
	if flagErrorBudget > 0 {
		cli.ErrorBudget = &flagErrorBudget
	}
	if flagDebugMap {
		cli.DebugMap = &flagDebugMap
	}
	flagDebugMap = cfg.DebugMapEnabled(cli)

	roots := cfg.Roots(workDir, cli)
	pipeline := transform.NewPipeline(roots, func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	})
	pipeline.ErrorBudget = cfg.ErrorBudgetOr(cli, diagnostic.DefaultErrorBudget)

	mod, diags, err := pipeline.CompileFile(absInput)
	if err != nil {
		return nil, nil, err
	}
	return mod, diags, nil
}
