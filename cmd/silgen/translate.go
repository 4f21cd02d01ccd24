package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"silgen/internal/bcir"
	"silgen/internal/cache"
	"silgen/internal/config"
	"silgen/internal/diag"
	"silgen/internal/diagfmt"
	"silgen/internal/driver"
	"silgen/internal/lower"
	"silgen/internal/sil"
)

var translateCmd = &cobra.Command{
	Use:   "translate [flags] <file.pyc>",
	Short: "Translate a loaded bytecode file into Textual IR",
	Long:  `translate loads a msgpack-encoded code object and lowers it to a Textual IR module. Pass --dir to translate every .pyc file under a directory instead.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTranslate,
}

func init() {
	translateCmd.Flags().String("dir", "", "translate every .pyc file under this directory instead of a single file")
	translateCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
	translateCmd.Flags().String("ui", "auto", "interactive progress UI for --dir (auto|on|off)")
	translateCmd.Flags().Int("jobs", 0, "max parallel workers for --dir (0=auto)")
	translateCmd.Flags().String("cache-dir", "", "directory for the translation result cache (empty disables caching)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	if dir != "" {
		return runTranslateDir(cmd, dir)
	}
	if len(args) != 1 {
		return fmt.Errorf("translate requires exactly one file, or --dir <directory>")
	}
	return runTranslateFile(cmd, args[0])
}

// loadConfig resolves the project manifest named by --config, falling back
// to searching upward from the working directory, and finally to
// config.Default() when no manifest exists.
func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	if path != "" {
		if cfg, err := config.Load(path); err == nil {
			return cfg
		}
	}
	cfg, _, err := config.LoadFromDir(".")
	if err != nil {
		return config.Default()
	}
	return cfg
}

// effectiveMaxDiagnostics prefers an explicitly-set --max-diagnostics flag
// over the manifest's limits.max_diagnostics, and the manifest over the
// built-in default.
func effectiveMaxDiagnostics(cmd *cobra.Command, cfg config.Config) int {
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		v, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
		return v
	}
	if cfg.Limits.MaxDiagnostics > 0 {
		return cfg.Limits.MaxDiagnostics
	}
	v, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	return v
}

func effectiveJobs(cmd *cobra.Command, cfg config.Config) int {
	if cmd.Flags().Changed("jobs") {
		v, _ := cmd.Flags().GetInt("jobs")
		return v
	}
	return cfg.Limits.Jobs
}

func runTranslateFile(cmd *cobra.Command, path string) error {
	cfg := loadConfig(cmd)
	maxDiagnostics := effectiveMaxDiagnostics(cmd, cfg)
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	loader := bcir.MsgpackLoader{}
	co, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	c, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}

	mod, bag, err := translateWithCache(c, path, co, maxDiagnostics, cfg.Builtins)
	if err != nil {
		return fmt.Errorf("translating %s: %w", path, err)
	}
	mod.SourceLanguage = cfg.Translate.SourceLanguage

	if bag != nil && bag.Len() > 0 {
		if err := printDiagnostics(cmd, bag, format); err != nil {
			return err
		}
	}

	return sil.Fprint(cmd.OutOrStdout(), mod)
}

// translateWithCache consults c (if non-nil) for a cached module keyed on
// co, translating and populating the cache on a miss. A cache hit carries
// no diagnostics, since diagnostics belong to the run that produced them,
// not the cached artifact.
func translateWithCache(c *cache.Cache, path string, co *bcir.CodeObject, maxDiagnostics int, builtinsCfg config.BuiltinsConfig) (*sil.Module, *diag.Bag, error) {
	if c == nil {
		return lower.ToModule(path, co, maxDiagnostics, builtinsCfg)
	}
	key, kerr := cache.Key(co)
	if kerr == nil {
		if mod, ok, gerr := c.Get(key); gerr == nil && ok {
			return mod, nil, nil
		}
	}
	mod, bag, err := lower.ToModule(path, co, maxDiagnostics, builtinsCfg)
	if err != nil {
		return nil, bag, err
	}
	if kerr == nil {
		_ = c.Put(key, mod)
	}
	return mod, bag, nil
}

func openCacheFromFlags(cmd *cobra.Command) (*cache.Cache, error) {
	dirFlag, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if dirFlag == "" {
		return nil, nil
	}
	return cache.Open(dirFlag)
}

func runTranslateDir(cmd *cobra.Command, dir string) error {
	cfg := loadConfig(cmd)
	maxDiagnostics := effectiveMaxDiagnostics(cmd, cfg)
	jobs := effectiveJobs(cmd, cfg)
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	c, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}

	opts := driver.Options{MaxDiagnostics: maxDiagnostics, Jobs: jobs, Cache: c, Builtins: cfg.Builtins}

	ctx := context.Background()
	var results []driver.Result
	if shouldUseTUI(uiModeValue) {
		results, err = runTranslateDirWithUI(ctx, dir, opts)
	} else {
		results, err = driver.TranslateDir(ctx, dir, opts)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Diags != nil && r.Diags.Len() > 0 {
			if perr := printDiagnostics(cmd, r.Diags, format); perr != nil {
				return perr
			}
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to translate", failed, len(results))
	}
	return nil
}

func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, format string) error {
	switch format {
	case "json":
		return diagfmt.JSON(cmd.ErrOrStderr(), bag)
	default:
		opts := diagfmt.PrettyOpts{Color: useColor(cmd, os.Stderr)}
		diagfmt.Pretty(cmd.ErrOrStderr(), bag, opts)
		return nil
	}
}
