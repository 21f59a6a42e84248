// hostbridge CLI - expands annotated bridge packages into native bindings
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/giovanniberti/hostbridge/internal/cache"
	"github.com/giovanniberti/hostbridge/manifest"
	"github.com/giovanniberti/hostbridge/pkg/diag"
	"github.com/giovanniberti/hostbridge/pkg/parser"
	"github.com/giovanniberti/hostbridge/pkg/resolve"
	"github.com/giovanniberti/hostbridge/pkg/transform"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	output := flag.String("o", "", "Output file (overrides bridge.toml; '-' for stdout)")
	verbose := flag.Bool("v", false, "Verbose output")
	noCache := flag.Bool("no-cache", false, "Bypass the generation cache")
	skipValidation := flag.Bool("skip-validation", false, "Skip the in-memory Go check of the emitted file")
	dryRun := flag.Bool("dry-run", false, "Expand and report diagnostics without writing output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hostbridge [options] [package-dir]\n\n")
		fmt.Fprintf(os.Stderr, "Expands an annotated bridge package into native binding code.\n")
		fmt.Fprintf(os.Stderr, "Without a package-dir, settings come from the nearest bridge.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hostbridge                   # Expand the bridge.toml project\n")
		fmt.Fprintf(os.Stderr, "  hostbridge ./bridge -o -     # Expand a package, print to stdout\n")
		fmt.Fprintf(os.Stderr, "  hostbridge -dry-run ./bridge # Check a package without writing\n")
	}
	flag.Parse()

	if *verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}

	if err := run(flag.Arg(0), *output, *verbose, *noCache, *skipValidation, *dryRun); err != nil {
		if !errors.Is(err, diag.ErrExpansion) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(arg, output string, verbose, noCache, skipValidation, dryRun bool) error {
	dir := arg
	if dir == "" {
		dir = "."
	}

	mf, err := manifest.FindAndLoad(dir)
	if err != nil {
		return err
	}

	// The command line argument names the package directory when given;
	// otherwise the manifest does.
	opts := transform.Options{SkipValidation: skipValidation}
	var cachePath string
	if mf != nil {
		if arg == "" {
			dir = mf.SourcePath()
		}
		if output == "" {
			output = mf.OutputPath()
		}
		opts.SkipValidation = opts.SkipValidation || mf.Generate.SkipValidation
		opts.ExceptionClass = dottedToSlashed(mf.Generate.Exception)
		opts.ExceptionMsg = mf.Generate.Message
		cachePath = mf.CachePath()
		if verbose {
			fmt.Printf("Project %s (%s)\n", mf.Project.Name, mf.Dir)
		}
	}
	if output == "" {
		output = filepath.Join(dir, "bridge_gen.go")
	}

	var store *cache.Cache
	if cachePath != "" && !noCache && !dryRun {
		store, err = cache.Open(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache unavailable: %v\n", err)
		} else {
			defer store.Close()
		}
	}

	mod, err := parser.Load(dir)
	if err != nil {
		return err
	}

	key := ""
	if store != nil {
		paths := make([]string, 0, len(mod.Files))
		for _, sf := range mod.Files {
			paths = append(paths, sf.Path)
		}
		key, err = cache.Key(paths, opts.ExceptionClass, opts.ExceptionMsg)
		if err != nil {
			return err
		}
		if code, err := store.Get(key); err == nil {
			if verbose {
				fmt.Printf("Cache hit for %s\n", dir)
			}
			return writeOutput(output, code)
		} else if !errors.Is(err, cache.ErrMiss) {
			return err
		}
	}

	var bag diag.Bag
	nsMap, err := resolve.Resolve(mod, &bag)
	if err != nil {
		report(&bag)
		return err
	}

	result := transform.New(mod, nsMap, opts, &bag).Generate()
	report(&bag)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, s := range result.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.Name, s.Reason)
	}
	if err := bag.Err(); err != nil {
		return err
	}

	if dryRun {
		if verbose {
			fmt.Printf("Expansion OK (%d bytes, %d warning(s))\n", len(result.Code), len(result.Warnings))
		}
		return nil
	}

	if err := writeOutput(output, result.Code); err != nil {
		return err
	}
	if store != nil && key != "" {
		if err := store.Put(key, result.Code); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot update cache: %v\n", err)
		}
	}
	if verbose && output != "-" {
		fmt.Printf("Wrote %s\n", output)
	}
	return nil
}

// report prints every accumulated diagnostic to stderr.
func report(bag *diag.Bag) {
	for _, d := range bag.Diagnostics() {
		fmt.Fprintln(os.Stderr, d)
	}
}

func writeOutput(path, code string) error {
	if path == "-" {
		_, err := os.Stdout.WriteString(code)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return os.WriteFile(path, []byte(code), 0o644)
}

// dottedToSlashed converts a dotted class name to its slash form. Manifests
// use the dotted spelling.
func dottedToSlashed(class string) string {
	out := make([]byte, len(class))
	for i := 0; i < len(class); i++ {
		if class[i] == '.' {
			out[i] = '/'
		} else {
			out[i] = class[i]
		}
	}
	return string(out)
}
