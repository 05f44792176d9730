// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command paintsim runs paint scenarios and prints the cache statistics of
// every pass.
//
//	paintsim -scenario list.yaml -check -png last.png
//
// With -png, the artifact of the last pass is rasterized and written as a
// PNG image.
//
// It exits with status 1 when a scenario fails to load, a pass misses its
// expectation, or under-invalidation checking finds a stale cache entry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/muesli/termenv"

	"github.com/gogpu/paint"
	"github.com/gogpu/paint/artifact"
	"github.com/gogpu/paint/raster"
	"github.com/gogpu/paint/scenario"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("paintsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path    = fs.String("scenario", "", "scenario file (.yaml, .yml or .toml)")
		check   = fs.Bool("check", false, "enable under-invalidation checking")
		noColor = fs.Bool("no-color", false, "disable coloured output")
		verbose = fs.Bool("v", false, "log controller activity to stderr")
		pngPath = fs.String("png", "", "write the last pass, rasterized, to this PNG file")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *path == "" {
		fmt.Fprintln(stderr, "paintsim: -scenario is required")
		fs.Usage()
		return 2
	}

	if *verbose {
		paint.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		defer paint.SetLogger(nil)
	}

	sc, err := scenario.Load(*path)
	if err != nil {
		fmt.Fprintf(stderr, "paintsim: %v\n", err)
		return 1
	}

	var opts []paint.Option
	if *check {
		opts = append(opts, paint.WithUnderInvalidationChecking(true))
	}
	results, runErr := scenario.NewRunner(sc, opts...).Run(ctx)

	var outOpts []termenv.OutputOption
	if *noColor {
		outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
	}
	stale := report(termenv.NewOutput(stdout, outOpts...), sc.Name, results)

	if *pngPath != "" && len(results) > 0 {
		if err := writePNG(*pngPath, results[len(results)-1].Artifact); err != nil {
			fmt.Fprintf(stderr, "paintsim: %v\n", err)
			return 1
		}
	}

	switch {
	case runErr != nil:
		fmt.Fprintf(stderr, "paintsim: %v\n", runErr)
		return 1
	case stale > 0:
		fmt.Fprintf(stderr, "paintsim: %d under-invalidation(s)\n", stale)
		return 1
	}
	return 0
}

// report prints one row per pass followed by the under-invalidation
// reports, and returns how many there were.
func report(out *termenv.Output, name string, results []scenario.Result) int {
	fmt.Fprintln(out, out.String(name).Bold())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PASS\tITEMS\tCHUNKS\tSEQ\tOOO\tINDEXED\tCACHED\tSTATUS")
	stale := 0
	for _, res := range results {
		st := res.Stats
		status := out.String("ok").Foreground(out.Color("2"))
		if n := len(res.UnderInvalidations); n > 0 {
			stale += n
			status = out.String(fmt.Sprintf("stale(%d)", n)).Foreground(out.Color("1")).Bold()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.Name, res.Items, res.Chunks,
			st.SequentialMatches, st.OutOfOrderMatches, st.IndexedItems, st.CachedNewItems,
			status)
	}
	_ = tw.Flush()

	for _, res := range results {
		for _, msg := range res.UnderInvalidations {
			fmt.Fprintf(out, "%s: %s\n", res.Name, out.String(msg).Foreground(out.Color("3")))
		}
	}
	return stale
}

// writePNG rasterizes a from the origin to the far corner of its chunks.
func writePNG(path string, a *artifact.Artifact) (err error) {
	var bounds image.Rectangle
	for _, ch := range a.Chunks() {
		bounds = bounds.Union(ch.Bounds)
	}
	if bounds.Empty() {
		return errors.New("png: nothing painted")
	}
	img, err := raster.Render(a, image.Rect(0, 0, bounds.Max.X, bounds.Max.Y))
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("png: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("png: %w", cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("png: %w", err)
	}
	return nil
}
