package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dhamidi/ziggurat/codebase"
	"github.com/dhamidi/ziggurat/format"
	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/parser"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type checkOptions struct {
	format      string
	concurrency int
	timeout     time.Duration
	watch       bool
}

type checkResult struct {
	path string
	tree *ast.Tree
	err  error
}

func newCheckCmd(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Parse source files and report diagnostics",
		Long: `Parse every source file below the given paths (default: the
current directory) and report their diagnostics.

Files are parsed concurrently. A file whose parse takes longer than
--timeout is cancelled, reported with what was parsed so far and
counted as a failure.

With --watch, the directory is polled and changed files are re-checked
until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = a.config.Check.Format
			}
			if opts.concurrency <= 0 {
				opts.concurrency = a.config.Check.Concurrency
			}
			if len(args) == 0 {
				args = []string{"."}
			}

			if opts.watch {
				if len(args) != 1 {
					return fmt.Errorf("--watch takes exactly one directory")
				}
				return runWatch(cmd.Context(), a, args[0], opts, cmd.OutOrStdout())
			}
			return runCheck(cmd.Context(), a, args, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format ("+strings.Join(format.Names, ", ")+"), defaults to check.format")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 0, "files parsed in parallel, defaults to check.concurrency")
	cmd.Flags().DurationVarP(&opts.timeout, "timeout", "t", 10*time.Second, "cancel a file's parse after this long")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-check files as they change")

	return cmd
}

func runCheck(ctx context.Context, a *app, paths []string, opts checkOptions, out io.Writer) error {
	files, err := collectSources(paths)
	if err != nil {
		return err
	}

	results := make([]checkResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, path := range files {
		g.Go(func() error {
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			tree, parseErr := checkFile(ctx, a.metrics(), path, source, opts.timeout)
			results[i] = checkResult{path: path, tree: tree, err: parseErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	encoder, err := format.NewEncoder(opts.format, out)
	if err != nil {
		return err
	}

	var failed, cancelled int
	for _, r := range results {
		if err := encoder.Encode(r.path, r.tree); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if r.err != nil || hasErrors(r.tree) {
			failed++
		}
		// A cancelled file was not fully checked.
		if r.tree.Cancelled {
			cancelled++
		}
	}
	log.Infof("checked %d files, %d with errors, %d cancelled", len(files), failed, cancelled)

	if failed > 0 || cancelled > 0 {
		return fmt.Errorf("%d of %d files have errors, %d cancelled", failed, len(files), cancelled)
	}
	return nil
}

// checkFile parses one file in its own session. The parse is cancelled
// when timeout elapses or ctx is done.
func checkFile(ctx context.Context, metrics *telemetry.Metrics, path string, source []byte, timeout time.Duration) (*ast.Tree, error) {
	var cancel atomic.Bool
	if ctx.Err() != nil {
		cancel.Store(true)
	}
	timer := time.AfterFunc(timeout, func() { cancel.Store(true) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { cancel.Store(true) })
	defer stop()

	start := time.Now()
	p := parser.New(source, parser.WithFile(path), parser.WithCancel(&cancel))
	tree, err := p.ParseFile()
	metrics.RecordParse(ctx, telemetry.Parse{
		Source:    "check",
		Stats:     p.Stats(),
		Failed:    err != nil,
		Cancelled: tree.Cancelled,
		Duration:  time.Since(start),
	})
	if tree.Cancelled {
		log.Warningf("%s: parse cancelled after %s", path, time.Since(start))
	}
	return tree, err
}

func hasErrors(tree *ast.Tree) bool {
	for _, d := range tree.Diagnostics {
		if d.Severity == recovery.SeverityError {
			return true
		}
	}
	return false
}

// collectSources expands directories into the source files below them.
// Paths naming files are taken as given.
func collectSources(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := codebase.SourceFiles(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func runWatch(ctx context.Context, a *app, root string, opts checkOptions, out io.Writer) error {
	encoder, err := format.NewEncoder(opts.format, out)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	c := codebase.New(root, codebase.WithMetrics(a.metrics(), "check"))
	w := codebase.NewFileWatcher(c, a.config.Check.WatchInterval, func(path string, info *codebase.FileInfo) {
		if info == nil {
			log.Infof("%s removed", path)
			return
		}
		if err := encoder.Encode(path, info.Tree); err != nil {
			log.Errorf("encode %s: %v", path, err)
		}
	})

	log.Infof("watching %s every %s", root, a.config.Check.WatchInterval)
	w.Start()
	<-ctx.Done()
	w.Stop()
	return nil
}
