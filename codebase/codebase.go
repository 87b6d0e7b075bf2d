// Package codebase keeps the latest parse of every ziggurat source file in
// a directory tree and serves it to the language server and the check
// command.
package codebase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/parser"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/dhamidi/ziggurat/telemetry"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("ziggurat.codebase")

// Ext is the extension of the files ScanAll and the watcher pick up.
const Ext = ".zig"

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	files   map[string]*FileInfo
	pending map[string]*session
	metrics *telemetry.Metrics
	source  string
	wg      sync.WaitGroup
}

type FileInfo struct {
	Path     string
	Session  uuid.UUID
	Content  []byte
	Tree     *ast.Tree
	Stats    recovery.Stats
	ParseErr error
	Duration time.Duration
}

// Diagnostics returns the diagnostics of the parse, or nil for a file that
// has not been parsed.
func (f *FileInfo) Diagnostics() []recovery.Diagnostic {
	if f == nil || f.Tree == nil {
		return nil
	}
	return f.Tree.Diagnostics
}

// session is an in-flight scheduled parse. Its cancel flag is handed to
// the parser and set once a newer version of the same file arrives.
type session struct {
	id     uuid.UUID
	cancel atomic.Bool
}

type Option func(*Codebase)

// WithMetrics records every parse on m, tagged with source.
func WithMetrics(m *telemetry.Metrics, source string) Option {
	return func(c *Codebase) {
		c.metrics = m
		c.source = source
	}
}

func New(rootDir string, opts ...Option) *Codebase {
	c := &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
		pending: make(map[string]*session),
		source:  "codebase",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// ScanAll parses every source file below the root directory. Hidden
// directories are skipped. Files that cannot be read are reported in the
// returned error but do not stop the walk.
func (c *Codebase) ScanAll() error {
	var errs []error
	err := walkSources(c.rootDir, func(path string, _ os.FileInfo) {
		if err := c.ScanFile(path); err != nil {
			errs = append(errs, err)
		}
	})
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.UpdateFile(path, content)
	return nil
}

// UpdateFile parses content synchronously and makes it the current version
// of path. A scheduled parse of the same path still in flight is cancelled.
func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	c.mu.Lock()
	if prev := c.pending[path]; prev != nil {
		prev.cancel.Store(true)
		delete(c.pending, path)
	}
	c.mu.Unlock()

	info := c.parse(path, content, uuid.New(), nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = info
	return info
}

// Schedule parses content in the background. Any earlier scheduled parse
// of path is told to stop at its next member or statement boundary and its
// result is discarded. The returned channel yields the new FileInfo once it
// has become current, and is closed without a value when a newer version
// superseded it first.
func (c *Codebase) Schedule(path string, content []byte) <-chan *FileInfo {
	s := &session{id: uuid.New()}

	c.mu.Lock()
	if prev := c.pending[path]; prev != nil {
		log.Debugf("session %s: superseded by %s for %s", prev.id, s.id, path)
		prev.cancel.Store(true)
	}
	c.pending[path] = s
	c.mu.Unlock()

	done := make(chan *FileInfo, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)

		info := c.parse(path, content, s.id, &s.cancel)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.pending[path] != s {
			log.Debugf("session %s: discarding stale result for %s", s.id, path)
			return
		}
		delete(c.pending, path)
		c.files[path] = info
		done <- info
	}()
	return done
}

// Wait blocks until every scheduled parse has finished.
func (c *Codebase) Wait() {
	c.wg.Wait()
}

func (c *Codebase) parse(path string, content []byte, id uuid.UUID, cancel *atomic.Bool) *FileInfo {
	opts := []parser.Option{parser.WithFile(path)}
	if cancel != nil {
		opts = append(opts, parser.WithCancel(cancel))
	}

	start := time.Now()
	p := parser.New(content, opts...)
	tree, err := p.ParseFile()
	elapsed := time.Since(start)
	stats := p.Stats()

	c.metrics.RecordParse(context.Background(), telemetry.Parse{
		Source:    c.source,
		Stats:     stats,
		Failed:    err != nil,
		Cancelled: tree.Cancelled,
		Duration:  elapsed,
	})
	log.Debugf("session %s: parsed %s in %s, %d diagnostics", id, path, elapsed, len(tree.Diagnostics))

	return &FileInfo{
		Path:     path,
		Session:  id,
		Content:  content,
		Tree:     tree,
		Stats:    stats,
		ParseErr: err,
		Duration: elapsed,
	}
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev := c.pending[path]; prev != nil {
		prev.cancel.Store(true)
		delete(c.pending, path)
	}
	delete(c.files, path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Files returns the paths of all parsed files in lexical order.
func (c *Codebase) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for path := range c.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// SourceFiles lists the source files below root in lexical walk order.
func SourceFiles(root string) ([]string, error) {
	var files []string
	err := walkSources(root, func(path string, _ os.FileInfo) {
		files = append(files, path)
	})
	return files, err
}

// walkSources calls fn for every source file below root, skipping hidden
// directories. Unreadable entries are ignored.
func walkSources(root string, fn func(path string, info os.FileInfo)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == Ext {
			fn(path, info)
		}
		return nil
	})
}
