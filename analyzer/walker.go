package analyzer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"
	"github.com/viant/afs"
	"github.com/viant/extgraph/inspector"
	"github.com/viant/extgraph/inspector/graph"
	"github.com/viant/extgraph/inspector/repository"
)

const (
	packagesDir   = "packages"
	sourcePattern = "{*.js,**/*.js}"
)

// FileInspector extracts a file entry from a source file
type FileInspector interface {
	InspectFile(ctx context.Context, filename string, options graph.InspectOptions) (*graph.FileEntry, error)
}

// Walker processes one package directory: its sub packages, its toolkit and its own sources
type Walker struct {
	pkg            *repository.Package
	packages       []string
	index          *graph.Index
	fs             afs.Service
	inspector      FileInspector
	logger         *log.Logger
	matcher        glob.Glob
	cacheSize      int
	mergeOverrides bool
	deferOverrides bool
	root           bool
}

// New loads the package manifest at options.Path and creates a root walker
func New(ctx context.Context, options Options, opts ...Option) (*Walker, error) {
	ret := &Walker{root: true, packages: options.Packages}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = log.New(io.Discard)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	if ret.index == nil {
		ret.index = graph.NewIndex()
	}
	if ret.mergeOverrides {
		ret.index.Tree.MergeOverrides = true
	}
	if ret.inspector == nil {
		factory, err := inspector.NewFactory(inspector.WithFileSystem(ret.fs), inspector.WithCacheSize(ret.cacheSize))
		if err != nil {
			return nil, err
		}
		ret.inspector = factory
	}
	matcher, err := glob.Compile(sourcePattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid source pattern %s: %w", sourcePattern, err)
	}
	ret.matcher = matcher
	if err = ret.load(ctx, options.Path, options.Toolkit, options.Namespace); err != nil {
		return nil, err
	}
	return ret, nil
}

func (w *Walker) load(ctx context.Context, location, toolkit, namespace string) error {
	root, err := repository.ExpandPath(location)
	if err != nil {
		return err
	}
	manifest, err := repository.LoadManifest(ctx, w.fs, root)
	if err != nil {
		return err
	}
	w.pkg = repository.NewPackage(root, toolkit, namespace, manifest)
	w.logger.Debug("package loaded", "path", root, "name", w.pkg.Name, "kind", w.pkg.Kind, "version", w.pkg.Version)
	return nil
}

// child creates a walker for a nested package sharing index, file system, inspector and logger.
// Nested packages inherit the toolkit only.
func (w *Walker) child(ctx context.Context, location string) (*Walker, error) {
	ret := &Walker{
		index:          w.index,
		fs:             w.fs,
		inspector:      w.inspector,
		logger:         w.logger,
		matcher:        w.matcher,
		deferOverrides: w.deferOverrides,
	}
	if err := ret.load(ctx, location, w.pkg.Toolkit, ""); err != nil {
		return nil, err
	}
	return ret, nil
}

// Package returns the package descriptor
func (w *Walker) Package() *repository.Package {
	return w.pkg
}

// Index returns the index populated by the walker
func (w *Walker) Index() *graph.Index {
	return w.index
}

// Run processes sub packages in declared order, then the toolkit of a framework, then the package own sources.
// The first failure aborts the traversal.
func (w *Walker) Run(ctx context.Context) error {
	if err := w.processPackages(ctx); err != nil {
		return err
	}
	if err := w.processToolkit(ctx); err != nil {
		return err
	}
	if err := w.processDir(ctx); err != nil {
		return err
	}
	if w.root && w.deferOverrides {
		for _, target := range w.index.LinkPending() {
			w.logger.Debug("override target not found", "target", target)
		}
	}
	return nil
}

func (w *Walker) processPackages(ctx context.Context) error {
	if len(w.packages) == 0 {
		return nil
	}
	w.logger.Debug("packages to process", "packages", w.packages)
	for _, id := range w.packages {
		location := filepath.Join(w.pkg.SourceRoot(), packagesDir, id)
		w.logger.Debug("processing package", "id", id, "path", location)
		walker, err := w.child(ctx, location)
		if err != nil {
			return err
		}
		if err = walker.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) processToolkit(ctx context.Context) error {
	if w.pkg.Kind != repository.KindFramework {
		return nil
	}
	if w.pkg.Toolkit == "" {
		return fmt.Errorf("framework package %s requires a toolkit", w.pkg.Root)
	}
	location := filepath.Join(w.pkg.SourceRoot(), w.pkg.Toolkit, w.pkg.Toolkit)
	w.logger.Debug("processing toolkit", "toolkit", w.pkg.Toolkit, "path", location)
	walker, err := w.child(ctx, location)
	if err != nil {
		return err
	}
	return walker.Run(ctx)
}

func (w *Walker) processDir(ctx context.Context) error {
	switch w.pkg.Kind {
	case repository.KindToolkit, repository.KindCode:
		return w.processPackage(ctx)
	default:
		w.logger.Debug("skipping package sources", "path", w.pkg.Root, "kind", w.pkg.Kind)
		return nil
	}
}
