package analyzer

import (
	"github.com/charmbracelet/log"
	"github.com/viant/afs"
	"github.com/viant/extgraph/inspector/graph"
)

// Options represents walker construction contract
type Options struct {
	// Path is the package directory, ~ is expanded
	Path string
	// Toolkit selects the toolkit variant, e.g. classic or modern
	Toolkit string
	// Packages lists sub packages processed before the package itself, in order
	Packages []string
	// Namespace overrides manifest namespace
	Namespace string
}

// Option represents walker option
type Option func(*Walker)

// WithLogger sets logger
func WithLogger(logger *log.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// WithFileSystem sets file system used for manifests and source enumeration
func WithFileSystem(fs afs.Service) Option {
	return func(w *Walker) {
		w.fs = fs
	}
}

// WithInspector sets file inspector
func WithInspector(inspector FileInspector) Option {
	return func(w *Walker) {
		w.inspector = inspector
	}
}

// WithIndex shares an existing index with the walker
func WithIndex(index *graph.Index) Option {
	return func(w *Walker) {
		w.index = index
	}
}

// WithCacheSize enables content addressed inspection cache of the default inspector
func WithCacheSize(size int) Option {
	return func(w *Walker) {
		w.cacheSize = size
	}
}

// WithMergeOverrides keeps linked overrides when a class is registered again
func WithMergeOverrides(merge bool) Option {
	return func(w *Walker) {
		w.mergeOverrides = merge
	}
}

// WithDeferredOverrides queues overrides discovered before their target and links them once the traversal completes
func WithDeferredOverrides(deferred bool) Option {
	return func(w *Walker) {
		w.deferOverrides = deferred
	}
}
