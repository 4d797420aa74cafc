package inspector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/viant/afs"
	"github.com/viant/extgraph/inspector/ext"
	"github.com/viant/extgraph/inspector/graph"
)

// Inspector provides an interface for extracting declarations from source
type Inspector interface {
	// InspectSource parses source code from a byte slice and extracts declarations
	InspectSource(ctx context.Context, src []byte, options graph.InspectOptions) (*graph.FileEntry, error)

	// InspectFile parses a source file and extracts declarations
	InspectFile(ctx context.Context, filename string, options graph.InspectOptions) (*graph.FileEntry, error)
}

// Factory creates appropriate inspectors based on file extension
type Factory struct {
	fs        afs.Service
	cacheSize int
	cache     *lru.Cache[cacheKey, *graph.FileEntry]
	ext       *ext.Inspector
}

type cacheKey struct {
	hash            uint64
	ignoreOverrides bool
}

// Option represents factory option
type Option func(*Factory)

// WithCacheSize enables content addressed cache of inspection results
func WithCacheSize(size int) Option {
	return func(f *Factory) {
		f.cacheSize = size
	}
}

// WithFileSystem sets file system
func WithFileSystem(fs afs.Service) Option {
	return func(f *Factory) {
		f.fs = fs
	}
}

// NewFactory creates a new inspector factory
func NewFactory(options ...Option) (*Factory, error) {
	ret := &Factory{}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	ret.ext = ext.NewInspector(ext.WithFileSystem(ret.fs))
	if ret.cacheSize > 0 {
		cache, err := lru.New[cacheKey, *graph.FileEntry](ret.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create inspection cache: %w", err)
		}
		ret.cache = cache
	}
	return ret, nil
}

// GetInspector returns an appropriate inspector based on file extension
func (f *Factory) GetInspector(filename string) (Inspector, error) {
	extension := strings.ToLower(filepath.Ext(filename))
	switch extension {
	case ".js":
		return f.ext, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", extension)
	}
}

// InspectFile is a convenience method that gets the appropriate inspector and inspects the file.
// Results are reused for identical content when the cache is enabled.
func (f *Factory) InspectFile(ctx context.Context, filename string, options graph.InspectOptions) (*graph.FileEntry, error) {
	inspector, err := f.GetInspector(filename)
	if err != nil {
		return nil, err
	}
	if f.cache == nil {
		return inspector.InspectFile(ctx, filename, options)
	}
	src, err := f.fs.DownloadWithURL(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	hash, err := graph.Hash(src)
	if err != nil {
		return nil, err
	}
	key := cacheKey{hash: hash, ignoreOverrides: options.IgnoreOverrides}
	if entry, ok := f.cache.Get(key); ok {
		return entry.Clone(), nil
	}
	entry, err := inspector.InspectSource(ctx, src, options)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", filename, err)
	}
	f.cache.Add(key, entry.Clone())
	return entry, nil
}

// CacheLen returns number of cached inspection results
func (f *Factory) CacheLen() int {
	if f.cache == nil {
		return 0
	}
	return f.cache.Len()
}
