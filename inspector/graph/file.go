package graph

import (
	"sort"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns 64-bit highwayhash of the content
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// InspectOptions controls per file extraction
type InspectOptions struct {
	// IgnoreOverrides disables override target extraction
	IgnoreOverrides bool
}

// FileEntry represents declarations extracted from a single source file
type FileEntry struct {
	Names    []string `yaml:"names" json:"names"`                         // class names declared in the file
	Requires []string `yaml:"requires" json:"requires"`                   // names the file depends on
	Override string   `yaml:"override,omitempty" json:"override,omitempty"` // class patched by the file
}

// Clone returns a copy that does not share slices with the receiver
func (e *FileEntry) Clone() *FileEntry {
	return &FileEntry{
		Names:    append([]string{}, e.Names...),
		Requires: append([]string{}, e.Requires...),
		Override: e.Override,
	}
}

// Registry represents a flat mapping from file path to its declarations
type Registry struct {
	entries map[string]*FileEntry
}

// NewRegistry creates an empty file registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*FileEntry)}
}

// Put stores entry for path, replacing any previous value
func (r *Registry) Put(path string, entry *FileEntry) {
	r.entries[path] = entry
}

// Get returns the entry for path or nil
func (r *Registry) Get(path string) *FileEntry {
	return r.entries[path]
}

// Len returns number of registered files
func (r *Registry) Len() int {
	return len(r.entries)
}

// Paths returns registered paths in lexicographic order
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.entries))
	for path := range r.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Entries returns a copy of the underlying map
func (r *Registry) Entries() map[string]*FileEntry {
	result := make(map[string]*FileEntry, len(r.entries))
	for path, entry := range r.entries {
		result[path] = entry
	}
	return result
}
