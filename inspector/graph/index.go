package graph

// Index represents a single traversal session: one namespace tree and one file registry
// shared by every walker taking part in the traversal.
type Index struct {
	Tree    *Tree
	Files   *Registry
	pending []pendingOverride
}

type pendingOverride struct {
	target string
	file   string
}

// Class represents a flattened class record
type Class struct {
	Name       string   `yaml:"name" json:"name"`
	SourceFile string   `yaml:"sourceFile" json:"sourceFile"`
	Overrides  []string `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{Tree: NewTree(), Files: NewRegistry()}
}

// Defer queues an override whose target is not registered yet
func (i *Index) Defer(target, file string) {
	i.pending = append(i.pending, pendingOverride{target: target, file: file})
}

// Pending returns number of queued overrides
func (i *Index) Pending() int {
	return len(i.pending)
}

// LinkPending links queued overrides in discovery order and returns the targets that are still unknown
func (i *Index) LinkPending() []string {
	var unresolved []string
	for _, candidate := range i.pending {
		if !i.Tree.AddOverride(candidate.target, candidate.file) {
			unresolved = append(unresolved, candidate.target)
		}
	}
	i.pending = nil
	return unresolved
}

// Classes returns all class records sorted by name
func (i *Index) Classes() []*Class {
	var result []*Class
	i.Tree.Walk(func(name string, record *ClassRecord) bool {
		result = append(result, &Class{
			Name:       name,
			SourceFile: record.SourceFile,
			Overrides:  append([]string{}, record.Overrides...),
		})
		return true
	})
	return result
}
