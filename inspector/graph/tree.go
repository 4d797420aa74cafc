package graph

import (
	"sort"
	"strings"
)

// Wildcard is a class name segment that never becomes a tree key
const Wildcard = "*"

// ClassRecord holds the declaring file of a class and the files overriding it
type ClassRecord struct {
	SourceFile string   `yaml:"sourceFile" json:"sourceFile"`
	Overrides  []string `yaml:"overrides" json:"overrides"`
}

// Node represents one dotted-name segment of the namespace tree
type Node struct {
	Class    *ClassRecord     `yaml:"class,omitempty" json:"class,omitempty"`
	Children map[string]*Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// Child returns named child or nil
func (n *Node) Child(segment string) *Node {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[segment]
}

func (n *Node) ensureChild(segment string) *Node {
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	child, ok := n.Children[segment]
	if !ok {
		child = &Node{}
		n.Children[segment] = child
	}
	return child
}

// Tree represents a namespace tree addressed by dot-separated class names
type Tree struct {
	Root *Node
	// MergeOverrides keeps already linked overrides when a class is registered again
	MergeOverrides bool
}

// NewTree creates an empty namespace tree
func NewTree() *Tree {
	return &Tree{Root: &Node{}}
}

// Segments splits a class name into addressable segments, skipping wildcard and empty ones
func Segments(className string) []string {
	parts := strings.Split(className, ".")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == Wildcard {
			continue
		}
		result = append(result, part)
	}
	return result
}

// Ensure returns the node addressed by className, creating missing nodes
func (t *Tree) Ensure(className string) *Node {
	node := t.Root
	for _, segment := range Segments(className) {
		node = node.ensureChild(segment)
	}
	return node
}

// Lookup returns the node addressed by className or nil, it never creates nodes
func (t *Tree) Lookup(className string) *Node {
	node := t.Root
	for _, segment := range Segments(className) {
		if node = node.Child(segment); node == nil {
			return nil
		}
	}
	return node
}

// Class returns the class record registered at className or nil
func (t *Tree) Class(className string) *ClassRecord {
	node := t.Lookup(className)
	if node == nil {
		return nil
	}
	return node.Class
}

// Register sets the class record at className to point at file.
// A repeated registration replaces the source file and resets overrides, unless MergeOverrides is set.
func (t *Tree) Register(className, file string) *ClassRecord {
	node := t.Ensure(className)
	overrides := []string{}
	if t.MergeOverrides && node.Class != nil {
		overrides = node.Class.Overrides
	}
	node.Class = &ClassRecord{SourceFile: file, Overrides: overrides}
	return node.Class
}

// AddOverride appends file to the overrides of an already registered target.
// It returns false when no class record exists for target.
func (t *Tree) AddOverride(target, file string) bool {
	record := t.Class(target)
	if record == nil {
		return false
	}
	record.Overrides = append(record.Overrides, file)
	return true
}

// Walk visits every class record depth first, children in lexicographic order
func (t *Tree) Walk(fn func(name string, record *ClassRecord) bool) {
	walkNode(t.Root, nil, fn)
}

func walkNode(node *Node, path []string, fn func(name string, record *ClassRecord) bool) bool {
	if node.Class != nil && len(path) > 0 {
		if !fn(strings.Join(path, "."), node.Class) {
			return false
		}
	}
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !walkNode(node.Children[key], append(path, key), fn) {
			return false
		}
	}
	return true
}
