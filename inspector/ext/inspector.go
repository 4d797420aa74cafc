package ext

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/viant/afs"
	"github.com/viant/extgraph/inspector/graph"
)

const (
	defineCall  = "Ext.define"
	requireCall = "Ext.require"
)

// Inspector extracts class declarations from Sencha style JavaScript sources
type Inspector struct {
	fs     afs.Service
	strict bool
}

// Option represents inspector option
type Option func(*Inspector)

// WithFileSystem sets file system used to read sources
func WithFileSystem(fs afs.Service) Option {
	return func(i *Inspector) {
		i.fs = fs
	}
}

// WithStrictSyntax makes sources with syntax errors fail inspection
func WithStrictSyntax(strict bool) Option {
	return func(i *Inspector) {
		i.strict = strict
	}
}

// NewInspector creates an inspector
func NewInspector(options ...Option) *Inspector {
	ret := &Inspector{}
	for _, opt := range options {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

// InspectFile reads and inspects a source file
func (i *Inspector) InspectFile(ctx context.Context, filename string, options graph.InspectOptions) (*graph.FileEntry, error) {
	src, err := i.fs.DownloadWithURL(ctx, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	entry, err := i.InspectSource(ctx, src, options)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", filename, err)
	}
	return entry, nil
}

// InspectSource parses source code and extracts declared names, requirements and override target
func (i *Inspector) InspectSource(ctx context.Context, src []byte, options graph.InspectOptions) (*graph.FileEntry, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if i.strict && rootNode.HasError() {
		return nil, fmt.Errorf("syntax error in source")
	}
	decl := &declarations{ignoreOverrides: options.IgnoreOverrides}
	decl.visit(rootNode, src)
	return &graph.FileEntry{
		Names:    decl.names.values(),
		Requires: decl.requires.values(),
		Override: decl.override,
	}, nil
}

type declarations struct {
	ignoreOverrides bool
	names           orderedSet
	requires        orderedSet
	override        string
}

func (d *declarations) visit(node *sitter.Node, src []byte) {
	if node.Type() == "call_expression" {
		switch calleeName(node.ChildByFieldName("function"), src) {
		case defineCall:
			d.processDefine(node.ChildByFieldName("arguments"), src)
		case requireCall:
			d.processRequire(node.ChildByFieldName("arguments"), src)
		}
	}
	for j := 0; j < int(node.NamedChildCount()); j++ {
		d.visit(node.NamedChild(j), src)
	}
}

// processDefine handles Ext.define('Name', { ... })
func (d *declarations) processDefine(argsNode *sitter.Node, src []byte) {
	args := arguments(argsNode)
	if len(args) == 0 {
		return
	}
	if name, ok := literal(args[0], src); ok && name != "" {
		d.names.add(name)
	}
	if len(args) < 2 || args[1].Type() != "object" {
		return
	}
	body := args[1]
	for j := 0; j < int(body.NamedChildCount()); j++ {
		pair := body.NamedChild(j)
		if pair.Type() != "pair" {
			continue
		}
		value := pair.ChildByFieldName("value")
		switch propertyName(pair.ChildByFieldName("key"), src) {
		case "alternateClassName":
			d.names.add(literals(value, src)...)
		case "extend", "requires", "mixins":
			d.requires.add(literals(value, src)...)
		case "override":
			if d.ignoreOverrides || d.override != "" {
				continue
			}
			if target, ok := literal(value, src); ok {
				d.override = target
			}
		}
	}
}

// processRequire handles Ext.require('Name') and Ext.require(['A', 'B'])
func (d *declarations) processRequire(argsNode *sitter.Node, src []byte) {
	args := arguments(argsNode)
	if len(args) == 0 {
		return
	}
	d.requires.add(literals(args[0], src)...)
}

// arguments returns call arguments without comments
func arguments(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var result []*sitter.Node
	for j := 0; j < int(node.NamedChildCount()); j++ {
		child := node.NamedChild(j)
		if child.Type() == "comment" {
			continue
		}
		result = append(result, child)
	}
	return result
}

// calleeName returns dotted name of identifier or member expression
func calleeName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier", "property_identifier":
		return node.Content(src)
	case "member_expression":
		object := calleeName(node.ChildByFieldName("object"), src)
		property := node.ChildByFieldName("property")
		if object == "" || property == nil {
			return ""
		}
		return object + "." + property.Content(src)
	}
	return ""
}

func propertyName(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	if node.Type() == "property_identifier" {
		return node.Content(src)
	}
	name, _ := literal(node, src)
	return name
}

// literal returns value of a string or substitution free template literal
func literal(node *sitter.Node, src []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "string":
		return strings.Trim(node.Content(src), `'"`), true
	case "template_string":
		for j := 0; j < int(node.NamedChildCount()); j++ {
			if node.NamedChild(j).Type() == "template_substitution" {
				return "", false
			}
		}
		return strings.Trim(node.Content(src), "`"), true
	}
	return "", false
}

// literals returns string values of a literal, an array of literals or an object with literal values
func literals(node *sitter.Node, src []byte) []string {
	if node == nil {
		return nil
	}
	if value, ok := literal(node, src); ok {
		return []string{value}
	}
	var result []string
	switch node.Type() {
	case "array":
		for j := 0; j < int(node.NamedChildCount()); j++ {
			if value, ok := literal(node.NamedChild(j), src); ok {
				result = append(result, value)
			}
		}
	case "object":
		for j := 0; j < int(node.NamedChildCount()); j++ {
			pair := node.NamedChild(j)
			if pair.Type() != "pair" {
				continue
			}
			if value, ok := literal(pair.ChildByFieldName("value"), src); ok {
				result = append(result, value)
			}
		}
	}
	return result
}

type orderedSet struct {
	items []string
	index map[string]bool
}

func (s *orderedSet) add(values ...string) {
	if s.index == nil {
		s.index = make(map[string]bool)
	}
	for _, value := range values {
		if value == "" || s.index[value] {
			continue
		}
		s.index[value] = true
		s.items = append(s.items, value)
	}
}

func (s *orderedSet) values() []string {
	if s.items == nil {
		return []string{}
	}
	return s.items
}
