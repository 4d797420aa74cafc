package graph

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Emitter represents index serializer
type Emitter interface {
	Emit(index *Index) ([]byte, error)
}

// Document represents serialized form of an index
type Document struct {
	Files   map[string]*FileEntry `yaml:"files" json:"files"`
	Classes []*Class              `yaml:"classes" json:"classes"`
	Tree    *Node                 `yaml:"tree" json:"tree"`
}

// NewDocument creates a document snapshot of the index
func NewDocument(index *Index) *Document {
	return &Document{
		Files:   index.Files.Entries(),
		Classes: index.Classes(),
		Tree:    index.Tree.Root,
	}
}

// YAMLEmitter emits index as YAML
type YAMLEmitter struct{}

// Emit converts index to YAML
func (e *YAMLEmitter) Emit(index *Index) ([]byte, error) {
	return yaml.Marshal(NewDocument(index))
}

// JSONEmitter emits index as indented JSON
type JSONEmitter struct {
	Indent string
}

// Emit converts index to JSON
func (e *JSONEmitter) Emit(index *Index) ([]byte, error) {
	if e.Indent == "" {
		return json.Marshal(NewDocument(index))
	}
	return json.MarshalIndent(NewDocument(index), "", e.Indent)
}

// NewEmitter returns emitter for the format name, YAML when format is unknown
func NewEmitter(format string) Emitter {
	switch format {
	case "json":
		return &JSONEmitter{Indent: "  "}
	default:
		return &YAMLEmitter{}
	}
}
