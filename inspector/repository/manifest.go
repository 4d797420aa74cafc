package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/viant/afs"
)

// ManifestFile is the package manifest file name
const ManifestFile = "package.json"

// Manifest represents recognized package manifest keys
type Manifest struct {
	Name      string    `json:"name,omitempty"`
	Type      string    `json:"type,omitempty"`
	Classpath Classpath `json:"classpath,omitempty"`
	Namespace string    `json:"namespace,omitempty"`
	Version   string    `json:"version,omitempty"`
}

// Classpath represents a classpath declared either as a single string or a list
type Classpath []string

// UnmarshalJSON accepts string or list of strings
func (c *Classpath) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = Classpath{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("classpath must be a string or a list of strings: %w", err)
	}
	*c = list
	return nil
}

// ManifestError represents missing or unparsable manifest
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("failed to load manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ParseManifest parses manifest content.
// Keys nested under "sencha" take precedence, name and version fall back to top level ones.
func ParseManifest(data []byte) (*Manifest, error) {
	envelope := struct {
		Manifest
		Sencha json.RawMessage `json:"sencha"`
	}{}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Sencha) == 0 || string(envelope.Sencha) == "null" {
		return &envelope.Manifest, nil
	}
	manifest := &Manifest{}
	if err := json.Unmarshal(envelope.Sencha, manifest); err != nil {
		return nil, err
	}
	if manifest.Name == "" {
		manifest.Name = envelope.Name
	}
	if manifest.Version == "" {
		manifest.Version = envelope.Version
	}
	return manifest, nil
}

// LoadManifest loads manifest from the package directory
func LoadManifest(ctx context.Context, fs afs.Service, dir string) (*Manifest, error) {
	location := filepath.Join(dir, ManifestFile)
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, &ManifestError{Path: location, Err: err}
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, &ManifestError{Path: location, Err: err}
	}
	return manifest, nil
}
