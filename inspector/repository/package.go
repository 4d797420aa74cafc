package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind represents package kind
type Kind string

const (
	KindFramework Kind = "framework"
	KindToolkit   Kind = "toolkit"
	KindCode      Kind = "code"
)

const (
	// DefaultNamespace is used when neither option nor manifest declares a namespace
	DefaultNamespace = "Ext"

	packageDirPlaceholder  = "${package.dir}"
	toolkitNamePlaceholder = "${toolkit.name}"

	// namespace whose sources never carry override targets
	noOverrideNamespace = "deft"

	overridesDir = "overrides"
)

// Package represents a package descriptor derived from a manifest
type Package struct {
	Root        string   // absolute package directory
	Name        string   // manifest name
	Kind        Kind     // framework, toolkit or code
	SourceRoots []string // effective source roots
	Namespace   string   // class name prefix
	Toolkit     string   // toolkit name, e.g. classic or modern
	Version     string   // informational
}

// NewPackage derives package descriptor.
// Non framework packages with explicit classpath use the substituted classpath, others use the package root.
func NewPackage(root, toolkit, namespace string, manifest *Manifest) *Package {
	ret := &Package{
		Root:    root,
		Name:    manifest.Name,
		Kind:    Kind(manifest.Type),
		Toolkit: toolkit,
		Version: manifest.Version,
	}
	if len(manifest.Classpath) > 0 && ret.Kind != KindFramework {
		for _, classpath := range manifest.Classpath {
			ret.SourceRoots = append(ret.SourceRoots, expandClasspath(classpath, root, toolkit))
		}
	} else {
		ret.SourceRoots = []string{filepath.Clean(root)}
	}
	switch {
	case namespace != "":
		ret.Namespace = namespace
	case manifest.Namespace != "":
		ret.Namespace = manifest.Namespace
	default:
		ret.Namespace = DefaultNamespace
	}
	return ret
}

func expandClasspath(classpath, root, toolkit string) string {
	location := strings.ReplaceAll(classpath, packageDirPlaceholder, root)
	location = strings.ReplaceAll(location, toolkitNamePlaceholder, toolkit)
	if !filepath.IsAbs(location) {
		location = filepath.Join(root, location)
	}
	return filepath.Clean(location)
}

// SourceRoot returns the first source root, sub packages and overrides are resolved against it
func (p *Package) SourceRoot() string {
	return p.SourceRoots[0]
}

// IgnoreOverrides reports whether override targets are not extracted for this package
func (p *Package) IgnoreOverrides() bool {
	return strings.ToLower(p.Namespace) == noOverrideNamespace
}

// OverridesRoot returns the overrides directory adjacent to the first source root
func (p *Package) OverridesRoot() string {
	return filepath.Join(filepath.Dir(p.SourceRoot()), overridesDir)
}

// ClassName returns the class name derived from the file location:
// namespace prefix, source root stripped, separators converted to dots, extension dropped.
// Files outside every source root (overrides) are resolved against the parent of the first source root.
func (p *Package) ClassName(file string) string {
	relative := filepath.Base(file)
	bases := append(append([]string{}, p.SourceRoots...), filepath.Dir(p.SourceRoot()))
	for _, base := range bases {
		if rel, ok := trimRoot(file, base); ok {
			relative = rel
			break
		}
	}
	relative = strings.TrimSuffix(relative, filepath.Ext(relative))
	relative = strings.ReplaceAll(filepath.ToSlash(relative), "/", ".")
	return p.Namespace + "." + strings.Trim(relative, ".")
}

func trimRoot(file, root string) (string, bool) {
	rel, err := filepath.Rel(root, file)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// ExpandPath expands leading ~ and returns absolute clean path
func ExpandPath(location string) (string, error) {
	if location == "~" || strings.HasPrefix(location, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		location = filepath.Join(home, strings.TrimPrefix(location, "~"))
	}
	return filepath.Abs(filepath.Clean(location))
}
