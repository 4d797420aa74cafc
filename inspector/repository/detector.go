package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/viant/afs"
)

// Detector identifies package root folders and provides package-related information
type Detector struct {
	fs      afs.Service
	markers []string
}

// New creates a new package detector instance
func New() *Detector {
	return &Detector{
		fs: afs.New(),
		markers: []string{
			ManifestFile,
		},
	}
}

// DetectProject identifies the package root for the given path and returns project info
func (d *Detector) DetectProject(ctx context.Context, location string) (*Project, error) {
	absPath, err := ExpandPath(location)
	if err != nil {
		return nil, err
	}

	// If the path is a directory, start from there
	// If it's a file, start from its parent directory
	startDir := absPath
	fileInfo, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if !fileInfo.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	info := &Project{
		Type:     "unknown",
		RootPath: startDir,
	}
	rootPath := d.findProjectRoot(startDir)
	if rootPath != "" {
		info.RootPath = rootPath
		if manifest, err := LoadManifest(ctx, d.fs, rootPath); err == nil {
			info.Name = manifest.Name
			info.Type = manifest.Type
			info.Namespace = manifest.Namespace
			info.Version = manifest.Version
		}
	}
	if info.Name == "" {
		info.Name = filepath.Base(info.RootPath)
	}

	relPath, err := filepath.Rel(info.RootPath, absPath)
	if err != nil {
		relPath = filepath.Base(absPath)
	}
	info.RelativePath = filepath.ToSlash(relPath)
	return info, nil
}

// findProjectRoot searches up from the current directory for package markers
func (d *Detector) findProjectRoot(startDir string) string {
	dir := startDir
	for {
		for _, marker := range d.markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
