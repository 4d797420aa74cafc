package analyzer

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/viant/afs/storage"
	"github.com/viant/extgraph/inspector/graph"
)

// processPackage registers every source file of each source root, then the overrides directory
func (w *Walker) processPackage(ctx context.Context) error {
	for _, root := range w.pkg.SourceRoots {
		w.logger.Debug("processing src", "path", root)
		if err := w.processPath(ctx, root); err != nil {
			return err
		}
	}
	overrides := w.pkg.OverridesRoot()
	w.logger.Debug("processing overrides", "path", overrides)
	return w.processPath(ctx, overrides)
}

func (w *Walker) processPath(ctx context.Context, root string) error {
	files, err := w.scan(ctx, root)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err = w.registerFile(ctx, file); err != nil {
			return err
		}
	}
	return nil
}

// scan returns sorted source files under root, a missing root yields no files
func (w *Walker) scan(ctx context.Context, root string) ([]string, error) {
	pattern := filepath.Join(root, sourcePattern)
	exists, err := w.fs.Exists(ctx, root)
	if err != nil {
		return nil, &GlobError{Pattern: pattern, Err: err}
	}
	if !exists {
		return nil, nil
	}
	var files []string
	var visitor storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return !strings.HasPrefix(info.Name(), "."), nil
		}
		relative := path.Join(filepath.ToSlash(parent), info.Name())
		if isHidden(relative) || !w.matcher.Match(relative) {
			return true, nil
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(relative)))
		return true, nil
	}
	if err = w.fs.Walk(ctx, root, visitor); err != nil {
		return nil, &GlobError{Pattern: pattern, Err: err}
	}
	sort.Strings(files)
	return files, nil
}

func isHidden(relative string) bool {
	for _, segment := range strings.Split(relative, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

// registerFile records the file entry, registers its declared names and path derived name, then links its override
func (w *Walker) registerFile(ctx context.Context, file string) error {
	entry, err := w.inspector.InspectFile(ctx, file, graph.InspectOptions{IgnoreOverrides: w.pkg.IgnoreOverrides()})
	if err != nil {
		return &AnalysisError{Path: file, Err: err}
	}
	w.index.Files.Put(file, entry)
	for _, name := range entry.Names {
		w.index.Tree.Register(name, file)
	}
	w.index.Tree.Register(w.pkg.ClassName(file), file)
	if entry.Override == "" {
		return nil
	}
	if w.index.Tree.AddOverride(entry.Override, file) {
		return nil
	}
	if w.deferOverrides {
		w.logger.Debug("deferring override", "target", entry.Override, "file", file)
		w.index.Defer(entry.Override, file)
		return nil
	}
	w.logger.Debug("dropping override of unknown class", "target", entry.Override, "file", file)
	return nil
}
