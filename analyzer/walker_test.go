package analyzer_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/extgraph/analyzer"
	"github.com/viant/extgraph/inspector/graph"
	"github.com/viant/extgraph/inspector/repository"
)

type expectClass struct {
	source    string
	overrides []string
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		location := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
		require.NoError(t, os.WriteFile(location, []byte(content), 0o644))
	}
}

func frameworkFiles(extra map[string]string) map[string]string {
	ret := map[string]string{
		"package.json":                 `{"name":"ext","version":"7.0.0","sencha":{"type":"framework","namespace":"Ext"}}`,
		"classic/classic/package.json": `{"type":"toolkit","classpath":"${package.dir}/src"}`,
	}
	for k, v := range extra {
		ret[k] = v
	}
	return ret
}

func TestWalker_Run(t *testing.T) {
	tests := []struct {
		description string
		files       map[string]string
		options     analyzer.Options
		opts        []analyzer.Option
		expect      map[string]expectClass
		absent      []string
		expectFiles []string
	}{
		{
			description: "code package",
			files: map[string]string{
				"package.json":    `{"type":"code","namespace":"App","classpath":"${package.dir}/src"}`,
				"src/foo/Bar.js":  `Ext.define('App.foo.Bar', { requires: ['App.foo.Baz'] });`,
				"src/.cache/X.js": `Ext.define('App.Hidden', {});`,
				"src/readme.txt":  `not a source`,
			},
			expect: map[string]expectClass{
				"App.foo.Bar": {source: "src/foo/Bar.js"},
			},
			absent:      []string{"App.Hidden", "App.foo.Baz"},
			expectFiles: []string{"src/foo/Bar.js"},
		},
		{
			description: "override linked to registered class",
			files: map[string]string{
				"package.json":              `{"type":"code","namespace":"App","classpath":"${package.dir}/src"}`,
				"src/foo/Bar.js":            `Ext.define('App.foo.Bar', {});`,
				"overrides/foo/BarPatch.js": `Ext.define('App.overrides.foo.BarPatch', { override: 'App.foo.Bar' });`,
			},
			expect: map[string]expectClass{
				"App.foo.Bar":                {source: "src/foo/Bar.js", overrides: []string{"overrides/foo/BarPatch.js"}},
				"App.overrides.foo.BarPatch": {source: "overrides/foo/BarPatch.js"},
			},
			expectFiles: []string{"overrides/foo/BarPatch.js", "src/foo/Bar.js"},
		},
		{
			description: "deft namespace ignores overrides",
			files: map[string]string{
				"package.json":       `{"type":"code","namespace":"Deft","classpath":"${package.dir}/src"}`,
				"src/foo/Bar.js":     `Ext.define('Deft.foo.Bar', {});`,
				"overrides/Patch.js": `Ext.define('Deft.Patch', { override: 'Deft.foo.Bar' });`,
			},
			expect: map[string]expectClass{
				"Deft.foo.Bar":         {source: "src/foo/Bar.js"},
				"Deft.Patch":           {source: "overrides/Patch.js"},
				"Deft.overrides.Patch": {source: "overrides/Patch.js"},
			},
		},
		{
			description: "wildcard segments skipped",
			files: map[string]string{
				"package.json": `{"type":"code","namespace":"App"}`,
				"Util.js":      `Ext.define('App.*.Util', {});`,
			},
			expect: map[string]expectClass{
				"App.Util": {source: "Util.js"},
			},
		},
		{
			description: "namespace option takes precedence",
			files: map[string]string{
				"package.json": `{"type":"code","namespace":"App"}`,
				"view/Main.js": `Ext.define('App.view.Main', {});`,
			},
			options: analyzer.Options{Namespace: "My"},
			expect: map[string]expectClass{
				"App.view.Main": {source: "view/Main.js"},
				"My.view.Main":  {source: "view/Main.js"},
			},
		},
		{
			description: "framework processes toolkit only",
			files: frameworkFiles(map[string]string{
				"src/Base.js":                        `Ext.define('Ext.Base', {});`,
				"classic/classic/src/panel/Panel.js": `Ext.define('Ext.panel.Panel', { extend: 'Ext.Base' });`,
			}),
			options: analyzer.Options{Toolkit: "classic"},
			expect: map[string]expectClass{
				"Ext.panel.Panel": {source: "classic/classic/src/panel/Panel.js"},
			},
			absent:      []string{"Ext.Base"},
			expectFiles: []string{"classic/classic/src/panel/Panel.js"},
		},
		{
			description: "later sub package wins",
			files: frameworkFiles(map[string]string{
				"packages/a/package.json":  `{"type":"code","namespace":"PkgA","classpath":"${package.dir}/src"}`,
				"packages/a/src/Shared.js": `Ext.define('App.Shared', {});`,
				"packages/b/package.json":  `{"type":"code","namespace":"PkgB","classpath":"${package.dir}/src"}`,
				"packages/b/src/Shared.js": `Ext.define('App.Shared', {});`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"a", "b"}},
			expect: map[string]expectClass{
				"App.Shared":  {source: "packages/b/src/Shared.js"},
				"PkgA.Shared": {source: "packages/a/src/Shared.js"},
				"PkgB.Shared": {source: "packages/b/src/Shared.js"},
			},
			expectFiles: []string{"packages/a/src/Shared.js", "packages/b/src/Shared.js"},
		},
		{
			description: "override before target is dropped",
			files: frameworkFiles(map[string]string{
				"packages/patch/package.json":        `{"type":"code","namespace":"Patch","classpath":"${package.dir}/src"}`,
				"packages/patch/overrides/Widget.js": `Ext.define('Patch.Widget', { override: 'Core.Widget' });`,
				"packages/core/package.json":         `{"type":"code","namespace":"Core","classpath":"${package.dir}/src"}`,
				"packages/core/src/Widget.js":        `Ext.define('Core.Widget', {});`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"patch", "core"}},
			expect: map[string]expectClass{
				"Core.Widget":  {source: "packages/core/src/Widget.js"},
				"Patch.Widget": {source: "packages/patch/overrides/Widget.js"},
			},
		},
		{
			description: "deferred override linked after traversal",
			files: frameworkFiles(map[string]string{
				"packages/patch/package.json":        `{"type":"code","namespace":"Patch","classpath":"${package.dir}/src"}`,
				"packages/patch/overrides/Widget.js": `Ext.define('Patch.Widget', { override: 'Core.Widget' });`,
				"packages/core/package.json":         `{"type":"code","namespace":"Core","classpath":"${package.dir}/src"}`,
				"packages/core/src/Widget.js":        `Ext.define('Core.Widget', {});`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"patch", "core"}},
			opts:    []analyzer.Option{analyzer.WithDeferredOverrides(true)},
			expect: map[string]expectClass{
				"Core.Widget": {source: "packages/core/src/Widget.js", overrides: []string{"packages/patch/overrides/Widget.js"}},
			},
		},
		{
			description: "re-registration resets overrides",
			files: frameworkFiles(map[string]string{
				"packages/one/package.json":       `{"type":"code","namespace":"One","classpath":"${package.dir}/src"}`,
				"packages/one/src/Bar.js":         `Ext.define('App.Bar', {});`,
				"packages/one/overrides/Patch.js": `Ext.define('One.Patch', { override: 'App.Bar' });`,
				"packages/two/package.json":       `{"type":"code","namespace":"Two","classpath":"${package.dir}/src"}`,
				"packages/two/src/Bar.js":         `Ext.define('App.Bar', {});`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"one", "two"}},
			expect: map[string]expectClass{
				"App.Bar": {source: "packages/two/src/Bar.js"},
			},
		},
		{
			description: "re-registration with merged overrides",
			files: frameworkFiles(map[string]string{
				"packages/one/package.json":       `{"type":"code","namespace":"One","classpath":"${package.dir}/src"}`,
				"packages/one/src/Bar.js":         `Ext.define('App.Bar', {});`,
				"packages/one/overrides/Patch.js": `Ext.define('One.Patch', { override: 'App.Bar' });`,
				"packages/two/package.json":       `{"type":"code","namespace":"Two","classpath":"${package.dir}/src"}`,
				"packages/two/src/Bar.js":         `Ext.define('App.Bar', {});`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"one", "two"}},
			opts:    []analyzer.Option{analyzer.WithMergeOverrides(true)},
			expect: map[string]expectClass{
				"App.Bar": {source: "packages/two/src/Bar.js", overrides: []string{"packages/one/overrides/Patch.js"}},
			},
		},
		{
			description: "sub package declared twice",
			files: frameworkFiles(map[string]string{
				"packages/core/package.json":           `{"type":"code","namespace":"Core","classpath":"${package.dir}/src"}`,
				"packages/core/src/Widget.js":          `Ext.define('Core.Widget', {});`,
				"packages/core/overrides/WidgetFix.js": `Ext.define('Core.WidgetFix', { override: 'Core.Widget' });`,
			}),
			options: analyzer.Options{Toolkit: "classic", Packages: []string{"core", "core"}},
			expect: map[string]expectClass{
				"Core.Widget":    {source: "packages/core/src/Widget.js", overrides: []string{"packages/core/overrides/WidgetFix.js"}},
				"Core.WidgetFix": {source: "packages/core/overrides/WidgetFix.js"},
			},
			expectFiles: []string{"packages/core/overrides/WidgetFix.js", "packages/core/src/Widget.js"},
		},
		{
			description: "hidden directories not descended",
			files: map[string]string{
				"package.json":          `{"type":"code","namespace":"App"}`,
				"Main.js":               `Ext.define('App.Main', {});`,
				".git/hooks/install.js": `Ext.define('App.Hook', {});`,
				"view/.tmp/Draft.js":    `Ext.define('App.Draft', {});`,
			},
			expect: map[string]expectClass{
				"App.Main": {source: "Main.js"},
			},
			absent:      []string{"App.Hook", "App.Draft"},
			expectFiles: []string{"Main.js"},
		},
		{
			description: "cached inspection",
			files: map[string]string{
				"package.json": `{"type":"code","namespace":"App"}`,
				"a/Same.js":    `Ext.define('App.Same', {});`,
				"b/Same.js":    `Ext.define('App.Same', {});`,
			},
			opts: []analyzer.Option{analyzer.WithCacheSize(8)},
			expect: map[string]expectClass{
				"App.Same":   {source: "b/Same.js"},
				"App.a.Same": {source: "a/Same.js"},
			},
			expectFiles: []string{"a/Same.js", "b/Same.js"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, tc.files)
			options := tc.options
			options.Path = root
			walker, err := analyzer.New(context.Background(), options, tc.opts...)
			require.NoError(t, err)
			require.NoError(t, walker.Run(context.Background()))
			index := walker.Index()

			for name, expected := range tc.expect {
				record := index.Tree.Class(name)
				if !assert.NotNil(t, record, name) {
					continue
				}
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(expected.source)), record.SourceFile, name)
				var overrides = []string{}
				for _, override := range expected.overrides {
					overrides = append(overrides, filepath.Join(root, filepath.FromSlash(override)))
				}
				assert.Equal(t, overrides, record.Overrides, name)
			}
			for _, name := range tc.absent {
				assert.Nil(t, index.Tree.Class(name), name)
			}
			if tc.expectFiles != nil {
				var files []string
				for _, file := range tc.expectFiles {
					files = append(files, filepath.Join(root, filepath.FromSlash(file)))
				}
				assert.Equal(t, files, index.Files.Paths())
			}
		})
	}
}

func TestWalker_FileEntry(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"package.json":   `{"type":"code","namespace":"App","classpath":["${package.dir}/src"]}`,
		"src/foo/Bar.js": `Ext.define('App.foo.Bar', { extend: 'App.foo.Base', requires: ['App.foo.Baz'] });`,
	})
	walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root})
	require.NoError(t, err)
	require.NoError(t, walker.Run(context.Background()))

	entry := walker.Index().Files.Get(filepath.Join(root, "src", "foo", "Bar.js"))
	require.NotNil(t, entry)
	assert.Equal(t, []string{"App.foo.Bar"}, entry.Names)
	assert.Equal(t, []string{"App.foo.Base", "App.foo.Baz"}, entry.Requires)
	assert.Equal(t, "", entry.Override)
	assert.Equal(t, repository.KindCode, walker.Package().Kind)
	assert.Equal(t, []string{filepath.Join(root, "src")}, walker.Package().SourceRoots)
}

func TestWalker_SharedIndex(t *testing.T) {
	first := t.TempDir()
	writeFiles(t, first, map[string]string{
		"package.json": `{"type":"code","namespace":"App"}`,
		"Bar.js":       `Ext.define('App.Bar', {});`,
	})
	second := t.TempDir()
	writeFiles(t, second, map[string]string{
		"package.json": `{"type":"code","namespace":"Patch"}`,
		"Bar.js":       `Ext.define('Patch.Bar', { override: 'App.Bar' });`,
	})
	index := graph.NewIndex()
	for _, location := range []string{first, second} {
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: location}, analyzer.WithIndex(index))
		require.NoError(t, err)
		require.NoError(t, walker.Run(context.Background()))
	}
	assert.Equal(t, []string{filepath.Join(second, "Bar.js")}, index.Tree.Class("App.Bar").Overrides)
	assert.Equal(t, 2, index.Files.Len())
}

// failingWalkService reads files but cannot enumerate directories
type failingWalkService struct {
	afs.Service
}

func (s *failingWalkService) Walk(ctx context.Context, URL string, handler storage.OnVisit, options ...storage.Option) error {
	return fmt.Errorf("permission denied: %s", URL)
}

type failingInspector struct {
	failOn string
}

func (f *failingInspector) InspectFile(ctx context.Context, filename string, options graph.InspectOptions) (*graph.FileEntry, error) {
	if filepath.Base(filename) == f.failOn {
		return nil, fmt.Errorf("unexpected token")
	}
	return &graph.FileEntry{Names: []string{}, Requires: []string{}}, nil
}

func TestWalker_Errors(t *testing.T) {
	t.Run("missing root manifest", func(t *testing.T) {
		_, err := analyzer.New(context.Background(), analyzer.Options{Path: t.TempDir()})
		var manifestErr *repository.ManifestError
		assert.True(t, errors.As(err, &manifestErr))
	})

	t.Run("missing sub package manifest", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, frameworkFiles(nil))
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root, Toolkit: "classic", Packages: []string{"missing"}})
		require.NoError(t, err)
		err = walker.Run(context.Background())
		var manifestErr *repository.ManifestError
		require.True(t, errors.As(err, &manifestErr))
		assert.Equal(t, filepath.Join(root, "packages", "missing", repository.ManifestFile), manifestErr.Path)
	})

	t.Run("missing toolkit manifest", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, frameworkFiles(nil))
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root, Toolkit: "modern"})
		require.NoError(t, err)
		var manifestErr *repository.ManifestError
		assert.True(t, errors.As(walker.Run(context.Background()), &manifestErr))
	})

	t.Run("framework without toolkit", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, frameworkFiles(nil))
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root})
		require.NoError(t, err)
		assert.Error(t, walker.Run(context.Background()))
	})

	t.Run("enumeration failure aborts traversal", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"package.json": `{"type":"code","namespace":"App","classpath":"${package.dir}/src"}`,
			"src/A.js":     `Ext.define('App.A', {});`,
		})
		fs := &failingWalkService{Service: afs.New()}
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root}, analyzer.WithFileSystem(fs))
		require.NoError(t, err)
		err = walker.Run(context.Background())
		var globErr *analyzer.GlobError
		require.True(t, errors.As(err, &globErr))
		assert.Equal(t, filepath.Join(root, "src", "{*.js,**/*.js}"), globErr.Pattern)
		assert.Equal(t, 0, walker.Index().Files.Len())
		assert.Nil(t, walker.Index().Tree.Class("App.A"))
	})

	t.Run("analysis failure aborts traversal", func(t *testing.T) {
		root := t.TempDir()
		writeFiles(t, root, map[string]string{
			"package.json": `{"type":"code","namespace":"App"}`,
			"A.js":         `Ext.define('App.A', {});`,
			"Broken.js":    `Ext.define(`,
		})
		walker, err := analyzer.New(context.Background(), analyzer.Options{Path: root}, analyzer.WithInspector(&failingInspector{failOn: "Broken.js"}))
		require.NoError(t, err)
		err = walker.Run(context.Background())
		var analysisErr *analyzer.AnalysisError
		require.True(t, errors.As(err, &analysisErr))
		assert.Equal(t, filepath.Join(root, "Broken.js"), analysisErr.Path)
	})
}

func TestAnalyze(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, frameworkFiles(map[string]string{
		"classic/classic/src/Button.js":          `Ext.define('Ext.Button', {});`,
		"classic/classic/overrides/ButtonFix.js": `Ext.define('Ext.ButtonFix', { override: 'Ext.Button' });`,
	}))
	config := analyzer.DefaultConfig()
	index, err := analyzer.Analyze(context.Background(), root, config, nil)
	require.NoError(t, err)
	record := index.Tree.Class("Ext.Button")
	require.NotNil(t, record)
	assert.Equal(t, []string{filepath.Join(root, "classic", "classic", "overrides", "ButtonFix.js")}, record.Overrides)

	_, err = analyzer.Analyze(context.Background(), filepath.Join(root, "missing"), nil, nil)
	assert.Error(t, err)
}
