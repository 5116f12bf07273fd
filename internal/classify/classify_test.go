package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T, opts Options) *Classifier {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"relative project root", Options{ProjectRoot: "proj", SourcePaths: []string{"src"}}, "project_root"},
		{"trailing separator", Options{ProjectRoot: "/proj/", SourcePaths: []string{"src"}}, "project_root"},
		{"filesystem root", Options{ProjectRoot: "/", SourcePaths: []string{"src"}}, "project_root"},
		{"no source paths", Options{ProjectRoot: "/proj"}, "source_paths"},
		{"empty source path", Options{ProjectRoot: "/proj", SourcePaths: []string{""}}, "source_paths"},
		{"leading separator", Options{ProjectRoot: "/proj", SourcePaths: []string{"/src"}}, "source_paths"},
		{"trailing source separator", Options{ProjectRoot: "/proj", SourcePaths: []string{"src/"}}, "source_paths"},
		{"multiple without root", Options{ProjectRoot: "/proj", SourcePaths: []string{"src/lib", "src/routes"}}, "source_root"},
		{
			"source path outside root",
			Options{ProjectRoot: "/proj", SourcePaths: []string{"src/lib", "other"}, SourceRoot: "src"},
			"source_paths",
		},
		{
			"look-alike prefix is not under root",
			Options{ProjectRoot: "/proj", SourcePaths: []string{"srcx/lib"}, SourceRoot: "src"},
			"source_paths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opts)
			require.Error(t, err)
			var oe *OptionsError
			require.True(t, errors.As(err, &oe), "want *OptionsError, got %T", err)
			assert.Equal(t, tt.field, oe.Field)
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()

	valid := []Options{
		{ProjectRoot: "/proj", SourcePaths: []string{"src/lib"}},
		{ProjectRoot: "/proj", SourcePaths: []string{"src/lib", "src/routes"}, SourceRoot: "src"},
		{ProjectRoot: "/proj", SourcePaths: []string{"src"}, SourceRoot: "src"},
	}
	for _, opts := range valid {
		assert.NoError(t, opts.Validate())
	}
}

func TestClassifySingleSourcePath(t *testing.T) {
	t.Parallel()
	c := newClassifier(t, Options{ProjectRoot: "/proj", SourcePaths: []string{"src/lib"}})

	tests := []struct {
		name    string
		id      string
		inScope bool
		path    string
		kind    string
	}{
		{"typescript module", "/proj/src/lib/helpers.ts", true, "helpers.ts", "typescript"},
		{"nested directory", "/proj/src/lib/util/strings.ts", true, "util/strings.ts", "typescript"},
		{"javascript module", "/proj/src/lib/legacy.js", true, "legacy.js", "typescript"},
		{"outside source path", "/proj/src/routes/page.ts", false, "", ""},
		{"outside project", "/elsewhere/src/lib/a.ts", false, "", ""},
		{"look-alike directory", "/proj/src/library/a.ts", false, "", ""},
		{"test file excluded", "/proj/src/lib/helpers.test.ts", false, "", ""},
		{"extension not allowed", "/proj/src/lib/readme.md", false, "", ""},
		{"nested source root", "/proj/src/lib/vendor/pkg/src/lib/a.ts", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tt.id)
			assert.Equal(t, tt.inScope, got.InScope)
			assert.Equal(t, tt.path, got.ModulePath)
			assert.Equal(t, tt.kind, got.ExtractorKind)
		})
	}
}

func TestClassifyMultipleSourcePaths(t *testing.T) {
	t.Parallel()
	c := newClassifier(t, Options{
		ProjectRoot: "/proj",
		SourcePaths: []string{"src/lib", "src/routes"},
		SourceRoot:  "src",
	})

	p, ok := c.ModulePath("/proj/src/lib/a.ts")
	require.True(t, ok)
	assert.Equal(t, "lib/a.ts", p)

	p, ok = c.ModulePath("/proj/src/routes/docs/b.ts")
	require.True(t, ok)
	assert.Equal(t, "routes/docs/b.ts", p)

	_, ok = c.ModulePath("/proj/src/other/c.ts")
	assert.False(t, ok)
}

func TestClassifyOptions(t *testing.T) {
	t.Parallel()

	t.Run("nested guard disabled", func(t *testing.T) {
		t.Parallel()
		c := newClassifier(t, Options{
			ProjectRoot:            "/proj",
			SourcePaths:            []string{"src/lib"},
			AllowNestedSourceRoots: true,
		})
		p, ok := c.ModulePath("/proj/src/lib/vendor/src/lib/a.ts")
		require.True(t, ok)
		assert.Equal(t, "vendor/src/lib/a.ts", p)
	})

	t.Run("custom excludes replace defaults", func(t *testing.T) {
		t.Parallel()
		c := newClassifier(t, Options{
			ProjectRoot: "/proj",
			SourcePaths: []string{"src/lib"},
			Exclude:     []string{"internal/"},
		})
		_, ok := c.ModulePath("/proj/src/lib/internal/a.ts")
		assert.False(t, ok)
		_, ok = c.ModulePath("/proj/src/lib/a.test.ts")
		assert.True(t, ok)
	})

	t.Run("custom extensions and extractor", func(t *testing.T) {
		t.Parallel()
		c := newClassifier(t, Options{
			ProjectRoot: "/proj",
			SourcePaths: []string{"src/lib"},
			Extensions:  []string{"svelte", ".ts"},
			ExtractorFor: func(id string) string {
				if len(id) > 7 && id[len(id)-7:] == ".svelte" {
					return "svelte"
				}
				return ""
			},
		})
		got := c.Classify("/proj/src/lib/Button.svelte")
		assert.True(t, got.InScope)
		assert.Equal(t, "svelte", got.ExtractorKind)

		got = c.Classify("/proj/src/lib/a.ts")
		assert.True(t, got.InScope)
		assert.Equal(t, "", got.ExtractorKind)

		assert.False(t, c.Classify("/proj/src/lib/a.js").InScope)
	})
}

func TestRelations(t *testing.T) {
	t.Parallel()
	c := newClassifier(t, Options{ProjectRoot: "/proj", SourcePaths: []string{"src/lib"}})

	got := c.Relations([]string{
		"/proj/src/lib/z.ts",
		"/proj/src/routes/page.ts",
		"/proj/src/lib/a.ts",
		"/proj/src/lib/a.ts",
		"/proj/src/lib/a.test.ts",
	})
	assert.Equal(t, []string{"a.ts", "z.ts"}, got)
	assert.Empty(t, c.Relations(nil))
}

func TestInSourcePaths(t *testing.T) {
	t.Parallel()
	c := newClassifier(t, Options{ProjectRoot: "/proj", SourcePaths: []string{"src/lib"}})

	assert.True(t, c.InSourcePaths("/proj/src/lib/a.ts"))
	assert.True(t, c.InSourcePaths("/proj/src/lib/helpres"))
	assert.True(t, c.InSourcePaths("/proj/src/lib/a.test.ts"))
	assert.True(t, c.InSourcePaths("/proj/src/lib"))
	assert.False(t, c.InSourcePaths("/proj/src/library/a.ts"))
	assert.False(t, c.InSourcePaths("/proj/src/routes/page.ts"))
	assert.False(t, c.InSourcePaths("/other/src/lib/a.ts"))
}
