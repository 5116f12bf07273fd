package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeJSON(t *testing.T) {
	t.Parallel()
	doc := &LibraryDocument{
		Name:    "@acme/lib",
		Version: "0.1.0",
		Modules: []Module{{
			Path: "a.ts",
			Declarations: []Declaration{{
				Name:          "pick",
				Kind:          Function,
				TypeSignature: "<T>(items: T[]) => T & {}",
				SourceLine:    3,
			}},
		}},
	}

	out, err := EncodeJSON(doc)
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasSuffix(s, "}\n"), "trailing newline")
	assert.Contains(t, s, `"type_signature": "<T>(items: T[]) => T & {}"`, "no HTML escaping")
	assert.Contains(t, s, "\n  \"modules\": [\n")
	assert.Less(t, strings.Index(s, `"name": "@acme/lib"`), strings.Index(s, `"version"`))
	assert.NotContains(t, s, "also_exported_from")
}

func TestEncodeJSONEmptyModules(t *testing.T) {
	t.Parallel()
	out, err := EncodeJSON(&LibraryDocument{Modules: []Module{}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"\",\n  \"version\": \"\",\n  \"modules\": []\n}\n", string(out))
}

func TestLookups(t *testing.T) {
	t.Parallel()
	doc := &LibraryDocument{Modules: []Module{
		{Path: "a.ts", Declarations: []Declaration{{Name: "x", Kind: Variable}}},
		{Path: "b.ts"},
	}}

	m := doc.Module("a.ts")
	require.NotNil(t, m)
	d := m.Declaration("x")
	require.NotNil(t, d)
	d.AlsoExportedFrom = []string{"b.ts"}
	assert.Equal(t, []string{"b.ts"}, doc.Modules[0].Declarations[0].AlsoExportedFrom, "lookups return pointers into the document")

	assert.Nil(t, m.Declaration("y"))
	assert.Nil(t, doc.Module("c.ts"))
}
