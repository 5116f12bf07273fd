package diag

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func warning(file, msg string) Location {
	return Location{File: file, Message: msg, Severity: SeverityWarning}
}

func TestContextQueries(t *testing.T) {
	t.Parallel()

	var c Context
	assert.False(t, c.HasErrors())
	assert.False(t, c.HasWarnings())

	c.Add(TypeExtractionFailed{Location: warning("a.ts", "boom"), Symbol: "x"})
	c.Add(ReexportUnresolved{
		Location:  Location{File: "b.ts", Message: "missing", Severity: SeverityError},
		Name:      "y",
		Specifier: "./gone",
	})
	c.Add(ModuleSkipped{Location: warning("c.ts", "skipped"), Reason: "not parsed"})

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.HasErrors())
	assert.True(t, c.HasWarnings())
	assert.Len(t, c.Errors(), 1)
	assert.Len(t, c.Warnings(), 2)

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, KindTypeExtraction, all[0].Kind())
	assert.Equal(t, KindReexportUnresolved, all[1].Kind())
	assert.Equal(t, KindModuleSkipped, all[2].Kind())
}

func TestByKindIsTyped(t *testing.T) {
	t.Parallel()

	var c Context
	c.Add(MemberExtractionFailed{Location: warning("a.ts", "m1"), Owner: "Foo", Member: "bar"})
	c.Add(TypeExtractionFailed{Location: warning("a.ts", "t1"), Symbol: "x"})
	c.Add(MemberExtractionFailed{Location: warning("b.ts", "m2"), Owner: "Baz", Member: "qux"})

	members := ByKind[MemberExtractionFailed](&c)
	require.Len(t, members, 2)
	assert.Equal(t, "Foo", members[0].Owner)
	assert.Equal(t, "qux", members[1].Member)

	assert.Empty(t, ByKind[NoModules](&c))
}

func TestMergePreservesOrder(t *testing.T) {
	t.Parallel()

	var a, b Context
	a.Add(NoModules{Location: warning("", "first")})
	b.Add(NoModules{Location: warning("", "second")})
	b.Add(NoModules{Location: warning("", "third")})

	a.Merge(&b)
	a.Merge(nil)
	a.Merge(&a)

	var got []string
	for _, d := range a.All() {
		got = append(got, d.Common().Message)
	}
	assert.Equal(t, []string{"first", "second", "third"}, got)
}

func TestConcurrentAdd(t *testing.T) {
	t.Parallel()

	var c Context
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Add(TypeExtractionFailed{Location: warning("f.ts", fmt.Sprint(i))})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}
