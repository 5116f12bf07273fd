package analyze

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuzdev/fuz-ui-sub000/internal/classify"
	"github.com/fuzdev/fuz-ui-sub000/internal/diag"
	"github.com/fuzdev/fuz-ui-sub000/internal/frontend"
	"github.com/fuzdev/fuz-ui-sub000/internal/lang"
	"github.com/fuzdev/fuz-ui-sub000/internal/model"
)

func setup(t *testing.T, files map[string]string) (*frontend.Session, *classify.Classifier) {
	t.Helper()
	var inputs []frontend.Input
	for id, src := range files {
		inputs = append(inputs, frontend.Input{ID: id, Source: []byte(src)})
	}
	s, err := frontend.Build(inputs, frontend.Config{})
	require.NoError(t, err)
	c, err := classify.New(classify.Options{ProjectRoot: "/p", SourcePaths: []string{"src/lib"}})
	require.NoError(t, err)
	return s, c
}

func run(t *testing.T, s Frontend, c *classify.Classifier, id string) (*Analysis, *diag.Context) {
	t.Helper()
	ctx := &diag.Context{}
	modPath, ok := c.ModulePath(id)
	require.True(t, ok, id)
	a, ok := Analyze(Input{
		File:       model.SourceFile{ID: id},
		ModulePath: modPath,
		Kind:       lang.ExtractorTypeScript,
		Session:    s,
		Scope:      c,
		Diag:       ctx,
	})
	require.True(t, ok, id)
	return a, ctx
}

func find(t *testing.T, a *Analysis, name string) Analyzed {
	t.Helper()
	for _, d := range a.Declarations {
		if d.Declaration.Name == name {
			return d
		}
	}
	t.Fatalf("no declaration %q in %s", name, a.Path)
	return Analyzed{}
}

func names(ds []model.Declaration) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

func TestReexportChainYieldsFactForOrigin(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/c.ts": "export function original() {}",
		"/p/src/lib/b.ts": "export {original} from './c';",
		"/p/src/lib/a.ts": "export {original} from './b';",
	})
	a, ctx := run(t, s, c, "/p/src/lib/a.ts")
	assert.Empty(t, a.Declarations)
	assert.Equal(t, []model.ReExportFact{{Name: "original", OriginalModule: "c.ts"}}, a.ReExports)
	assert.Zero(t, ctx.Len())
}

func TestRenamedReexportBecomesAlias(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/helpers.ts": "export function helper() {}",
		"/p/src/lib/index.ts":   "export {helper} from './helpers';\nexport {helper as public_api} from './helpers';",
	})
	a, _ := run(t, s, c, "/p/src/lib/index.ts")
	assert.Equal(t, []model.ReExportFact{{Name: "helper", OriginalModule: "helpers.ts"}}, a.ReExports)
	require.Len(t, a.Declarations, 1)
	d := a.Declarations[0].Declaration
	assert.Equal(t, "public_api", d.Name)
	assert.Equal(t, model.Function, d.Kind)
	assert.Equal(t, &model.AliasOf{Module: "helpers.ts", Name: "helper"}, d.AliasOf)
	assert.Equal(t, 2, d.SourceLine)
}

func TestExternalReexportsDropped(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/outside.ts":       "export const outside = 1;",
		"/p/src/lib/index.ts": "export {outside} from '../../outside';\nexport {writable} from 'svelte/store';\nexport {outside as renamed} from '../../outside';",
	})
	a, ctx := run(t, s, c, "/p/src/lib/index.ts")
	assert.Empty(t, a.Declarations)
	assert.Empty(t, a.ReExports)
	assert.Zero(t, ctx.Len())
}

func TestMissingReexportTargetsWarned(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/outside.ts":         "export const outside = 1;",
		"/p/src/lib/helpers.ts": "export function helper() {}",
		"/p/src/lib/index.ts": "export {helper} from './helpres';\n" +
			"export * from './gone';\n" +
			"export {writable} from 'svelte/store';\n" +
			"export {outside} from '../../outside';\n" +
			"export * from 'pkg';",
	})
	a, ctx := run(t, s, c, "/p/src/lib/index.ts")
	assert.Empty(t, a.Declarations)
	assert.Empty(t, a.StarExports)
	assert.False(t, ctx.HasErrors())

	got := diag.ByKind[diag.ReexportUnresolved](ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "helper", got[0].Name)
	assert.Equal(t, "./helpres", got[0].Specifier)
	assert.Equal(t, 1, got[0].Line)
	assert.Equal(t, diag.SeverityWarning, got[0].Severity)
	assert.Equal(t, "*", got[1].Name)
	assert.Equal(t, "./gone", got[1].Specifier)
	assert.Equal(t, 2, got[1].Line)
	assert.Equal(t, diag.SeverityWarning, got[1].Severity)
}

func TestMissingTargetReportedOnlyWhereReferenced(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/a.ts": "export {helper} from './b';",
		"/p/src/lib/b.ts": "export {helper} from './gone';",
	})
	_, ctx := run(t, s, c, "/p/src/lib/a.ts")
	assert.Zero(t, ctx.Len())

	_, ctx = run(t, s, c, "/p/src/lib/b.ts")
	got := diag.ByKind[diag.ReexportUnresolved](ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "./gone", got[0].Specifier)
}

func TestUnresolvedReexportReported(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/c.ts":     "export const c = 1;",
		"/p/src/lib/index.ts": "\nexport {missing} from './c';",
	})
	a, ctx := run(t, s, c, "/p/src/lib/index.ts")
	assert.Empty(t, a.Declarations)
	got := diag.ByKind[diag.ReexportUnresolved](ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "missing", got[0].Name)
	assert.Equal(t, "./c", got[0].Specifier)
	assert.Equal(t, diag.SeverityError, got[0].Severity)
	assert.Equal(t, 2, got[0].Line)
}

func TestStarExports(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/c.ts":     "export const c = 1;",
		"/p/outside.ts":       "export const o = 1;",
		"/p/src/lib/index.ts": "export * from './c';\nexport * from './c.js';\nexport * from 'svelte';\nexport * from '../../outside';",
	})
	a, _ := run(t, s, c, "/p/src/lib/index.ts")
	assert.Equal(t, []string{"c.ts"}, a.StarExports)
}

func TestFunctionDeclarations(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/fn.ts": `/**
 * Adds numbers.
 * @param a the first
 * @param b the second
 * @returns the sum
 * @throws {RangeError} on overflow
 * @since 0.2.0
 */
export function add<T extends number = number>(a: T, b = 2): number {
	return a + b;
}

/**
 * Doubles.
 * @param n the number
 */
export const double = (n: number): number => n * 2;

export async function load() {}

/** @nodocs */
export const hidden = 1;

export let count = 0;
`})
	a, ctx := run(t, s, c, "/p/src/lib/fn.ts")
	assert.Zero(t, ctx.Len())

	add := find(t, a, "add").Declaration
	assert.Equal(t, model.Function, add.Kind)
	assert.Equal(t, "Adds numbers.", add.DocComment)
	assert.Equal(t, "<T extends number = number>(a: T, b?: number) => number", add.TypeSignature)
	assert.Equal(t, []model.Parameter{
		{Name: "a", Type: "T", Description: "the first"},
		{Name: "b", Type: "number", Optional: true, DefaultValue: "2", Description: "the second"},
	}, add.Parameters)
	assert.Equal(t, "number", add.ReturnType)
	assert.Equal(t, "the sum", add.ReturnDescription)
	assert.Equal(t, []model.Throw{{Type: "RangeError", Description: "on overflow"}}, add.Throws)
	assert.Equal(t, "0.2.0", add.Since)
	assert.Equal(t, []model.GenericParam{{Name: "T", Constraint: "number", DefaultType: "number"}}, add.GenericParams)
	assert.Equal(t, 9, add.SourceLine)

	double := find(t, a, "double").Declaration
	assert.Equal(t, model.Function, double.Kind)
	assert.Equal(t, "(n: number) => number", double.TypeSignature)
	assert.Equal(t, []model.Parameter{{Name: "n", Type: "number", Description: "the number"}}, double.Parameters)

	load := find(t, a, "load").Declaration
	assert.Equal(t, "Promise<void>", load.ReturnType)
	assert.Equal(t, []string{"async"}, load.Modifiers)

	hidden := find(t, a, "hidden")
	assert.True(t, hidden.Suppressed)
	assert.False(t, find(t, a, "add").Suppressed)

	count := find(t, a, "count").Declaration
	assert.Equal(t, model.Variable, count.Kind)
	assert.Equal(t, "number", count.TypeSignature)
}

func TestClassDeclaration(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/counter.ts": `/**
 * A counter.
 */
export class Counter<T = number> extends Base implements Resettable, Disposable {
	/** Current count. */
	count = 0;
	static readonly max: number = 10;
	private secret = 1;
	#hidden = 2;
	_internal = 3;
	constructor(start: number) {
		super();
	}
	get value(): number {
		return this.count;
	}
	set value(v: number) {}
	/**
	 * Adds n.
	 * @param n amount
	 */
	add(n: number): void {}
	async load(): Promise<void> {}
}
`})
	a, ctx := run(t, s, c, "/p/src/lib/counter.ts")
	assert.Zero(t, ctx.Len())

	d := find(t, a, "Counter").Declaration
	assert.Equal(t, model.Class, d.Kind)
	assert.Equal(t, "A counter.", d.DocComment)
	assert.Equal(t, []string{"Base"}, d.Extends)
	assert.Equal(t, []string{"Resettable", "Disposable"}, d.Implements)
	assert.Equal(t, []model.GenericParam{{Name: "T", DefaultType: "number"}}, d.GenericParams)
	assert.Equal(t, []string{"count", "max", "constructor", "value", "add", "load"}, names(d.Members))

	m := d.Members
	assert.Equal(t, model.Variable, m[0].Kind)
	assert.Equal(t, "number", m[0].TypeSignature)
	assert.Equal(t, "Current count.", m[0].DocComment)
	assert.Equal(t, []string{"static", "readonly"}, m[1].Modifiers)
	assert.Equal(t, model.Constructor, m[2].Kind)
	assert.Equal(t, []model.Parameter{{Name: "start", Type: "number"}}, m[2].Parameters)
	assert.Equal(t, []string{"get", "set"}, m[3].Modifiers)
	assert.Equal(t, "number", m[3].TypeSignature)
	assert.Equal(t, model.Function, m[4].Kind)
	assert.Equal(t, "void", m[4].ReturnType)
	assert.Equal(t, "amount", m[4].Parameters[0].Description)
	assert.Equal(t, []string{"async"}, m[5].Modifiers)
	assert.Equal(t, "Promise<void>", m[5].ReturnType)
}

func TestTypeDeclarations(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/types.ts": `export interface Options extends Base<string> {
	/** The name. */
	readonly name: string;
	size?: number;
	onChange(value: string): void;
	_private: boolean;
}
export type Box<T extends object> = { value: T };
export enum Level { Low, High = 'high' }
`})
	a, ctx := run(t, s, c, "/p/src/lib/types.ts")
	assert.Zero(t, ctx.Len())

	opts := find(t, a, "Options").Declaration
	assert.Equal(t, model.Type, opts.Kind)
	assert.Equal(t, []string{"Base<string>"}, opts.Extends)
	assert.Equal(t, []string{"name", "size", "onChange"}, names(opts.Properties))
	assert.Equal(t, "The name.", opts.Properties[0].DocComment)
	assert.Equal(t, []string{"readonly"}, opts.Properties[0].Modifiers)
	assert.Equal(t, "string", opts.Properties[0].TypeSignature)
	assert.Equal(t, []string{"optional"}, opts.Properties[1].Modifiers)
	assert.Equal(t, model.Function, opts.Properties[2].Kind)
	assert.Equal(t, "void", opts.Properties[2].ReturnType)

	box := find(t, a, "Box").Declaration
	assert.Equal(t, model.Type, box.Kind)
	assert.Equal(t, "{ value: T }", box.TypeSignature)
	assert.Equal(t, []model.GenericParam{{Name: "T", Constraint: "object"}}, box.GenericParams)
	assert.Equal(t, []string{"value"}, names(box.Properties))

	level := find(t, a, "Level").Declaration
	assert.Equal(t, model.Type, level.Kind)
	assert.Equal(t, []string{"Low", "High"}, names(level.Properties))
	assert.Equal(t, `"high"`, level.Properties[1].TypeSignature)
	assert.Equal(t, "Level.Low | Level.High", level.TypeSignature)
}

func TestEnumSignature(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		members []string
		want    string
	}{
		{"empty", nil, "never"},
		{"identifiers", []string{"A", "$b"}, "E.A | E.$b"},
		{"quoted", []string{"a-b", "ok"}, `E["a-b"] | E.ok`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var members []model.Declaration
			for _, n := range tt.members {
				members = append(members, model.Declaration{Name: n})
			}
			assert.Equal(t, tt.want, enumSignature("E", members))
		})
	}
}

func TestSuppressedNestedEntries(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/shapes.ts": `export class Box {
	visible = 1;
	/** @nodocs */
	internal(): void {}
}
export interface Shape {
	area: number;
	/** @nodocs */
	secret: string;
}
export enum Mode {
	On,
	/** @nodocs */
	Debug,
}
`})
	a, ctx := run(t, s, c, "/p/src/lib/shapes.ts")
	assert.Zero(t, ctx.Len())

	box := find(t, a, "Box")
	assert.False(t, box.Suppressed)
	assert.Equal(t, []string{"visible", "internal"}, names(box.Declaration.Members))
	assert.Equal(t, []string{"internal"}, box.SuppressedMembers)

	shape := find(t, a, "Shape")
	assert.Equal(t, []string{"area", "secret"}, names(shape.Declaration.Properties))
	assert.Equal(t, []string{"secret"}, shape.SuppressedProperties)

	mode := find(t, a, "Mode")
	assert.Equal(t, []string{"On", "Debug"}, names(mode.Declaration.Properties))
	assert.Equal(t, []string{"Debug"}, mode.SuppressedProperties)
}

func TestModuleComment(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{
		"/p/src/lib/detached.ts": "/** Module docs. */\n\nexport const a = 1;",
		"/p/src/lib/attached.ts": "/** Docs for a. */\nexport const a = 1;",
		"/p/src/lib/imports.ts":  "import {x} from './x';\n/** After imports. */\nimport {y} from './y';\nexport const a = 1;",
		"/p/src/lib/tagged.ts":   "/**\n * Tagged.\n * @module\n */\nexport const a = 1;",
		"/p/src/lib/nodocs.ts":   "/**\n * Hidden.\n * @nodocs\n */\n\nexport const a = 1;",
		"/p/src/lib/late.ts":     "export const a = 1;\n\n/** Too late. */\n\nexport const b = 1;",
	})
	for id, want := range map[string]string{
		"/p/src/lib/detached.ts": "Module docs.",
		"/p/src/lib/attached.ts": "",
		"/p/src/lib/imports.ts":  "After imports.",
		"/p/src/lib/tagged.ts":   "Tagged.",
		"/p/src/lib/nodocs.ts":   "",
		"/p/src/lib/late.ts":     "",
	} {
		a, _ := run(t, s, c, id)
		assert.Equal(t, want, a.ModuleComment, id)
	}

	a, _ := run(t, s, c, "/p/src/lib/attached.ts")
	assert.Equal(t, "Docs for a.", find(t, a, "a").Declaration.DocComment)
}

func TestRelationsFiltered(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/a.ts": "export const a = 1;"})
	ctx := &diag.Context{}
	a, ok := Analyze(Input{
		File: model.SourceFile{
			ID:           "/p/src/lib/a.ts",
			Dependencies: []string{"/p/src/lib/z.ts", "/p/outside.ts", "/p/src/lib/b.ts"},
			Dependents:   []string{"/p/src/lib/a.test.ts", "/p/src/lib/c.ts"},
		},
		ModulePath: "a.ts",
		Kind:       lang.ExtractorTypeScript,
		Session:    s,
		Scope:      c,
		Diag:       ctx,
	})
	require.True(t, ok)
	assert.Equal(t, []string{"b.ts", "z.ts"}, a.Dependencies)
	assert.Equal(t, []string{"c.ts"}, a.Dependents)
}

func TestSkippedModules(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/a.ts": "export const a = 1;"})

	ctx := &diag.Context{}
	_, ok := Analyze(Input{File: model.SourceFile{ID: "/p/src/lib/a.ts"}, Kind: "svelte", Session: s, Scope: c, Diag: ctx})
	assert.False(t, ok)

	_, ok = Analyze(Input{File: model.SourceFile{ID: "/p/src/lib/gone.ts"}, Kind: lang.ExtractorTypeScript, Session: s, Scope: c, Diag: ctx})
	assert.False(t, ok)

	skipped := diag.ByKind[diag.ModuleSkipped](ctx)
	require.Len(t, skipped, 2)
	assert.Equal(t, "/p/src/lib/a.ts", skipped[0].File)
	assert.Equal(t, "/p/src/lib/gone.ts", skipped[1].File)
	assert.Equal(t, diag.SeverityWarning, skipped[1].Severity)
}

func TestRegisterCustomExtractor(t *testing.T) {
	Register("test-dialect", func(in Input) *Analysis {
		return &Analysis{Declarations: []Analyzed{{Declaration: model.Declaration{Name: "Widget", Kind: model.Component}}}}
	})
	assert.Contains(t, Kinds(), "test-dialect")
	assert.Contains(t, Kinds(), lang.ExtractorTypeScript)

	s, c := setup(t, nil)
	a, ok := Analyze(Input{File: model.SourceFile{ID: "/p/src/lib/Widget.svelte"}, ModulePath: "Widget.svelte", Kind: "test-dialect", Session: s, Scope: c, Diag: &diag.Context{}})
	require.True(t, ok)
	assert.Equal(t, "Widget.svelte", a.Path)
	assert.Equal(t, model.Component, a.Declarations[0].Declaration.Kind)
}

// failingSession breaks one capability of a real session.
type failingSession struct {
	*frontend.Session
	failRender    string
	panicOnReturn bool
}

func (f failingSession) RenderType(n *frontend.Node) (string, error) {
	if name := n.Field("name"); name != nil && name.Text == f.failRender {
		return "", errors.New("renderer exploded")
	}
	return f.Session.RenderType(n)
}

func (f failingSession) ReturnType(n *frontend.Node) (string, error) {
	if f.panicOnReturn {
		panic("unexpected node shape")
	}
	return f.Session.ReturnType(n)
}

func TestTypeRenderingFailureKeepsDeclaration(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/a.ts": "/** Broken value. */\nexport const broken = 1;\nexport const fine = 2;"})
	a, ctx := run(t, failingSession{Session: s, failRender: "broken"}, c, "/p/src/lib/a.ts")

	broken := find(t, a, "broken").Declaration
	assert.Equal(t, model.Variable, broken.Kind)
	assert.Equal(t, "Broken value.", broken.DocComment)
	assert.Equal(t, 2, broken.SourceLine)
	assert.Empty(t, broken.TypeSignature)
	assert.Equal(t, "2", find(t, a, "fine").Declaration.TypeSignature)

	require.Equal(t, 1, ctx.Len())
	got := diag.ByKind[diag.TypeExtractionFailed](ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "broken", got[0].Symbol)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, 14, got[0].Column)
	assert.Equal(t, diag.SeverityWarning, got[0].Severity)
}

func TestSignaturePanicKeepsParameters(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/a.ts": "export function f(a: string) {}"})
	a, ctx := run(t, failingSession{Session: s, panicOnReturn: true}, c, "/p/src/lib/a.ts")

	f := find(t, a, "f").Declaration
	assert.Equal(t, []model.Parameter{{Name: "a", Type: "string"}}, f.Parameters)
	assert.Empty(t, f.ReturnType)

	got := diag.ByKind[diag.SignatureAnalysisFailed](ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "f", got[0].Function)
	assert.Contains(t, got[0].Message, "unexpected node shape")
	assert.Equal(t, 1, ctx.Len())
}

func TestMemberFailureKeepsMember(t *testing.T) {
	t.Parallel()
	s, c := setup(t, map[string]string{"/p/src/lib/a.ts": "export class K {\n\tbad = 1;\n\tgood = 2;\n}"})
	a, ctx := run(t, failingSession{Session: s, failRender: "bad"}, c, "/p/src/lib/a.ts")

	k := find(t, a, "K").Declaration
	assert.Equal(t, []string{"bad", "good"}, names(k.Members))
	got := diag.ByKind[diag.MemberExtractionFailed](ctx)
	require.Len(t, got, 1)
	assert.Equal(t, "K", got[0].Owner)
	assert.Equal(t, "bad", got[0].Member)
	assert.Equal(t, 2, got[0].Line)
}
