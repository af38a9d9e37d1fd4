// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package eval_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"carvel.dev/mtpl/pkg/eval"
	"carvel.dev/mtpl/pkg/funcs"
	"carvel.dev/mtpl/pkg/markup"
	"carvel.dev/mtpl/pkg/model"
	"carvel.dev/mtpl/pkg/orderedmap"
	"carvel.dev/mtpl/pkg/resolver"
	"carvel.dev/mtpl/pkg/texttemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustResolve(t *testing.T, src string, opts resolver.Options) *resolver.ResolvedTree {
	t.Helper()
	tpl, err := texttemplate.NewParser().Parse([]byte(src), "stdin")
	require.NoError(t, err)
	tree, err := resolver.Resolve(tpl, opts)
	require.NoError(t, err)
	return tree
}

func render(t *testing.T, src string, env eval.Env) (string, error) {
	t.Helper()
	return eval.RenderString(context.Background(), mustResolve(t, src, resolver.Options{}), env)
}

func modelOf(t *testing.T, yamlSrc string) model.Model {
	t.Helper()
	vals, err := model.FromYAML([]byte(yamlSrc))
	require.NoError(t, err)
	return model.NewDataFromMap(vals)
}

// mapLoader resolves invoked templates from in-memory sources. The
// format of a template follows its locator's extension.
type mapLoader map[string]string

func (l mapLoader) Load(_ context.Context, locator, format string) (*resolver.ResolvedTree, error) {
	src, found := l[locator]
	if !found {
		return nil, fmt.Errorf("no template '%s'", locator)
	}
	if len(format) > 0 && markup.FromExtension(locator).Name() != format {
		return nil, fmt.Errorf("template '%s' is not %s", locator, format)
	}
	tpl, err := texttemplate.NewParser().Parse([]byte(src), locator)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(tpl, resolver.Options{AllowFreeNames: true})
}

func TestEvaluateForeach(t *testing.T) {
	out, err := render(t, `<% foreach x in [1, 2, 3] { ${x} } %>`, eval.Env{})
	require.NoError(t, err)
	assert.Equal(t, "123", out)
}

func TestEvaluateForeachOverMapsAndStrings(t *testing.T) {
	env := eval.Env{Model: modelOf(t, "m: {b: 1, a: 2}\ns: xy")}

	out, err := render(t, `<% [separator=", "] foreach k in $m { ${k} } %>|<% foreach c in $s { [${c}] } %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "b, a|[x][y]", out)
}

func TestEvaluateIfElse(t *testing.T) {
	src := `<% if $flag { A } else { B } %>`

	out, err := render(t, src, eval.Env{Model: modelOf(t, "flag: true")})
	require.NoError(t, err)
	assert.Equal(t, "A", out)

	out, err = render(t, src, eval.Env{Model: modelOf(t, "flag: false")})
	require.NoError(t, err)
	assert.Equal(t, "B", out)
}

func TestEvaluateElseifChain(t *testing.T) {
	src := `<% if $n == 1 { one } elseif $n == 2 { two } else { many } %>`
	for n, expected := range map[int]string{1: "one", 2: "two", 3: "many"} {
		out, err := render(t, src, eval.Env{Model: modelOf(t, fmt.Sprintf("n: %d", n))})
		require.NoError(t, err)
		assert.Equal(t, expected, out)
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	calls := 0
	env := eval.Env{Funcs: funcs.Map{
		"touch": funcs.Func(func([]interface{}) (interface{}, error) {
			calls++
			return true, nil
		}),
	}}

	out, err := render(t, `<%= false && touch() %>,<%= true || touch() %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "false,true", out)
	assert.Equal(t, 0, calls)

	out, err = render(t, `<%= true && touch() %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "true", out)
	assert.Equal(t, 1, calls)
}

func TestEvaluateShadowingRestoresOuterBinding(t *testing.T) {
	src := `<% def x = "outer"; foreach x in ["a", "b"] { ${x} } %>${x}`
	out, err := render(t, src, eval.Env{})
	require.NoError(t, err)
	assert.Equal(t, "abouter", out)
}

func TestEvaluateLoopBindingsDoNotCarryOver(t *testing.T) {
	src := `<% foreach x in [1, 2] { <% def y = x %>${y} } %>`
	out, err := render(t, src, eval.Env{})
	require.NoError(t, err)
	assert.Equal(t, "12", out)
}

func TestEvaluateEscaping(t *testing.T) {
	env := eval.Env{Model: modelOf(t, `x: 'a&b"c'`), Format: markup.HTML}

	out, err := render(t, `<a title="$x">$x</a>`, env)
	require.NoError(t, err)
	assert.Equal(t, `<a title="a&amp;b&#34;c">a&amp;b"c</a>`, out)

	env.Format = markup.XML
	out, err = render(t, `<a title="$x">$x</a>`, env)
	require.NoError(t, err)
	assert.Equal(t, `<a title="a&amp;b&quot;c">a&amp;b"c</a>`, out)

	env.Format = markup.Text
	out, err = render(t, `<a title="$x">$x</a>`, env)
	require.NoError(t, err)
	assert.Equal(t, `<a title="a&b"c">a&b"c</a>`, out)
}

func TestEvaluateWriterSink(t *testing.T) {
	sink := eval.NewStringSink(markup.HTML)
	tree := mustResolve(t, `<p>$x</p>`, resolver.Options{})

	err := eval.Evaluate(context.Background(), tree, eval.Env{Model: modelOf(t, "x: '<b>'"), Sink: sink})
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;b&gt;</p>", sink.String())
}

func TestEvaluateInvokeParams(t *testing.T) {
	loader := mapLoader{
		"card": `${a}:<% foreach v in b { ${v} } %>:$a:${m.n}`,
	}
	out, err := render(t, `[<% invoke "card" (a: 1, b: [2, 3], m: {n: "x"}) %>]`, eval.Env{Loader: loader})
	require.NoError(t, err)
	assert.Equal(t, "[1:23:1:x]", out)
}

func TestEvaluateInvokeDoesNotSeeCallerBindings(t *testing.T) {
	loader := mapLoader{"inner": `${secret}`}
	_, err := render(t, `<% def secret = 1; invoke "inner" () %>`, eval.Env{Loader: loader})
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrUnresolvedVariable))
	assert.Contains(t, err.Error(), "Expected parameter 'secret' for template 'inner' to be provided")
}

func TestEvaluateInvokeFormat(t *testing.T) {
	loader := mapLoader{"raw": `${v}`, "box.html": `<b title="${v}">${v}</b>`}
	env := eval.Env{Loader: loader, Format: markup.HTML}

	out, err := render(t, `<% invoke "raw" (v: "<b>") %>|<% invoke "raw"#text (v: "<b>") %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;|&lt;b&gt;", out)

	out, err = render(t, `<% invoke "box.html"#html (v: "a&b") %>`, env)
	require.NoError(t, err)
	assert.Equal(t, `<b title="a&amp;b">a&amp;b</b>`, out)

	out, err = render(t, `<a title="<% invoke "raw"#text (v: "a&b") %>">`, env)
	require.NoError(t, err)
	assert.Equal(t, `<a title="a&amp;b">`, out)

	for _, src := range []string{`<% invoke "raw"#html (v: 1) %>`, `<% invoke "raw"#pdf (v: 1) %>`} {
		_, err = render(t, src, env)
		require.Error(t, err)
		assert.True(t, errors.Is(err, eval.ErrTemplateNotFound), src)
	}
}

func TestEvaluateAttributeLiterals(t *testing.T) {
	env := eval.Env{Model: modelOf(t, "x: a&b"), Format: markup.HTML}

	out, err := render(t, `<a title="&amp; lit">|<a title="&amp; $x">|<a title='${x}&y'>`, env)
	require.NoError(t, err)
	assert.Equal(t, `<a title="&amp; lit">|<a title="&amp; a&amp;b">|<a title='a&amp;b&y'>`, out)
}

func TestEvaluateInvokeErrors(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		_, err := render(t, `<% invoke "nope" () %>`, eval.Env{Loader: mapLoader{}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, eval.ErrTemplateNotFound))
		assert.Equal(t, "Loading template 'nope' at stdin:1:4: no template 'nope'", err.Error())
	})

	t.Run("recursion", func(t *testing.T) {
		loader := mapLoader{"loop": `<% invoke "loop" () %>`}
		_, err := render(t, `<% invoke "loop" () %>`, eval.Env{Loader: loader, MaxDepth: 5})
		require.Error(t, err)
		assert.True(t, errors.Is(err, eval.ErrInvocationDepthExceeded))

		var evalErr *eval.Error
		require.True(t, errors.As(err, &evalErr))
		assert.Len(t, evalErr.Trace, 5)
	})

	t.Run("trace", func(t *testing.T) {
		loader := mapLoader{"card": `x${missing.name}`}
		_, err := render(t, `<% invoke "card" (missing: {}) %>`, eval.Env{Loader: loader})
		require.Error(t, err)
		assert.True(t, errors.Is(err, eval.ErrUnresolvedMember))
		assert.Equal(t, "Undefined member 'name' of 'missing' (map) at card:1:4\n  in template 'card' invoked at stdin:1:4", err.Error())
	})
}

func TestEvaluateModelErrors(t *testing.T) {
	env := eval.Env{Model: modelOf(t, "a: {b: 1}")}

	_, err := render(t, `$missing.value`, env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrUnresolvedVariable))
	assert.Equal(t, "Undefined model value '$missing' at stdin:1:1", err.Error())

	_, err = render(t, `$a.c`, env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrUnresolvedMember))
	assert.Equal(t, "Undefined member 'c' of '$a' at stdin:1:1", err.Error())
}

func TestEvaluateTypeErrors(t *testing.T) {
	cases := []struct {
		src string
		err string
	}{
		{`<% if "x" { a } %>`, `Expected if condition to be a bool, but was string at stdin:1:7`},
		{`<%= !1 %>`, `Expected operand of '!' to be a bool, but was int at stdin:1:5`},
		{`<%= 1 < "a" %>`, `Operator '<' at stdin:1:5: Cannot compare int with string`},
		{`<%= 1 && true %>`, `Expected left operand of '&&' to be a bool, but was int at stdin:1:5`},
		{`<% foreach x in 1 { a } %>`, `Expected collection of foreach 'x' to be a list, map or string, but was int at stdin:1:17`},
		{`<% foreach $y in 1 as z { a } %>`, `Expected collection of foreach 'y as z' to be a list, map or string, but was int at stdin:1:18`},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			_, err := render(t, tc.src, eval.Env{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, eval.ErrTypeMismatch))
			assert.Equal(t, tc.err, err.Error())
		})
	}
}

func TestEvaluateComparisons(t *testing.T) {
	out, err := render(t, `<%= 1 == 1.0 %> <%= 2 > 1 %> <%= "a" < "b" %> <%= 1 != "1" %> <%= [1, "a"] == [1, "a"] %>`, eval.Env{})
	require.NoError(t, err)
	assert.Equal(t, "true true true true true", out)

	env := eval.Env{Model: modelOf(t, "a: 9007199254740993\nb: 9007199254740992")}
	out, err = render(t, `<%= $a == $b %> <%= $a > $b %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "false true", out)
}

func TestEvaluateFunctions(t *testing.T) {
	env := eval.Env{Funcs: funcs.Builtins()}

	out, err := render(t, `<%= upper("a") %><%= len([1, 2]) %>`, env)
	require.NoError(t, err)
	assert.Equal(t, "A2", out)

	_, err = render(t, `<%= nope() %>`, env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrUnknownFunction))

	_, err = render(t, `<%= uper("a") %>`, env)
	require.EqualError(t, err, "Unknown function 'uper' (hint: did you mean 'upper'?) at stdin:1:5")

	_, err = render(t, `<%= upper(1) %>`, env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrFunction))
	assert.Equal(t, "Calling function 'upper' at stdin:1:5: upper: expected argument 1 to be a string, but was int", err.Error())
}

func TestEvaluatePartialOutputOnError(t *testing.T) {
	out, err := render(t, `before $missing after`, eval.Env{})
	require.Error(t, err)
	assert.Equal(t, "before ", out)
}

func TestEvaluateParamsAsFreeNames(t *testing.T) {
	tree := mustResolve(t, `${title}/$title`, resolver.Options{AllowFreeNames: true})

	params := orderedmap.NewMap()
	params.Set("title", "T")
	out, err := eval.RenderString(context.Background(), tree, eval.Env{Params: params})
	require.NoError(t, err)
	assert.Equal(t, "T/T", out)

	_, err = eval.RenderString(context.Background(), tree, eval.Env{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrUnresolvedVariable))
	assert.Equal(t, "Expected parameter 'title' to be provided at stdin:1:3", err.Error())
}

func TestEvaluateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree := mustResolve(t, `a`, resolver.Options{})
	_, err := eval.RenderString(ctx, tree, eval.Env{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
}

type waitFunc func(ctx context.Context)

func (f waitFunc) Invoke([]interface{}) (interface{}, error) { return nil, nil }

func (f waitFunc) InvokeContext(ctx context.Context, _ []interface{}) (interface{}, error) {
	f(ctx)
	return nil, ctx.Err()
}

func TestEvaluateCanceledInFunction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := eval.Env{Funcs: funcs.Map{"wait": waitFunc(func(ctx context.Context) {
		cancel()
		<-ctx.Done()
	})}}

	tree := mustResolve(t, `a${wait()}b`, resolver.Options{})
	out, err := eval.RenderString(ctx, tree, env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, eval.ErrCanceled))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Contains(t, err.Error(), "Evaluation canceled in function 'wait'")
	assert.Equal(t, "a", out)
}

func TestEvaluateConcurrently(t *testing.T) {
	tree := mustResolve(t, `<% foreach x in $xs { <% def y = x %>${y} } %>`, resolver.Options{})

	var wg sync.WaitGroup
	results := make([]string, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vals := orderedmap.NewMap()
			vals.Set("xs", []interface{}{int64(i), int64(i)})
			results[i], errs[i] = eval.RenderString(context.Background(), tree, eval.Env{Model: model.NewDataFromMap(vals)})
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("%d%d", i, i), results[i])
	}
}
