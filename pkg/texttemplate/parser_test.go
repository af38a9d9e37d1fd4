// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package texttemplate_test

import (
	"regexp"
	"testing"

	"carvel.dev/mtpl/pkg/template"
	"carvel.dev/mtpl/pkg/texttemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var prettyPositions = regexp.MustCompile(` @\S+`)

// prettyNoPos renders the tree without positions
func prettyNoPos(n template.Node) string {
	return prettyPositions.ReplaceAllString(template.Pretty(n), "")
}

func TestParserText(t *testing.T) {
	tpl, err := texttemplate.NewParser().Parse([]byte(`Hi $name, <%-- c --%><%= upper($ns:user.first) %>!`), "stdin")
	require.NoError(t, err)

	expected := `Template
  Text("Hi ")
  Assign($name)
  Text(", ")
  Assign(upper($ns:user.first))
  Text("!")
`
	assert.Equal(t, expected, prettyNoPos(tpl))
}

func TestParserScript(t *testing.T) {
	src := `
def total = 1
[id="loop", separator=", "]
foreach $x in [1, 2, 3] as i {
  <%= i %>
}
if a == 1 || !b && c { A } elseif d { B } else { C };
invoke "card"#xml (title: "t", tags: ["a", $b], meta: {n: 1})
`
	tpl, err := texttemplate.NewParser().ParseScript([]byte(src), "stdin")
	require.NoError(t, err)

	expected := `Template
  Define(total = 1)
  Foreach[id="loop" separator=", "](x as i in [1, 2, 3])
    Template
      Assign(i)
  If(((a == 1) || (!b && c)))
    Template
      Text("A")
  Else
    If(d)
      Template
        Text("B")
    Else
      Template
        Text("C")
  Invoke("card" #xml)
    {
      title: "t"
      tags: [
        "a"
        $b
      ]
      meta: {
        n: 1
      }
    }
`
	assert.Equal(t, expected, prettyNoPos(tpl))

	foreach := tpl.Items[1].(*template.ForeachStatement)
	assert.Equal(t, "x", foreach.Label)
	assert.Equal(t, "i", foreach.Var)
	assert.Equal(t, "loop", template.Attr(foreach, template.AttrID))
}

func TestParserPositions(t *testing.T) {
	tpl, err := texttemplate.NewParser().Parse([]byte("line\n  <%= x == 1 %>"), "tpl.html")
	require.NoError(t, err)
	require.Len(t, tpl.Items, 2)

	assign := tpl.Items[1].(*template.AssignStatement)
	assert.Equal(t, "tpl.html:2:3-2:16", assign.Pos().AsCompactString())

	bin := assign.X.(*template.BinaryExpression)
	assert.Equal(t, "tpl.html:2:7-2:13", bin.Pos().AsCompactString())
}

func TestParserAttributeValues(t *testing.T) {
	tpl, err := texttemplate.NewParser().Parse([]byte(`<a href="/p?q=$x" title="static">$x</a>`), "stdin")
	require.NoError(t, err)

	expected := `Template
  Text("<a href=\"")
  AttributeValue
    Text("/p?q=")
    Assign($x)
  Text("\" title=\"static\">")
  Assign($x)
  Text("</a>")
`
	assert.Equal(t, expected, prettyNoPos(tpl))
}

func TestParserBodiesAreTrimmed(t *testing.T) {
	tpl, err := texttemplate.NewParser().ParseScript([]byte("if true {\n   A B  \n}"), "stdin")
	require.NoError(t, err)

	ifStmt := tpl.Items[0].(*template.IfStatement)
	then := ifStmt.Then.(*template.Template)
	require.Len(t, then.Items, 1)
	assert.Equal(t, "A B", then.Items[0].(*template.LiteralText).Text)
	assert.Nil(t, ifStmt.Else)
}

func TestParserDecodesStrings(t *testing.T) {
	tpl, err := texttemplate.NewParser().ParseScript([]byte(`= "a\tb\101"`), "stdin")
	require.NoError(t, err)

	assign := tpl.Items[0].(*template.AssignStatement)
	assert.Equal(t, "a\tbA", assign.X.(*template.Constant).Value())
}

func TestParserInvalidEscape(t *testing.T) {
	_, err := texttemplate.NewParser().Parse([]byte(`<%= "a\qb" %>`), "stdin")
	require.Error(t, err)

	var syntaxErr *texttemplate.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 5, syntaxErr.Span.Begin.Col())

	var escErr *template.InvalidEscapeSequenceError
	require.ErrorAs(t, err, &escErr)
	assert.Equal(t, `\q`, escErr.Sequence)
}

func TestParserErrors(t *testing.T) {
	cases := []struct {
		src    string
		script bool
		err    string
	}{
		{"<%= 1 ", false, "Expected '%>' but found end of input at stdin:1:7"},
		{"<% if x { a %>", false, "Expected '}' but found end of input at stdin:1:15"},
		{"def = 1", true, "Expected identifier but found '=' at stdin:1:5"},
		{"foreach x [1] {}", true, "Expected 'in' but found '[' at stdin:1:11"},
		{"= (1", true, "Expected ')' but found end of input at stdin:1:5"},
		{"if x { } else 1", true, "Expected '{' but found number '1' at stdin:1:15"},
		{"x", true, "Expected statement but found identifier 'x' at stdin:1:1"},
		{`[id="a", id="b"] = 1`, true, "Duplicate attribute 'id' at stdin:1:10"},
		{`invoke "t" (a: 1, a: 2)`, true, "Invalid invocation parameters: duplicate parameter 'a' at stdin:1:12"},
		{`invoke "t" (a: [[1]])`, true, "Invalid parameter: list parameter item 0: lists of lists are not allowed at stdin:1:16"},
		{"= $1", true, "Expected identifier but found number '1' at stdin:1:4"},
	}

	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			var err error
			if tc.script {
				_, err = texttemplate.NewParser().ParseScript([]byte(tc.src), "stdin")
			} else {
				_, err = texttemplate.NewParser().Parse([]byte(tc.src), "stdin")
			}
			require.Error(t, err)
			assert.Equal(t, tc.err, err.Error())
		})
	}
}
