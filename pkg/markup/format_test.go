// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package markup_test

import (
	"testing"

	"carvel.dev/mtpl/pkg/markup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscaping(t *testing.T) {
	cases := []struct {
		format markup.Format
		input  string
		text   string
		attr   string
	}{
		{markup.HTML, `a&b <i> "q" 'x'`, `a&amp;b &lt;i&gt; "q" 'x'`, `a&amp;b &lt;i&gt; &#34;q&#34; &#39;x&#39;`},
		{markup.XML, "a&b \"q\" 'x'\n", "a&amp;b \"q\" 'x'\n", "a&amp;b &quot;q&quot; &apos;x&apos;&#10;"},
		{markup.Text, `a&b "q"`, `a&b "q"`, `a&b "q"`},
	}

	for _, tc := range cases {
		t.Run(tc.format.Name(), func(t *testing.T) {
			assert.Equal(t, tc.text, tc.format.EscapeText(tc.input))
			assert.Equal(t, tc.attr, tc.format.EscapeAttr(tc.input))
		})
	}
}

func TestTextAndAttrEscapingDiffer(t *testing.T) {
	for _, format := range []markup.Format{markup.HTML, markup.XML} {
		assert.NotEqual(t, format.EscapeText(`"`), format.EscapeAttr(`"`), format.Name())
	}
}

func TestLookup(t *testing.T) {
	format, err := markup.Lookup("xml")
	require.NoError(t, err)
	assert.Equal(t, markup.XML, format)

	_, err = markup.Lookup("json")
	require.EqualError(t, err, "Unknown output format 'json' (known formats: html, text, xml)")
}

func TestFromExtension(t *testing.T) {
	assert.Equal(t, markup.HTML, markup.FromExtension("index.html"))
	assert.Equal(t, markup.HTML, markup.FromExtension("index.HTM.tpl"))
	assert.Equal(t, markup.XML, markup.FromExtension("dir.v2/feed.xml"))
	assert.Equal(t, markup.Text, markup.FromExtension("notes"))
	assert.Equal(t, markup.Text, markup.FromExtension("notes.txt"))
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{"html", "htm"}, markup.Extensions(markup.HTMLName))
	assert.Equal(t, []string{"txt"}, markup.Extensions(markup.TextName))
	assert.Len(t, markup.Extensions("json"), 0)

	for _, name := range markup.Names() {
		for _, ext := range markup.Extensions(name) {
			assert.Equal(t, name, markup.FromExtension("a."+ext).Name())
		}
	}
}
