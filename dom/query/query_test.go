package query

import (
	"errors"
	"strings"
	"testing"

	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/htmlsrc"
	"github.com/npillmayer/arbor/dom/treesink"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var myhtml = `
<html><head>
<style>
  body { border-color: red; }
  p.intro { margin-top: 15px !important; }
  div::before { content: "x"; }
</style>
</head><body>
  <p class="intro">The quick brown fox</p>
  <div id="d" style="padding: 4px; color: blue">
    <p>jumps over</p>
    <p class="intro">the lazy dog</p>
  </div>
</body>
`

func parse(t *testing.T, src string) *dom.Tree {
	t.Helper()
	a := treesink.New(nil)
	require.NoError(t, htmlsrc.Parse(strings.NewReader(src), a))
	return a.Tree()
}

func TestSelect(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.query")
	defer teardown()
	//
	doc := parse(t, myhtml)
	intro, err := Select(doc, doc.Root(), "p.intro")
	require.NoError(t, err)
	require.Len(t, intro, 2)
	s, _ := doc.TextContent(intro[0])
	assert.Equal(t, "The quick brown fox", s)
	div, err := Select(doc, doc.Root(), "#d")
	require.NoError(t, err)
	require.Len(t, div, 1)
	// subtree queries may refer to ancestors of the start node
	inner, err := Select(doc, div[0], "body p")
	require.NoError(t, err)
	assert.Len(t, inner, 2)
	assert.Equal(t, intro[1], inner[1])
	_, err = Select(doc, doc.Root(), "p[")
	assert.True(t, errors.Is(err, ErrInvalidSelector))
	detached := doc.CreateElement(dom.Name("p"), nil)
	_, err = Select(doc, detached, "p")
	assert.True(t, errors.Is(err, dom.ErrUnknownNode))
}

func TestStyleSheets(t *testing.T) {
	doc := parse(t, myhtml)
	sheets, err := StyleSheets(doc)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	rules := sheets[0].Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "p.intro", rules[1].Selector())
	assert.Equal(t, "15px", rules[1].Value("margin-top"))
	assert.True(t, rules[1].IsImportant("margin-top"))
	assert.Equal(t, []string{"border-color"}, rules[0].Properties())
}

func TestInlineStyle(t *testing.T) {
	doc := parse(t, myhtml)
	div, _ := Select(doc, doc.Root(), "div")
	decls, err := InlineStyle(doc, div[0])
	require.NoError(t, err)
	require.Len(t, decls, 2)
	assert.Equal(t, Declaration{Property: "padding", Value: "4px"}, decls[0])
	assert.Equal(t, "blue", decls[1].Value)
	decls, err = InlineStyle(doc, doc.Body())
	assert.NoError(t, err)
	assert.Empty(t, decls)
}

func TestMatchRules(t *testing.T) {
	doc := parse(t, myhtml)
	sheets, err := StyleSheets(doc)
	require.NoError(t, err)
	matches, err := MatchRules(doc, sheets...)
	require.NoError(t, err)
	intro, _ := Select(doc, doc.Root(), "p.intro")
	for _, p := range intro {
		require.Len(t, matches[p], 1)
		assert.Equal(t, "p.intro", matches[p][0].Selector())
	}
	assert.Len(t, matches[doc.Body()], 1)
}

func TestMirror(t *testing.T) {
	doc := parse(t, "<p>a<!--c--></p>")
	m, err := NewMirror(doc)
	require.NoError(t, err)
	body := m.HTMLNode(doc.Body())
	require.NotNil(t, body)
	assert.Equal(t, "body", body.Data)
	p := body.FirstChild
	id, ok := m.NodeID(p)
	assert.True(t, ok)
	name, _ := doc.TagName(id)
	assert.Equal(t, "p", name.Local)
	assert.Equal(t, "a", p.FirstChild.Data)
	assert.Equal(t, "c", p.LastChild.Data)
}
