/*
Package domdbg implements helpers to debug a DOM tree.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>


*/
package domdbg

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"text/template"

	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/w3cdom"
	tp "github.com/xlab/treeprint"
)

// Parameters for GraphViz drawing.
type graphParamsType struct {
	Fontname   string
	Attributes bool
	NodeTmpl   *template.Template
	EdgeTmpl   *template.Template
	AttrsTmpl  *template.Template
	AttrEdge   *template.Template
}

// ToGraphViz outputs a diagram for a DOM tree. The diagram is in
// GraphViz (DOT) format. Clients have to provide the root node of
// the (sub-)tree to draw and a Writer. If withAttributes is set, elements
// are accompanied by a table of their attributes.
func ToGraphViz(doc *dom.W3CNode, w io.Writer, withAttributes bool) error {
	tmpl, err := template.New("dom").Parse(graphHeadTmpl)
	if err != nil {
		return err
	}
	gparams := graphParamsType{Fontname: "Helvetica", Attributes: withAttributes}
	gparams.NodeTmpl = template.Must(template.New("domnode").Funcs(
		template.FuncMap{
			"shortstring": shortText,
		}).Parse(domNodeTmpl))
	gparams.EdgeTmpl = template.Must(template.New("domedge").Parse(domEdgeTmpl))
	gparams.AttrsTmpl = template.Must(template.New("attrs").Parse(attrsTmpl))
	gparams.AttrEdge = template.Must(template.New("attredge").Parse(attrEdgeTmpl))
	if err = tmpl.Execute(w, gparams); err != nil {
		return err
	}
	dict := make(map[dom.NodeID]string, 4096)
	if err = nodes(doc, w, dict, &gparams); err != nil {
		return err
	}
	_, err = w.Write([]byte("}\n"))
	return err
}

// Dotty is a helper for testing. Given a DOM node and a testing.T, it will
// create a Graphiviz image of the DOM tree under `doc` and write it to
// a file in the current folder, choosing a unique file name.
// The image is in SVG format.
//
// If an error occurs, t.Error(…) will be set, causing the test to fail.
//
func Dotty(doc *dom.W3CNode, t *testing.T) {
	tmpfile, err := os.CreateTemp(".", "dom.*.dot")
	if err != nil {
		t.Error(err)
		return
	}
	defer func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name()) // clean up
	}()
	t.Logf("writing DOM digraph to %s\n", tmpfile.Name())
	if err := ToGraphViz(doc, tmpfile, true); err != nil {
		t.Error(err)
		return
	}
	outOption := fmt.Sprintf("-o%s.svg", tmpfile.Name())
	cmd := exec.Command("dot", "-Tsvg", outOption, tmpfile.Name())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	t.Logf("writing DOM tree image to %s.svg\n", tmpfile.Name())
	if err := cmd.Run(); err != nil {
		t.Error(err.Error())
	}
}

type node struct {
	N    *dom.W3CNode
	Name string
}

func nodes(n *dom.W3CNode, w io.Writer, dict map[dom.NodeID]string, gparams *graphParamsType) error {
	if err := domNode(n, w, dict, gparams); err != nil {
		return err
	}
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		c := ch.(*dom.W3CNode)
		if err := nodes(c, w, dict, gparams); err != nil {
			return err
		}
		if err := domEdge(n, c, w, dict, gparams); err != nil {
			return err
		}
	}
	return nil
}

func domNode(n *dom.W3CNode, w io.Writer, dict map[dom.NodeID]string, gparams *graphParamsType) error {
	name := dict[n.ID()]
	if name == "" {
		l := len(dict) + 1
		name = fmt.Sprintf("node%05d", l)
		dict[n.ID()] = name
	}
	if err := gparams.NodeTmpl.Execute(w, &node{n, name}); err != nil {
		return err
	}
	if gparams.Attributes && n.HasAttributes() {
		return domAttrs(n, name, w, gparams)
	}
	return nil
}

type attrtable struct {
	Name  string
	Attrs []w3cdom.Attr
}

func domAttrs(n *dom.W3CNode, name string, w io.Writer, gparams *graphParamsType) error {
	m := n.Attributes()
	table := attrtable{Name: name}
	for i := 0; i < m.Length(); i++ {
		table.Attrs = append(table.Attrs, m.Item(i))
	}
	if err := gparams.AttrsTmpl.Execute(w, table); err != nil {
		return err
	}
	return gparams.AttrEdge.Execute(w, table)
}

type edge struct {
	N1, N2 node
}

func domEdge(n1 *dom.W3CNode, n2 *dom.W3CNode, w io.Writer, dict map[dom.NodeID]string,
	gparams *graphParamsType) error {
	//
	name1 := dict[n1.ID()]
	name2 := dict[n2.ID()]
	e := edge{node{n1, name1}, node{n2, name2}}
	return gparams.EdgeTmpl.Execute(w, e)
}

// dotEscaper escapes text for a quoted DOT string. Line breaks are shown
// as escapes, not rendered.
var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\\n`, "\t", `\\t`, " ", "␣")

// shortText returns the first 10 runes of a node's text as a quoted DOT
// label.
func shortText(n *dom.W3CNode) string {
	data := []rune(n.NodeValue())
	s := string(data)
	if len(data) > 10 {
		s = string(data[:10]) + "..."
	}
	return `"` + dotEscaper.Replace(`"`+s+`"`) + `"`
}

// --- Text dumps ---------------------------------------------------------

// Print returns an indented text representation of the subtree of t
// starting at from, one node per line.
func Print(t *dom.Tree, from dom.NodeID) string {
	n := t.NodeFor(from)
	if n == nil {
		return "<nil>\n"
	}
	p := tp.New()
	ppt(n, p)
	return p.String()
}

func ppt(n *dom.W3CNode, p tp.Tree) {
	label := n.String()
	if !n.HasChildNodes() {
		p.AddNode(label)
		return
	}
	branch := p.AddBranch(label)
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		ppt(ch.(*dom.W3CNode), branch)
	}
}

// --- Templates --------------------------------------------------------

const graphHeadTmpl = `digraph g {
  graph [labelloc="t" label="" splines=true overlap=false rankdir = "LR"];
  graph [fontname = "{{ .Fontname }}" fontsize=14] ;
   node [fontname = "{{ .Fontname }}" fontsize=14] ;
   edge [fontname = "{{ .Fontname }}" fontsize=14] ;
`

const domNodeTmpl = `{{ if eq .N.NodeName "#text" }}
{{ .Name }}	[ label={{ shortstring .N }} shape=box style=filled fillcolor=grey95 fontname="Courier" fontsize=11.0 ] ;
{{ else if eq .N.NodeName "#comment" }}
{{ .Name }}	[ label={{ shortstring .N }} shape=note style=filled fillcolor=lightyellow fontname="Courier" fontsize=11.0 ] ;
{{ else }}
{{ .Name }}	[ label={{ printf "%q" .N.NodeName }} shape=ellipse style=filled fillcolor=lightblue3 ] ;
{{ end }}
`

const attrsTmpl = `{{ .Name }}_attrs [ style="filled" penwidth=1 fillcolor="ivory3" shape="Mrecord" fontsize=12
    label=<<table border="0" cellborder="0" cellpadding="2" cellspacing="0" bgcolor="ivory3">
      <tr><td bgcolor="azure4" align="center" colspan="2"><font color="white">attributes</font></td></tr>
      {{ range .Attrs }}
      <tr><td align="right">{{ .Key | html }}:</td><td>{{ .Value | html }}</td></tr>
      {{ end }}
    </table>> ] ;
`

const domEdgeTmpl = `{{ .N1.Name }} -> {{ .N2.Name }} [weight=1] ;
`

const attrEdgeTmpl = `{{ .Name }} -> {{ .Name }}_attrs [dir=none weight=1 style="dashed"] ;
`
