/*
Package htmlsrc is a producer of tree-construction operations. It runs the
HTML5 parsing algorithm of golang.org/x/net/html and replays the resulting
tree as a sequence of treesink Ops, in document order.

The tokenizer and tree builder are external to arbor; htmlsrc only adapts
their output to the operation protocol understood by package treesink.

___________________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package htmlsrc

import (
	"io"
	"strings"

	"github.com/npillmayer/arbor/dom"
	"github.com/npillmayer/arbor/dom/treesink"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tracer traces with key 'arbor.htmlsrc'.
func tracer() tracing.Trace {
	return tracing.Select("arbor.htmlsrc")
}

// Parse parses an HTML document from r and emits it to e, ending with
// treesink.Finish. If emitting fails, Parse stops and returns the error;
// Finish is not sent in that case.
func Parse(r io.Reader, e treesink.Emitter) error {
	doc, err := html.Parse(r)
	if err != nil {
		return errors.Wrap(err, "parsing HTML")
	}
	return Replay(doc, e)
}

// Replay emits the operations which construct a parsed document, ending
// with treesink.Finish. doc has to be an html.DocumentNode.
func Replay(doc *html.Node, e treesink.Emitter) error {
	if doc == nil || doc.Type != html.DocumentNode {
		return errors.New("replay needs a document node")
	}
	rp := &replayer{e: e, line: 1}
	if err := rp.emit(treesink.SetQuirksMode{Mode: QuirksModeOf(doc)}); err != nil {
		return err
	}
	if err := rp.children(doc, treesink.DocumentHandle); err != nil {
		return err
	}
	tracer().Debugf("replayed %d nodes, %d lines", rp.next, rp.line)
	return rp.emit(treesink.Finish{})
}

type replayer struct {
	e    treesink.Emitter
	next treesink.Handle // last handle handed out
	line uint64
}

func (rp *replayer) emit(op treesink.Op) error {
	return rp.e.Emit(op)
}

func (rp *replayer) handle() treesink.Handle {
	rp.next++
	return rp.next
}

// advance counts the lines consumed by text and reports a line change.
func (rp *replayer) advance(text string) error {
	n := uint64(strings.Count(text, "\n"))
	if n == 0 {
		return nil
	}
	rp.line += n
	return rp.emit(treesink.SetCurrentLine{Line: rp.line})
}

func (rp *replayer) children(n *html.Node, parent treesink.Handle) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := rp.node(c, parent); err != nil {
			return err
		}
	}
	return nil
}

func (rp *replayer) node(n *html.Node, parent treesink.Handle) error {
	switch n.Type {
	case html.DoctypeNode:
		public, system := doctypeIDs(n)
		return rp.emit(treesink.AppendDoctype{Name: n.Data, PublicID: public, SystemID: system})
	case html.ElementNode:
		h := rp.handle()
		name := dom.QualName{Space: n.Namespace, Local: n.Data}
		if err := rp.emit(treesink.CreateElement{Node: h, Name: name, Attrs: n.Attr, Line: rp.line}); err != nil {
			return err
		}
		if err := rp.emit(treesink.Append{Parent: parent, Child: treesink.NodeChild(h)}); err != nil {
			return err
		}
		if n.DataAtom == atom.Script {
			// scripts are never executed, but the builder has seen them
			if err := rp.emit(treesink.MarkScriptStarted{Node: h}); err != nil {
				return err
			}
		}
		if err := rp.children(n, h); err != nil {
			return err
		}
		return rp.emit(treesink.Pop{Node: h})
	case html.TextNode:
		if err := rp.emit(treesink.Append{Parent: parent, Child: treesink.TextChild(n.Data)}); err != nil {
			return err
		}
		return rp.advance(n.Data)
	case html.CommentNode:
		h := rp.handle()
		if err := rp.emit(treesink.CreateComment{Node: h, Text: n.Data}); err != nil {
			return err
		}
		if err := rp.emit(treesink.Append{Parent: parent, Child: treesink.NodeChild(h)}); err != nil {
			return err
		}
		return rp.advance(n.Data)
	}
	return rp.emit(treesink.ParseError{Msg: "unexpected node type in parse tree"})
}

func doctypeIDs(n *html.Node) (public, system string) {
	for _, a := range n.Attr {
		switch a.Key {
		case "public":
			public = a.Val
		case "system":
			system = a.Val
		}
	}
	return
}

// QuirksModeOf determines the quirks mode of a parsed document from its
// doctype. golang.org/x/net/html does not expose its own decision, so we
// apply the main rules of the HTML standard: a missing or non-html doctype
// means quirks, the well-known transitional and frameset public identifiers
// mean limited quirks (or quirks, if the system identifier is missing).
func QuirksModeOf(doc *html.Node) dom.QuirksMode {
	var dt *html.Node
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.DoctypeNode {
			dt = c
			break
		}
	}
	if dt == nil || !strings.EqualFold(dt.Data, "html") {
		return dom.Quirks
	}
	public, system := doctypeIDs(dt)
	public = strings.ToLower(public)
	switch {
	case strings.HasPrefix(public, "-//w3c//dtd xhtml 1.0 frameset//"),
		strings.HasPrefix(public, "-//w3c//dtd xhtml 1.0 transitional//"):
		return dom.LimitedQuirks
	case strings.HasPrefix(public, "-//w3c//dtd html 4.01 frameset//"),
		strings.HasPrefix(public, "-//w3c//dtd html 4.01 transitional//"):
		if system == "" {
			return dom.Quirks
		}
		return dom.LimitedQuirks
	case strings.HasPrefix(public, "-//w3o//dtd w3 html strict 3.0//en//"),
		strings.HasPrefix(public, "-//ietf//dtd html//"),
		strings.HasPrefix(public, "-//w3c//dtd html 3.2"):
		return dom.Quirks
	}
	return dom.NoQuirks
}
