package dom

import "github.com/pkg/errors"

// FindChildByTag returns the first child of parent which is an element with
// local name local, regardless of its namespace. If there is no such child,
// the nil NodeID is returned. Only direct children are considered.
func (t *Tree) FindChildByTag(parent NodeID, local string) (NodeID, error) {
	return t.findChild(parent, func(name QualName) bool {
		return name.Local == local
	})
}

func (t *Tree) findChild(parent NodeID, match func(QualName) bool) (NodeID, error) {
	children, err := t.store.ChildrenOf(parent)
	if err != nil {
		return NodeID{}, err
	}
	for _, ch := range children {
		if nd, _ := t.data(ch); nd.kind == ElementKind && match(nd.name) {
			return ch, nil
		}
	}
	return NodeID{}, nil
}

// htmlChild finds the first child of parent in the HTML namespace named local.
func (t *Tree) htmlChild(parent NodeID, local string) NodeID {
	id, _ := t.findChild(parent, func(name QualName) bool {
		return name.Space == "" && name.Local == local
	})
	return id
}

// DocumentElement returns the <html> element below the Document node, or
// the nil NodeID.
func (t *Tree) DocumentElement() NodeID {
	return t.htmlChild(t.Root(), "html")
}

// Head returns the <head> element of the document, or the nil NodeID.
func (t *Tree) Head() NodeID {
	return t.sectionOf("head")
}

// Body returns the <body> element of the document, or the nil NodeID.
func (t *Tree) Body() NodeID {
	return t.sectionOf("body")
}

func (t *Tree) sectionOf(local string) NodeID {
	html := t.DocumentElement()
	if html.IsNil() {
		return NodeID{}
	}
	return t.htmlChild(html, local)
}

// TextContent returns the concatenated text of all Text nodes in the subtree
// starting at id, in document order.
func (t *Tree) TextContent(id NodeID) (string, error) {
	it := t.Walk(id)
	var text []byte
	for n, ok := it.Next(); ok; n, ok = it.Next() {
		if nd, _ := t.data(n); nd.kind == TextKind {
			text = append(text, nd.text...)
		}
	}
	if err := it.Err(); err != nil {
		return "", errors.Wrap(err, "collecting text content")
	}
	return string(text), nil
}
