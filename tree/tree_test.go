package tree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	tp "github.com/xlab/treeprint"
)

// buildABCDE builds A(B(C,D), E) below the root of a new tree.
func buildABCDE(t *testing.T) (*Tree[string], map[string]NodeID) {
	tree := New("root")
	ids := make(map[string]NodeID)
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		ids[name] = tree.Create(name)
	}
	must(t, tree.AppendChild(tree.Root(), ids["A"]))
	must(t, tree.AppendChild(ids["A"], ids["B"]))
	must(t, tree.AppendChild(ids["B"], ids["C"]))
	must(t, tree.AppendChild(ids["B"], ids["D"]))
	must(t, tree.AppendChild(ids["A"], ids["E"]))
	return tree, ids
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func names(t *testing.T, tree *Tree[string], it *Iterator[string]) []string {
	t.Helper()
	var seq []string
	for id, ok := it.Next(); ok; id, ok = it.Next() {
		p, err := tree.Payload(id)
		must(t, err)
		seq = append(seq, p)
	}
	must(t, it.Err())
	return seq
}

func TestCreateTree(t *testing.T) {
	tree := New("root")
	if tree.Len() != 1 {
		t.Errorf("expected new tree to contain 1 node, has %d", tree.Len())
	}
	if p, _ := tree.ParentOf(tree.Root()); !p.IsNil() {
		t.Errorf("expected root to have no parent, has %s", p)
	}
}

func TestAppendAndWalk(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.tree")
	defer teardown()
	//
	tree, ids := buildABCDE(t)
	t.Logf("tree =\n%s", printTree(tree))
	seq := names(t, tree, tree.Walk(ids["A"]))
	if fmt.Sprint(seq) != "[A B C D E]" {
		t.Errorf("expected walk from A to yield [A B C D E], got %v", seq)
	}
	must(t, tree.Verify())
}

func TestDetachAndReattach(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.tree")
	defer teardown()
	//
	tree, ids := buildABCDE(t)
	must(t, tree.AppendChild(ids["D"], tree.Create("F")))
	must(t, tree.Detach(ids["D"]))
	if seq := names(t, tree, tree.Walk(ids["A"])); fmt.Sprint(seq) != "[A B C E]" {
		t.Errorf("expected walk after detach to yield [A B C E], got %v", seq)
	}
	if p, _ := tree.ParentOf(ids["D"]); !p.IsNil() {
		t.Errorf("expected detached node to have no parent, has %s", p)
	}
	if n, _ := tree.ChildCount(ids["D"]); n != 1 {
		t.Errorf("expected detached node to keep its child, has %d children", n)
	}
	must(t, tree.AppendChild(ids["E"], ids["D"]))
	if seq := names(t, tree, tree.Walk(ids["A"])); fmt.Sprint(seq) != "[A B C E D F]" {
		t.Errorf("expected walk after re-attach to yield [A B C E D F], got %v", seq)
	}
	must(t, tree.Verify())
}

func TestCycleDetected(t *testing.T) {
	tree, ids := buildABCDE(t)
	version := tree.Version()
	err := tree.AppendChild(ids["C"], ids["A"])
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
	if err = tree.AppendChild(ids["C"], ids["C"]); !errors.Is(err, ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected for self-append, got %v", err)
	}
	if tree.Version() != version {
		t.Error("expected failed operation to leave tree unchanged")
	}
	if seq := names(t, tree, tree.Walk(ids["A"])); fmt.Sprint(seq) != "[A B C D E]" {
		t.Errorf("expected tree to be unchanged, walk yields %v", seq)
	}
}

func TestRootIsNeverAChild(t *testing.T) {
	tree, ids := buildABCDE(t)
	if err := tree.AppendChild(ids["E"], tree.Root()); !errors.Is(err, ErrHierarchy) {
		t.Errorf("expected ErrHierarchy, got %v", err)
	}
	if err := tree.Detach(tree.Root()); !errors.Is(err, ErrHierarchy) {
		t.Errorf("expected ErrHierarchy, got %v", err)
	}
	if err := tree.DestroySubtree(tree.Root()); !errors.Is(err, ErrHierarchy) {
		t.Errorf("expected ErrHierarchy, got %v", err)
	}
}

func TestInsertBeforeAndAfter(t *testing.T) {
	tree, ids := buildABCDE(t)
	x, y := tree.Create("X"), tree.Create("Y")
	must(t, tree.InsertBefore(ids["B"], ids["D"], x))
	must(t, tree.InsertAfter(ids["B"], ids["D"], y))
	must(t, tree.PrependChild(ids["A"], ids["E"]))
	if seq := names(t, tree, tree.Walk(ids["A"])); fmt.Sprint(seq) != "[A E B C X D Y]" {
		t.Errorf("expected [A E B C X D Y], got %v", seq)
	}
	err := tree.InsertBefore(ids["A"], ids["C"], tree.Create("Z"))
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for sibling under different parent, got %v", err)
	}
	// moving a node within its own parent
	must(t, tree.InsertAfter(ids["B"], y, ids["C"]))
	if seq := names(t, tree, tree.Walk(ids["B"])); fmt.Sprint(seq) != "[B X D Y C]" {
		t.Errorf("expected [B X D Y C], got %v", seq)
	}
	must(t, tree.Verify())
}

func TestDestroySubtree(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "arbor.tree")
	defer teardown()
	//
	tree, ids := buildABCDE(t)
	must(t, tree.DestroySubtree(ids["B"]))
	if tree.Len() != 3 {
		t.Errorf("expected 3 live nodes (root, A, E), have %d", tree.Len())
	}
	for _, name := range []string{"B", "C", "D"} {
		if tree.Contains(ids[name]) {
			t.Errorf("expected %s to be destroyed", name)
		}
		if err := tree.AppendChild(ids["E"], ids[name]); !errors.Is(err, ErrUnknownNode) {
			t.Errorf("expected ErrUnknownNode for destroyed node %s, got %v", name, err)
		}
	}
	// slots are re-used, stale ids must not alias new nodes
	fresh := tree.Create("G")
	if fresh == ids["B"] || fresh == ids["C"] || fresh == ids["D"] {
		t.Errorf("expected fresh node id %s to differ from stale ids", fresh)
	}
	if _, err := tree.Payload(ids["D"]); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected stale id to fail lookup, got %v", err)
	}
	must(t, tree.Verify())
}

func TestForeignNodeID(t *testing.T) {
	t1, t2 := New("one"), New("two")
	a := t1.Create("a")
	if err := t2.AppendChild(t2.Root(), a); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for id of other tree, got %v", err)
	}
	if err := t1.AppendChild(t1.Root(), NodeID{}); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode for nil id, got %v", err)
	}
}

func TestWalkFollowing(t *testing.T) {
	tree, ids := buildABCDE(t)
	if seq := names(t, tree, tree.WalkFollowing(ids["C"])); fmt.Sprint(seq) != "[C D E]" {
		t.Errorf("expected following walk from C to yield [C D E], got %v", seq)
	}
	if seq := names(t, tree, tree.Walk(ids["B"])); fmt.Sprint(seq) != "[B C D]" {
		t.Errorf("expected bounded walk from B to yield [B C D], got %v", seq)
	}
}

func TestIteratorStopsOnMutation(t *testing.T) {
	tree, ids := buildABCDE(t)
	it := tree.Walk(ids["A"])
	it.Next()
	must(t, tree.Detach(ids["E"]))
	if _, ok := it.Next(); ok {
		t.Error("expected iterator to stop after mutation")
	}
	if !errors.Is(it.Err(), ErrTreeMutated) {
		t.Errorf("expected ErrTreeMutated, got %v", it.Err())
	}
}

func TestCollectLeafs(t *testing.T) {
	tree, ids := buildABCDE(t)
	leafs, err := tree.Walk(ids["A"]).Collect(NodeIsLeaf[string]())
	must(t, err)
	if len(leafs) != 3 || leafs[0] != ids["C"] || leafs[1] != ids["D"] || leafs[2] != ids["E"] {
		t.Errorf("expected leafs [C D E], got %v", leafs)
	}
	all, err := tree.Walk(tree.Root()).Collect(Whatever[string]())
	must(t, err)
	if len(all) != 6 {
		t.Errorf("expected 6 nodes in whole tree, got %d", len(all))
	}
	if _, err := tree.Walk(ids["A"]).Collect(nil); !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("expected ErrInvalidPredicate, got %v", err)
	}
}

func TestSiblings(t *testing.T) {
	tree, ids := buildABCDE(t)
	if s, _ := tree.NextSibling(ids["C"]); s != ids["D"] {
		t.Errorf("expected next sibling of C to be D, is %s", s)
	}
	if s, _ := tree.PrevSibling(ids["C"]); !s.IsNil() {
		t.Errorf("expected C to have no previous sibling, has %s", s)
	}
	if s, _ := tree.NextSibling(ids["A"]); !s.IsNil() {
		t.Errorf("expected A to have no next sibling, has %s", s)
	}
	if c, _ := tree.LastChild(ids["A"]); c != ids["E"] {
		t.Errorf("expected last child of A to be E, is %s", c)
	}
}

// ---------------------------------------------------------------------------

func printTree(tree *Tree[string]) string {
	p := tp.New()
	ppt(tree, p, tree.Root())
	return p.String()
}

func ppt(tree *Tree[string], p tp.Tree, id NodeID) {
	payload, _ := tree.Payload(id)
	children, _ := tree.ChildrenOf(id)
	if len(children) == 0 {
		p.AddNode(fmt.Sprintf("%s %s", payload, id))
		return
	}
	branch := p.AddBranch(fmt.Sprintf("%s %s", payload, id))
	for _, ch := range children {
		ppt(tree, branch, ch)
	}
}
