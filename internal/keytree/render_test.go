package keytree

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shape renders a tree as "kind:name" lines indented by depth so whole trees
// can be compared structurally.
func shape(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		Walk(n, func(node Node, depth int) bool {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(node.Kind().String())
			b.WriteString(":")
			b.WriteString(node.DisplayName())
			if k, ok := node.(*KeyNode); ok {
				b.WriteString(" <")
				b.WriteString(k.FullKey())
				b.WriteString(">")
			}
			b.WriteString("\n")
			return true
		})
	}
	return b.String()
}

func TestRenderGroupsByNamespace(t *testing.T) {
	keys := []string{"user:1:name", "user:1:age", "user:2:name", "counter"}
	nodes := Render(keys, ":", nil, nil)

	want := strings.Join([]string{
		"key:counter <counter>",
		"namespace:user",
		"  namespace:1",
		"    key:age <user:1:age>",
		"    key:name <user:1:name>",
		"  namespace:2",
		"    key:name <user:2:name>",
		"",
	}, "\n")
	assert.Equal(t, want, shape(nodes))
}

func TestRenderEmptySeparatorKeepsKeysFlat(t *testing.T) {
	keys := []string{"user:1:name", "user:1:age", "user:2:name", "counter"}
	nodes := Render(keys, "", nil, nil)

	require.Len(t, nodes, 4)
	for i, want := range []string{"counter", "user:1:age", "user:1:name", "user:2:name"} {
		leaf, ok := nodes[i].(*KeyNode)
		require.True(t, ok, "node %d should be a leaf", i)
		assert.Equal(t, want, leaf.FullKey())
		assert.Equal(t, want, leaf.DisplayName())
		assert.Nil(t, leaf.Parent())
	}
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	keys := []string{"b", "a", "c"}
	Render(keys, ":", nil, nil)
	assert.Equal(t, []string{"b", "a", "c"}, keys)
}

func TestRenderIsDeterministicAndOrderIndependent(t *testing.T) {
	keys := []string{
		"session:abc", "session:def", "cache:page:/", "cache:page:/about",
		"queue", "queue:jobs", "queue:jobs:failed", "a::b", ":", "trailing:",
	}
	want := shape(Render(keys, ":", nil, nil))
	assert.Equal(t, want, shape(Render(keys, ":", nil, nil)))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(keys)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, shape(Render(shuffled, ":", nil, nil)))
	}
}

func TestRenderNamespaceSiblingsAreUnique(t *testing.T) {
	keys := []string{"a:x", "b:y", "a:z", "a:q:r", "b:y:z", "a:q:s"}
	nodes := Render(keys, ":", nil, nil)

	var check func(siblings []Node)
	check = func(siblings []Node) {
		seen := map[string]bool{}
		for _, n := range siblings {
			ns, ok := n.(*NamespaceNode)
			if !ok {
				continue
			}
			assert.False(t, seen[ns.DisplayName()], "duplicate namespace %q", ns.DisplayName())
			seen[ns.DisplayName()] = true
			check(ns.Children())
		}
	}
	check(nodes)
}

func TestRenderLeafAndNamespaceMayShareName(t *testing.T) {
	nodes := Render([]string{"queue", "queue:jobs"}, ":", nil, nil)

	require.Len(t, nodes, 2)
	assert.Equal(t, KindKey, nodes[0].Kind())
	assert.Equal(t, "queue", nodes[0].DisplayName())
	assert.Equal(t, KindNamespace, nodes[1].Kind())
	assert.Equal(t, "queue", nodes[1].DisplayName())
}

func TestRenderLeafFidelity(t *testing.T) {
	keys := []string{"x:1", "x:2", "y", "x:1:deep", "z::w", "z::w"}
	nodes := Render(keys, ":", nil, nil)

	got := Leaves(nodes)
	want := slices.Clone(keys)
	slices.Sort(want)
	slices.Sort(got)
	assert.Equal(t, want, got)
}

func TestRenderTrailingSeparatorProducesEmptyLeaf(t *testing.T) {
	nodes := Render([]string{"a:", ":"}, ":", nil, nil)

	require.Len(t, nodes, 2)
	empty := nodes[0].(*NamespaceNode)
	assert.Equal(t, "", empty.DisplayName())
	require.Equal(t, 1, empty.ChildCount())
	assert.Equal(t, "", empty.Child(0).DisplayName())
	assert.Equal(t, ":", empty.Child(0).(*KeyNode).FullKey())

	a := nodes[1].(*NamespaceNode)
	assert.Equal(t, "a", a.DisplayName())
	require.Equal(t, 1, a.ChildCount())
	assert.Equal(t, "", a.Child(0).DisplayName())
	assert.Equal(t, "a:", a.Child(0).(*KeyNode).FullKey())
}

func TestRenderDuplicateKeysProduceDuplicateLeaves(t *testing.T) {
	nodes := Render([]string{"k:v", "k:v"}, ":", nil, nil)

	require.Len(t, nodes, 1)
	assert.Equal(t, 2, nodes[0].ChildCount())
}

func TestRenderMultiCharacterSeparator(t *testing.T) {
	nodes := Render([]string{"a::b::c", "a::d", "a:e"}, "::", nil, nil)

	assert.Equal(t, strings.Join([]string{
		"namespace:a",
		"  namespace:b",
		"    key:c <a::b::c>",
		"  key:d <a::d>",
		"key:a:e <a:e>",
		"",
	}, "\n"), shape(nodes))
}

func TestRenderAppliesFilter(t *testing.T) {
	keys := []string{"user:1", "user:2", "order:1"}
	nodes := Render(keys, ":", SubstringFilter("user"), nil)

	assert.Equal(t, []string{"user:1", "user:2"}, Leaves(nodes))
}

func TestRenderStampsOwner(t *testing.T) {
	db := NewDatabaseNode(DatabaseConfig{Name: "db3", Index: 3})
	nodes := Render([]string{"a:b", "c"}, ":", nil, db)

	require.Len(t, nodes, 2)
	assert.Same(t, db, nodes[0].Parent())
	assert.Same(t, db, nodes[1].Parent())

	ns := nodes[0].(*NamespaceNode)
	leaf := ns.Child(0).(*KeyNode)
	assert.Same(t, ns, leaf.Parent())
	assert.Equal(t, 3, leaf.DBIndex())
	assert.Equal(t, []string{"a", "b"}, Path(leaf))
}

func TestRenderEmptyInput(t *testing.T) {
	assert.Empty(t, Render(nil, ":", nil, nil))
}

func TestChildOutOfRange(t *testing.T) {
	nodes := Render([]string{"a:b"}, ":", nil, nil)
	ns := nodes[0]
	assert.Nil(t, ns.Child(-1))
	assert.Nil(t, ns.Child(1))
	assert.Nil(t, ns.Child(0).Child(0))
}

func TestReleaseClearsSubtree(t *testing.T) {
	nodes := Render([]string{"a:b:c"}, ":", nil, nil)
	a := nodes[0].(*NamespaceNode)
	b := a.Child(0).(*NamespaceNode)
	c := b.Child(0).(*KeyNode)

	releaseAll(nodes)

	assert.Equal(t, 0, a.ChildCount())
	assert.Equal(t, 0, b.ChildCount())
	assert.Nil(t, b.Parent())
	assert.Nil(t, c.Parent())
}

func BenchmarkRenderWideNamespace(b *testing.B) {
	keys := make([]string, 0, 50000)
	for i := 0; i < cap(keys); i++ {
		keys = append(keys, "ns:"+strings.Repeat("k", i%7)+string(rune('a'+i%26))+":"+string(rune('a'+i%13)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Render(keys, ":", nil, nil)
	}
}
