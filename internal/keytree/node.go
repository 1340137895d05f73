package keytree

// Kind discriminates the node variants that make up a key tree.
type Kind int

const (
	KindKey Kind = iota
	KindNamespace
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindNamespace:
		return "namespace"
	case KindDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// Icon identifies the glyph a host should draw next to a node.
type Icon int

const (
	IconKey Icon = iota
	IconNamespace
	IconDatabase
	IconBusy
)

// Node is the capability set shared by every tree node.
type Node interface {
	Kind() Kind
	DisplayName() string
	Icon() Icon
	ChildCount() int
	// Child returns nil when i is out of range.
	Child(i int) Node
	// Parent is a non-owning back-reference; nil at the root.
	Parent() Node
}

// KeyNode is a leaf holding one full key path.
type KeyNode struct {
	key     string
	name    string
	dbIndex int
	parent  Node
}

func newKeyNode(fullKey, name string, dbIndex int, parent Node) *KeyNode {
	return &KeyNode{key: fullKey, name: name, dbIndex: dbIndex, parent: parent}
}

func (k *KeyNode) Kind() Kind          { return KindKey }
func (k *KeyNode) DisplayName() string { return k.name }
func (k *KeyNode) Icon() Icon          { return IconKey }
func (k *KeyNode) ChildCount() int     { return 0 }
func (k *KeyNode) Child(int) Node      { return nil }
func (k *KeyNode) Parent() Node        { return k.parent }

// FullKey returns the original, unmodified key.
func (k *KeyNode) FullKey() string { return k.key }

// DBIndex returns the index of the database the key was loaded from.
func (k *KeyNode) DBIndex() int { return k.dbIndex }

func (k *KeyNode) release() {
	k.parent = nil
}

// NamespaceNode groups every key sharing one path segment.
type NamespaceNode struct {
	name     string
	parent   Node
	children []Node
	index    map[string]*NamespaceNode
}

func newNamespaceNode(name string, parent Node) *NamespaceNode {
	return &NamespaceNode{name: name, parent: parent}
}

func (n *NamespaceNode) Kind() Kind          { return KindNamespace }
func (n *NamespaceNode) DisplayName() string { return n.name }
func (n *NamespaceNode) Icon() Icon          { return IconNamespace }
func (n *NamespaceNode) ChildCount() int     { return len(n.children) }
func (n *NamespaceNode) Parent() Node        { return n.parent }

func (n *NamespaceNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns a copy of the ordered child list.
func (n *NamespaceNode) Children() []Node {
	return cloneNodes(n.children)
}

func (n *NamespaceNode) append(child Node) {
	n.children = append(n.children, child)
}

func (n *NamespaceNode) release() {
	releaseAll(n.children)
	n.children = nil
	n.index = nil
	n.parent = nil
}

// level is one row of siblings during a render pass: either the top-level
// result slice or a namespace's children. The name index only ever holds
// namespace siblings, so a leaf never shadows a namespace of the same name.
type level struct {
	owner  *NamespaceNode
	nodes  *[]Node
	byName map[string]*NamespaceNode
}

func (l *level) namespace(name string) (*NamespaceNode, bool) {
	if l.owner != nil {
		if l.owner.index == nil {
			return nil, false
		}
		ns, ok := l.owner.index[name]
		return ns, ok
	}
	ns, ok := l.byName[name]
	return ns, ok
}

func (l *level) addNamespace(ns *NamespaceNode) {
	if l.owner != nil {
		if l.owner.index == nil {
			l.owner.index = make(map[string]*NamespaceNode)
		}
		l.owner.index[ns.name] = ns
		l.owner.append(ns)
		return
	}
	if l.byName == nil {
		l.byName = make(map[string]*NamespaceNode)
	}
	l.byName[ns.name] = ns
	*l.nodes = append(*l.nodes, ns)
}

func (l *level) addLeaf(k *KeyNode) {
	if l.owner != nil {
		l.owner.append(k)
		return
	}
	*l.nodes = append(*l.nodes, k)
}

func releaseAll(nodes []Node) {
	for _, child := range nodes {
		switch c := child.(type) {
		case *NamespaceNode:
			c.release()
		case *KeyNode:
			c.release()
		}
	}
}

func cloneNodes(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	dup := make([]Node, len(nodes))
	copy(dup, nodes)
	return dup
}

// Walk visits node and its descendants depth first. Returning false from fn
// skips the node's children.
func Walk(node Node, fn func(n Node, depth int) bool) {
	walk(node, 0, fn)
}

func walk(node Node, depth int, fn func(Node, int) bool) {
	if node == nil {
		return
	}
	if !fn(node, depth) {
		return
	}
	for i := 0; i < node.ChildCount(); i++ {
		walk(node.Child(i), depth+1, fn)
	}
}

// Leaves returns the full keys of every leaf under nodes in tree order.
func Leaves(nodes []Node) []string {
	var keys []string
	for _, n := range nodes {
		Walk(n, func(node Node, _ int) bool {
			if node.Kind() == KindKey {
				keys = append(keys, node.(*KeyNode).FullKey())
			}
			return true
		})
	}
	return keys
}

// Path returns the display names from the tree root down to node, excluding
// any database node.
func Path(node Node) []string {
	var segments []string
	for n := node; n != nil; n = n.Parent() {
		if n.Kind() == KindDatabase {
			break
		}
		segments = append(segments, n.DisplayName())
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return segments
}
