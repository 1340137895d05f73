package keytree

import (
	"slices"
	"strings"
)

// Render groups a flat key collection into a namespace tree and returns the
// top-level nodes. rawKeys is copied and sorted first so the result does not
// depend on fetch order. A nil filter includes every key. owner becomes the
// parent of top-level nodes and stamps every leaf with its database index.
func Render(rawKeys []string, separator string, filter Filter, owner *DatabaseNode) []Node {
	keys := slices.Clone(rawKeys)
	slices.Sort(keys)

	var root Node
	dbIndex := 0
	if owner != nil {
		root = owner
		dbIndex = owner.Index()
	}

	result := make([]Node, 0)
	top := &level{nodes: &result}
	for _, key := range keys {
		if filter != nil && !filter.Match(key) {
			continue
		}
		renderKey(top, root, key, key, separator, dbIndex)
	}
	return result
}

// renderKey places fullKey under lvl, consuming one separator-delimited
// segment of rest per namespace level.
func renderKey(lvl *level, parent Node, rest, fullKey, separator string, dbIndex int) {
	for {
		if separator == "" {
			lvl.addLeaf(newKeyNode(fullKey, rest, dbIndex, parent))
			return
		}
		idx := strings.Index(rest, separator)
		if idx < 0 {
			lvl.addLeaf(newKeyNode(fullKey, rest, dbIndex, parent))
			return
		}
		name := rest[:idx]
		ns, ok := lvl.namespace(name)
		if !ok {
			ns = newNamespaceNode(name, parent)
			lvl.addNamespace(ns)
		}
		lvl = &level{owner: ns}
		parent = ns
		rest = rest[idx+len(separator):]
	}
}
