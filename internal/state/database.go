package state

import (
	"sort"

	"github.com/atomicstack/keyspace-browser/internal/keystore"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
)

// NodeFactory builds the node shown for a newly discovered database.
type NodeFactory func(keystore.Database) *keytree.DatabaseNode

// SyncResult summarises a DatabaseStore.Sync call.
type SyncResult struct {
	Added   []*keytree.DatabaseNode
	Removed []*keytree.DatabaseNode
	Renamed []*keytree.DatabaseNode
}

// Changed reports whether the database list differs from before the sync.
func (r SyncResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Renamed) > 0
}

// DatabaseStore owns the database nodes shown at the root level, ordered by
// index.
type DatabaseStore interface {
	Nodes() []*keytree.DatabaseNode
	Node(index int) *keytree.DatabaseNode
	Sync(dbs []keystore.Database, factory NodeFactory) SyncResult
	SetKeyCount(index, count int) bool
}

type databaseStore struct {
	nodes []*keytree.DatabaseNode
	index map[int]*keytree.DatabaseNode
}

func NewDatabaseStore() DatabaseStore {
	return &databaseStore{index: make(map[int]*keytree.DatabaseNode)}
}

func (s *databaseStore) Nodes() []*keytree.DatabaseNode {
	if len(s.nodes) == 0 {
		return nil
	}
	dup := make([]*keytree.DatabaseNode, len(s.nodes))
	copy(dup, s.nodes)
	return dup
}

func (s *databaseStore) Node(index int) *keytree.DatabaseNode {
	return s.index[index]
}

// Sync reconciles the store with the backend's database list. Existing
// nodes are kept, so loaded trees survive a poll.
func (s *databaseStore) Sync(dbs []keystore.Database, factory NodeFactory) SyncResult {
	var res SyncResult
	seen := make(map[int]bool, len(dbs))
	for _, db := range dbs {
		seen[db.Index] = true
		if node, ok := s.index[db.Index]; ok {
			if name := db.String(); node.Name() != name {
				node.SetName(name)
				res.Renamed = append(res.Renamed, node)
			}
			continue
		}
		if factory == nil {
			continue
		}
		node := factory(db)
		if node == nil {
			continue
		}
		s.index[db.Index] = node
		res.Added = append(res.Added, node)
	}
	for index, node := range s.index {
		if !seen[index] {
			delete(s.index, index)
			res.Removed = append(res.Removed, node)
		}
	}
	sort.Slice(res.Removed, func(i, j int) bool { return res.Removed[i].Index() < res.Removed[j].Index() })

	s.nodes = s.nodes[:0]
	for _, node := range s.index {
		s.nodes = append(s.nodes, node)
	}
	sort.Slice(s.nodes, func(i, j int) bool { return s.nodes[i].Index() < s.nodes[j].Index() })
	return res
}

func (s *databaseStore) SetKeyCount(index, count int) bool {
	node, ok := s.index[index]
	if !ok || node.KeyCount() == count {
		return false
	}
	node.SetKeyCount(count)
	return true
}
