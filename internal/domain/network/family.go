package network

// ─────────────────────────────────────────────────────────────────────────────
// Singleton rewriting
// ─────────────────────────────────────────────────────────────────────────────

// AssignSingletonFamilies maps every node row to its scoring family.  Rows
// whose component is UnclusteredComponent (or any negative value) receive a
// fresh synthetic id S1..Sn numbered in input order; all other rows keep their
// component index.  The input slice is not modified.
func AssignSingletonFamilies(rows []NodeRow) []Membership {
	out := make([]Membership, len(rows))
	next := 1
	for i, r := range rows {
		if r.Component < 0 {
			out[i] = Membership{Node: r.ID, Family: SingletonFamily(next)}
			next++
			continue
		}
		out[i] = Membership{Node: r.ID, Family: ComponentFamily(r.Component)}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Family partition
// ─────────────────────────────────────────────────────────────────────────────

// Family is a molecular family with its members in node-table order.
type Family struct {
	ID      FamilyID
	Members []NodeID
}

// Size is the number of member nodes, classified or not.
func (f *Family) Size() int { return len(f.Members) }

// Families is an ordered partition of nodes into molecular families.
type Families struct {
	order  []*Family
	byID   map[FamilyID]*Family
	byNode map[NodeID]FamilyID
}

// GroupByFamily builds the partition from memberships, keeping families in
// first-seen order.  A node listed twice stays in the family it was first
// assigned to.
func GroupByFamily(memberships []Membership) *Families {
	fs := &Families{
		byID:   make(map[FamilyID]*Family),
		byNode: make(map[NodeID]FamilyID, len(memberships)),
	}
	for _, m := range memberships {
		if _, seen := fs.byNode[m.Node]; seen {
			continue
		}
		f, ok := fs.byID[m.Family]
		if !ok {
			f = &Family{ID: m.Family}
			fs.byID[m.Family] = f
			fs.order = append(fs.order, f)
		}
		f.Members = append(f.Members, m.Node)
		fs.byNode[m.Node] = m.Family
	}
	return fs
}

// All returns the families in first-seen order.
func (fs *Families) All() []*Family { return fs.order }

// Len returns the number of families.
func (fs *Families) Len() int { return len(fs.order) }

// Get returns the family with the given id.
func (fs *Families) Get(id FamilyID) (*Family, bool) {
	f, ok := fs.byID[id]
	return f, ok
}

// FamilyOf returns the family a node belongs to.
func (fs *Families) FamilyOf(node NodeID) (FamilyID, bool) {
	id, ok := fs.byNode[node]
	return id, ok
}
