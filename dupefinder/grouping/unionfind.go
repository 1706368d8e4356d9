package grouping

// DisjointSet is a union-find forest over the indices 0..n-1, with union by
// rank and path compression.
type DisjointSet struct {
	parent []int
	rank   []uint8
	size   []int
}

// NewDisjointSet creates n singleton sets, one per index.
func NewDisjointSet(n int) *DisjointSet {
	ds := &DisjointSet{
		parent: make([]int, n),
		rank:   make([]uint8, n),
		size:   make([]int, n),
	}
	for i := range ds.parent {
		ds.parent[i] = i
		ds.size[i] = 1
	}
	return ds
}

// Find returns the representative of x's set.
func (ds *DisjointSet) Find(x int) int {
	root := x
	for ds.parent[root] != root {
		root = ds.parent[root]
	}
	for ds.parent[x] != root {
		next := ds.parent[x]
		ds.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets of a and b and reports whether they were distinct.
func (ds *DisjointSet) Union(a, b int) bool {
	ra, rb := ds.Find(a), ds.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case ds.rank[ra] < ds.rank[rb]:
		ra, rb = rb, ra
	case ds.rank[ra] == ds.rank[rb]:
		ds.rank[ra]++
	}
	ds.parent[rb] = ra
	ds.size[ra] += ds.size[rb]
	return true
}

// Size returns the number of elements in x's set.
func (ds *DisjointSet) Size(x int) int {
	return ds.size[ds.Find(x)]
}

func (ds *DisjointSet) Len() int {
	return len(ds.parent)
}
