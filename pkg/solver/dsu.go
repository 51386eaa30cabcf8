package solver

// UnionFind tracks node connectivity while segments stream in. The
// radiality check leans on one property: an edge whose endpoints
// already share a set closes a loop. Amortized O(1) per operation.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind initializes n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	rank := make([]int, n)
	for i := 0; i < n; i++ {
		parent[i] = i
	}
	return &UnionFind{parent: parent, rank: rank}
}

// Find returns the set representative, compressing the path behind it.
func (uf *UnionFind) Find(i int) int {
	if i < 0 || i >= len(uf.parent) {
		return -1
	}
	if uf.parent[i] != i {
		uf.parent[i] = uf.Find(uf.parent[i])
	}
	return uf.parent[i]
}

// Union merges the sets holding i and j. It reports false when they
// already share one, which is exactly the loop signal.
func (uf *UnionFind) Union(i, j int) bool {
	rootI := uf.Find(i)
	rootJ := uf.Find(j)
	if rootI == -1 || rootJ == -1 || rootI == rootJ {
		return false
	}

	// Union by rank
	if uf.rank[rootI] < uf.rank[rootJ] {
		uf.parent[rootI] = rootJ
	} else if uf.rank[rootI] > uf.rank[rootJ] {
		uf.parent[rootJ] = rootI
	} else {
		uf.parent[rootJ] = rootI
		uf.rank[rootI]++
	}
	return true
}

// Connected checks whether i and j share a set.
func (uf *UnionFind) Connected(i, j int) bool {
	return uf.Find(i) == uf.Find(j)
}
