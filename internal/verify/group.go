package verify

import "github.com/hyperifyio/goresearch-verify/internal/domain"

// similarityThreshold is the cosine-similarity floor for two
// non-identical claims to be grouped together (spec.md 4.4).
const similarityThreshold = 0.72

// unionFind is a disjoint-set structure over claim indices, used to take
// the transitive closure of the pairwise similarity predicate.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[ra] = rb
	}
}

// Group partitions claims into ClaimGroups by transitive closure over the
// similarity predicate of spec.md 4.4: exact normalized-string match, or
// cosine similarity of content-word bags >= similarityThreshold.
func Group(claims []domain.Claim) []domain.ClaimGroup {
	n := len(claims)
	if n == 0 {
		return nil
	}
	normalized := make([]string, n)
	bags := make([]map[string]int, n)
	for i, c := range claims {
		normalized[i] = normalize(c.Text)
		bags[i] = contentWords(normalized[i])
	}

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if normalized[i] == normalized[j] {
				uf.union(i, j)
				continue
			}
			if cosineSimilarity(bags[i], bags[j]) >= similarityThreshold {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]domain.Claim)
	var order []int
	for i, c := range claims {
		root := uf.find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], c)
	}

	groups := make([]domain.ClaimGroup, 0, len(order))
	for _, root := range order {
		groups = append(groups, domain.ClaimGroup{Claims: byRoot[root]})
	}
	return groups
}
