package geom

// Reorient makes face windings consistent within each connected component by
// breadth-first traversal over shared edges, then flips the whole mesh if
// its signed volume comes out negative. It returns the corrected mesh and
// whether any face changed.
func Reorient(m *TriMesh) (*TriMesh, bool) {
	if m.IsEmpty() {
		return m, false
	}

	edgeFaces := make(map[edgeKey][]int, 3*len(m.Faces)/2)
	for fi, f := range m.Faces {
		edgeFaces[undirectedEdge(f[0], f[1])] = append(edgeFaces[undirectedEdge(f[0], f[1])], fi)
		edgeFaces[undirectedEdge(f[1], f[2])] = append(edgeFaces[undirectedEdge(f[1], f[2])], fi)
		edgeFaces[undirectedEdge(f[2], f[0])] = append(edgeFaces[undirectedEdge(f[2], f[0])], fi)
	}

	flipped := make([]bool, len(m.Faces))

	// traverses reports the direction face fi crosses edge (a, b) given its
	// current flip state: +1 for a to b, -1 for b to a, 0 if absent.
	traverses := func(fi, a, b int) int {
		f := m.Faces[fi]
		dir := [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
		if flipped[fi] {
			dir = [3][2]int{{f[1], f[0]}, {f[2], f[1]}, {f[0], f[2]}}
		}
		for _, e := range dir {
			if e[0] == a && e[1] == b {
				return 1
			}
			if e[0] == b && e[1] == a {
				return -1
			}
		}
		return 0
	}

	visited := make([]bool, len(m.Faces))
	for seed := range m.Faces {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		queue := []int{seed}
		for len(queue) > 0 {
			fi := queue[0]
			queue = queue[1:]
			f := m.Faces[fi]
			edges := [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
			for _, e := range edges {
				adj := edgeFaces[undirectedEdge(e[0], e[1])]
				if len(adj) != 2 {
					// Boundary or non-manifold edge; no winding constraint.
					continue
				}
				for _, gi := range adj {
					if gi == fi || visited[gi] {
						continue
					}
					df := traverses(fi, e[0], e[1])
					dg := traverses(gi, e[0], e[1])
					if df != 0 && df == dg {
						flipped[gi] = true
					}
					visited[gi] = true
					queue = append(queue, gi)
				}
			}
		}
	}

	changed := false
	faces := make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		if flipped[i] {
			faces[i] = [3]int{f[0], f[2], f[1]}
			changed = true
		} else {
			faces[i] = f
		}
	}
	out := &TriMesh{Vertices: m.Vertices, Faces: faces}

	if SignedVolume(out) < 0 {
		out = out.FlipOrientation()
		changed = true
	}
	return out, changed
}
