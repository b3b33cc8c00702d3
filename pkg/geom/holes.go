package geom

// BoundaryLoops traces the open boundaries of m and returns each as an
// ordered vertex loop. Boundaries that do not close into a cycle (because
// the mesh is non-manifold along them) are skipped.
func BoundaryLoops(m *TriMesh) [][]int {
	counts := edgeFaceCounts(m)

	// next maps the start of each directed boundary edge to its end.
	next := make(map[int]int)
	for _, f := range m.Faces {
		edges := [3][2]int{{f[0], f[1]}, {f[1], f[2]}, {f[2], f[0]}}
		for _, e := range edges {
			if counts[undirectedEdge(e[0], e[1])] != 1 {
				continue
			}
			if _, dup := next[e[0]]; dup {
				// Two boundary edges leave this vertex; the boundary is
				// not a simple loop here.
				return nil
			}
			next[e[0]] = e[1]
		}
	}

	var loops [][]int
	visited := make(map[int]bool, len(next))
	for start := range next {
		if visited[start] {
			continue
		}
		loop := []int{start}
		visited[start] = true
		cur := next[start]
		closed := false
		for steps := 0; steps <= len(next); steps++ {
			if cur == start {
				closed = true
				break
			}
			if visited[cur] {
				break
			}
			loop = append(loop, cur)
			visited[cur] = true
			n, ok := next[cur]
			if !ok {
				break
			}
			cur = n
		}
		if closed && len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}

// CloseHoles fan-fills every boundary loop of at most maxEdges edges and
// returns the patched mesh with the number of holes closed. Fill triangles
// are wound against the boundary direction so orientation stays consistent
// with the surrounding faces.
func CloseHoles(m *TriMesh, maxEdges int) (*TriMesh, int) {
	loops := BoundaryLoops(m)
	if len(loops) == 0 {
		return m, 0
	}

	faces := make([][3]int, len(m.Faces), len(m.Faces)+len(loops))
	copy(faces, m.Faces)
	closed := 0
	for _, loop := range loops {
		if len(loop) > maxEdges {
			continue
		}
		for i := 1; i < len(loop)-1; i++ {
			faces = append(faces, [3]int{loop[0], loop[i+1], loop[i]})
		}
		closed++
	}
	if closed == 0 {
		return m, 0
	}
	return &TriMesh{Vertices: m.Vertices, Faces: faces}, closed
}
