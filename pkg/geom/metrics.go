package geom

// edgeKey identifies an undirected edge by its sorted vertex indices.
type edgeKey struct {
	a, b int
}

func undirectedEdge(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// edgeFaceCounts returns, per undirected edge, how many faces reference it.
func edgeFaceCounts(m *TriMesh) map[edgeKey]int {
	counts := make(map[edgeKey]int, 3*len(m.Faces)/2)
	for _, f := range m.Faces {
		counts[undirectedEdge(f[0], f[1])]++
		counts[undirectedEdge(f[1], f[2])]++
		counts[undirectedEdge(f[2], f[0])]++
	}
	return counts
}

// SignedVolume returns the enclosed volume of m via the divergence theorem.
// Positive for outward-wound closed meshes, negative for inward winding.
func SignedVolume(m *TriMesh) float64 {
	var vol float64
	for i := range m.Faces {
		a, b, c := m.FaceVertices(i)
		vol += a.Dot(b.Cross(c))
	}
	return vol / 6
}

// SurfaceArea returns the total triangle area of m.
func SurfaceArea(m *TriMesh) float64 {
	var area float64
	for i := range m.Faces {
		area += m.FaceArea(i)
	}
	return area
}

// EdgeCount returns the number of unique undirected edges.
func EdgeCount(m *TriMesh) int {
	return len(edgeFaceCounts(m))
}

// EulerCharacteristic returns V - E + F. A closed mesh topologically
// equivalent to a sphere has characteristic 2.
func EulerCharacteristic(m *TriMesh) int {
	return len(m.Vertices) - EdgeCount(m) + len(m.Faces)
}

// IsWatertight reports whether every undirected edge is shared by exactly
// two faces. An empty mesh is not watertight.
func IsWatertight(m *TriMesh) bool {
	if m.IsEmpty() {
		return false
	}
	for _, n := range edgeFaceCounts(m) {
		if n != 2 {
			return false
		}
	}
	return true
}

// BoundaryEdgeCount returns the number of undirected edges referenced by
// exactly one face.
func BoundaryEdgeCount(m *TriMesh) int {
	var n int
	for _, c := range edgeFaceCounts(m) {
		if c == 1 {
			n++
		}
	}
	return n
}

// NonManifoldEdgeCount returns the number of undirected edges referenced by
// more than two faces.
func NonManifoldEdgeCount(m *TriMesh) int {
	var n int
	for _, c := range edgeFaceCounts(m) {
		if c > 2 {
			n++
		}
	}
	return n
}

// HasConsistentOrientation reports whether every shared edge is traversed
// once in each direction, so neighboring faces agree on which side is
// outside.
func HasConsistentOrientation(m *TriMesh) bool {
	directed := make(map[[2]int]int, 3*len(m.Faces))
	for _, f := range m.Faces {
		directed[[2]int{f[0], f[1]}]++
		directed[[2]int{f[1], f[2]}]++
		directed[[2]int{f[2], f[0]}]++
	}
	for e, n := range directed {
		if n > 1 {
			return false
		}
		if directed[[2]int{e[1], e[0]}] > 1 {
			return false
		}
	}
	return true
}

// IsVolume reports whether m bounds a valid solid: watertight, consistently
// oriented, and with positive enclosed volume.
func IsVolume(m *TriMesh) bool {
	return IsWatertight(m) && HasConsistentOrientation(m) && SignedVolume(m) > 0
}

// DegenerateFaceCount returns the number of faces with area below minArea.
func DegenerateFaceCount(m *TriMesh, minArea float64) int {
	var n int
	for i := range m.Faces {
		if m.FaceArea(i) < minArea {
			n++
		}
	}
	return n
}

// FaceComponents groups face indices into connected components. Two faces
// are connected when they share a vertex.
func FaceComponents(m *TriMesh) [][]int {
	if len(m.Faces) == 0 {
		return nil
	}
	parent := make([]int, len(m.Vertices))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, f := range m.Faces {
		union(f[0], f[1])
		union(f[1], f[2])
	}

	groups := make(map[int][]int)
	for fi, f := range m.Faces {
		root := find(f[0])
		groups[root] = append(groups[root], fi)
	}
	comps := make([][]int, 0, len(groups))
	for _, g := range groups {
		comps = append(comps, g)
	}
	return comps
}

// ConnectedComponentCount returns the number of face-connected components.
func ConnectedComponentCount(m *TriMesh) int {
	return len(FaceComponents(m))
}
