package geom

// MergeVertices welds vertices that fall into the same grid cell of the
// given spacing and drops faces that collapse to fewer than three distinct
// vertices. Face order is preserved.
func MergeVertices(m *TriMesh, spacing float64) *TriMesh {
	lookup := make(map[[3]int64]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	verts := make([]Vec3, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		k := quantKey(v, spacing)
		if j, ok := lookup[k]; ok {
			remap[i] = j
			continue
		}
		lookup[k] = len(verts)
		remap[i] = len(verts)
		verts = append(verts, v)
	}

	faces := make([][3]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		a, b, c := remap[f[0]], remap[f[1]], remap[f[2]]
		if a == b || b == c || c == a {
			continue
		}
		faces = append(faces, [3]int{a, b, c})
	}
	return &TriMesh{Vertices: verts, Faces: faces}
}

// RemoveUnreferencedVertices drops vertices no face uses and renumbers the
// remaining faces.
func RemoveUnreferencedVertices(m *TriMesh) *TriMesh {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		used[f[0]] = true
		used[f[1]] = true
		used[f[2]] = true
	}

	remap := make([]int, len(m.Vertices))
	verts := make([]Vec3, 0, len(m.Vertices))
	for i, v := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, v)
	}

	faces := make([][3]int, len(m.Faces))
	for i, f := range m.Faces {
		faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	return &TriMesh{Vertices: verts, Faces: faces}
}

// RemoveNonFiniteVertices drops vertices with NaN or infinite coordinates
// along with every face that touches one.
func RemoveNonFiniteVertices(m *TriMesh) *TriMesh {
	bad := make([]bool, len(m.Vertices))
	anyBad := false
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			bad[i] = true
			anyBad = true
		}
	}
	if !anyBad {
		return m
	}

	faces := make([][3]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if bad[f[0]] || bad[f[1]] || bad[f[2]] {
			continue
		}
		faces = append(faces, f)
	}
	return RemoveUnreferencedVertices(&TriMesh{Vertices: m.Vertices, Faces: faces})
}

// RemoveDegenerateFaces drops faces with area below minArea.
func RemoveDegenerateFaces(m *TriMesh, minArea float64) *TriMesh {
	faces := make([][3]int, 0, len(m.Faces))
	for i, f := range m.Faces {
		if m.FaceArea(i) < minArea {
			continue
		}
		faces = append(faces, f)
	}
	return &TriMesh{Vertices: m.Vertices, Faces: faces}
}

// SubmeshFromFaces returns a new mesh containing only the given faces of m,
// with vertices compacted.
func SubmeshFromFaces(m *TriMesh, faceIdx []int) *TriMesh {
	faces := make([][3]int, 0, len(faceIdx))
	for _, fi := range faceIdx {
		faces = append(faces, m.Faces[fi])
	}
	return RemoveUnreferencedVertices(&TriMesh{Vertices: m.Vertices, Faces: faces})
}
