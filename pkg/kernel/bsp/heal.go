package bsp

import "github.com/chazu/dentin/pkg/geom"

// healEps is the distance within which a vertex counts as lying on an edge.
const healEps = 1e-6

// healTJunctions splits any face edge that passes through a vertex it does
// not reference. Independent clips of neighboring faces can subdivide a
// shared boundary differently; splitting at the stray vertices restores
// exact edge pairing.
func healTJunctions(m *geom.TriMesh) *geom.TriMesh {
	verts := m.Vertices
	out := make([][3]int, 0, len(m.Faces))
	work := append([][3]int(nil), m.Faces...)

	// Each split consumes one T-junction; cap the total so a pathological
	// input cannot loop.
	budget := 4*len(m.Faces) + 1024
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]

		edge, v := findSplitVertex(verts, f)
		if edge < 0 || budget <= 0 {
			out = append(out, f)
			continue
		}
		budget--

		var a, b, c int
		switch edge {
		case 0:
			a, b, c = f[0], f[1], f[2]
		case 1:
			a, b, c = f[1], f[2], f[0]
		default:
			a, b, c = f[2], f[0], f[1]
		}
		work = append(work, [3]int{a, v, c}, [3]int{v, b, c})
	}
	return geom.NewTriMesh(verts, out)
}

// findSplitVertex returns the first edge of f (0, 1 or 2) that has a stray
// vertex on it, along with the on-edge vertex closest to the edge start.
// Returns -1 when no edge needs splitting.
func findSplitVertex(verts []geom.Vec3, f [3]int) (int, int) {
	for e := 0; e < 3; e++ {
		a := verts[f[e]]
		b := verts[f[(e+1)%3]]
		ab := b.Sub(a)
		lenSq := ab.Dot(ab)
		if lenSq < healEps*healEps {
			continue
		}

		lo := a.Min(b).Sub(geom.Vec3{X: healEps, Y: healEps, Z: healEps})
		hi := a.Max(b).Add(geom.Vec3{X: healEps, Y: healEps, Z: healEps})

		best := -1
		bestT := 2.0
		for vi, v := range verts {
			if vi == f[0] || vi == f[1] || vi == f[2] {
				continue
			}
			if v.X < lo.X || v.Y < lo.Y || v.Z < lo.Z ||
				v.X > hi.X || v.Y > hi.Y || v.Z > hi.Z {
				continue
			}
			t := v.Sub(a).Dot(ab) / lenSq
			if t <= 0 || t >= 1 {
				continue
			}
			if v.Dist(a) <= healEps || v.Dist(b) <= healEps {
				continue
			}
			if v.Dist(a.Add(ab.Scale(t))) > healEps {
				continue
			}
			if t < bestT {
				bestT = t
				best = vi
			}
		}
		if best >= 0 {
			return e, best
		}
	}
	return -1, -1
}
