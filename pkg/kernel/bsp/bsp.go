// Package bsp implements the default pure-Go Boolean backend. Solids are
// held as BSP trees over convex polygons in the csg.js clipping scheme;
// results come back as welded, T-junction-free triangle meshes, so exact
// inputs keep exact volumes and face counts stay near the input complexity.
package bsp

import (
	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/kernel"
)

const (
	weldSpacing    = 1e-6
	earEps         = 1e-12
	degenerateArea = 1e-14
)

// Kernel is the BSP Boolean backend.
type Kernel struct{}

// New returns a BSP kernel.
func New() *Kernel {
	return &Kernel{}
}

var _ kernel.Kernel = (*Kernel)(nil)

// Difference returns the solid a minus b.
func (k *Kernel) Difference(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	ap, bp := toPolygons(a), toPolygons(b)
	bb := boundsOf(bp, planeEps)
	an := newNode(ap)
	bn := newNode(bp)
	an.invert()
	an.clipTo(bn, &bb)
	// an is inverted here, so no bounds apply to the b-side clips.
	bn.clipTo(an, nil)
	bn.invert()
	bn.clipTo(an, nil)
	bn.invert()
	an.build(bn.allPolygons())
	an.invert()
	return finalize(an.allPolygons()), nil
}

// Union returns the solid a joined with b.
func (k *Kernel) Union(a, b *geom.TriMesh) (*geom.TriMesh, error) {
	ap, bp := toPolygons(a), toPolygons(b)
	ab := boundsOf(ap, planeEps)
	bb := boundsOf(bp, planeEps)
	an := newNode(ap)
	bn := newNode(bp)
	an.clipTo(bn, &bb)
	bn.clipTo(an, &ab)
	bn.invert()
	bn.clipTo(an, &ab)
	bn.invert()
	an.build(bn.allPolygons())
	return finalize(an.allPolygons()), nil
}

// IsValidVolume reports whether m is watertight, consistently wound, and
// encloses positive volume.
func (k *Kernel) IsValidVolume(m *geom.TriMesh) bool {
	return m != nil && geom.IsVolume(m)
}

// toPolygons converts a triangle mesh into merged convex polygons.
// Degenerate triangles are dropped.
func toPolygons(m *geom.TriMesh) []*polygon {
	tris := make([]*polygon, 0, len(m.Faces))
	for i := range m.Faces {
		a, b, c := m.FaceVertices(i)
		pl, ok := newPlane(a, b, c)
		if !ok {
			continue
		}
		tris = append(tris, &polygon{verts: []geom.Vec3{a, b, c}, plane: pl})
	}
	return mergeCoplanar(tris)
}

// finalize converts clipped polygons back into a sealed triangle mesh.
func finalize(polys []*polygon) *geom.TriMesh {
	var verts []geom.Vec3
	var faces [][3]int
	for _, p := range polys {
		for _, tri := range triangulate(p) {
			n := len(verts)
			verts = append(verts, tri[0], tri[1], tri[2])
			faces = append(faces, [3]int{n, n + 1, n + 2})
		}
	}
	m := geom.NewTriMesh(verts, faces)
	m = weld(m)
	m = geom.RemoveDegenerateFaces(m, degenerateArea)
	m = healTJunctions(m)
	return geom.RemoveUnreferencedVertices(m)
}

// weld merges coincident vertices twice, the second pass on a half-cell
// shifted grid, so a pair straddling a cell boundary in the first pass
// still merges.
func weld(m *geom.TriMesh) *geom.TriMesh {
	m = geom.MergeVertices(m, weldSpacing)
	h := weldSpacing / 2
	shift := geom.Vec3{X: h, Y: h, Z: h}
	return geom.MergeVertices(m.Translate(shift), weldSpacing).Translate(shift.Scale(-1))
}

// triangulate cuts a convex polygon into triangles by clipping strictly
// convex ears, so collinear boundary runs never emit zero-area faces.
func triangulate(p *polygon) [][3]geom.Vec3 {
	verts := append([]geom.Vec3(nil), p.verts...)
	var tris [][3]geom.Vec3
	for len(verts) > 3 {
		n := len(verts)
		cut := -1
		for i := 0; i < n; i++ {
			a := verts[(i+n-1)%n]
			b := verts[i]
			c := verts[(i+1)%n]
			if b.Sub(a).Cross(c.Sub(b)).Dot(p.plane.normal) > earEps {
				cut = i
				break
			}
		}
		if cut < 0 {
			// Remaining boundary is degenerate.
			return tris
		}
		n1 := (cut + n - 1) % n
		tris = append(tris, [3]geom.Vec3{verts[n1], verts[cut], verts[(cut+1)%n]})
		verts = append(verts[:cut], verts[cut+1:]...)
	}
	if len(verts) == 3 {
		tris = append(tris, [3]geom.Vec3{verts[0], verts[1], verts[2]})
	}
	return tris
}
