package bsp

import (
	"math"

	"github.com/chazu/dentin/pkg/geom"
)

// planeEps classifies a point as on-plane when its signed distance is within
// this band.
const planeEps = 1e-5

const (
	typeCoplanar = 0
	typeFront    = 1
	typeBack     = 2
	typeSpanning = 3
)

type plane struct {
	normal geom.Vec3 // unit
	w      float64   // normal . p = w for points p on the plane
}

func newPlane(a, b, c geom.Vec3) (plane, bool) {
	n, err := b.Sub(a).Cross(c.Sub(a)).Normalized()
	if err != nil {
		return plane{}, false
	}
	return plane{normal: n, w: n.Dot(a)}, true
}

func (p plane) flipped() plane {
	return plane{normal: p.normal.Scale(-1), w: -p.w}
}

// polygon is a convex planar face. Vertices are wound counter-clockwise
// around the plane normal.
type polygon struct {
	verts []geom.Vec3
	plane plane
}

func (p *polygon) flip() {
	for i, j := 0, len(p.verts)-1; i < j; i, j = i+1, j-1 {
		p.verts[i], p.verts[j] = p.verts[j], p.verts[i]
	}
	p.plane = p.plane.flipped()
}

// splitPolygon classifies poly against pl and appends it, or its pieces, to
// the matching lists. Spanning polygons are cut along the plane; both pieces
// keep the original polygon's plane.
func splitPolygon(pl plane, poly *polygon, coFront, coBack, front, back *[]*polygon) {
	polyType := 0
	types := make([]int, len(poly.verts))
	for i, v := range poly.verts {
		t := pl.normal.Dot(v) - pl.w
		typ := typeCoplanar
		if t < -planeEps {
			typ = typeBack
		} else if t > planeEps {
			typ = typeFront
		}
		polyType |= typ
		types[i] = typ
	}

	switch polyType {
	case typeCoplanar:
		if pl.normal.Dot(poly.plane.normal) > 0 {
			*coFront = append(*coFront, poly)
		} else {
			*coBack = append(*coBack, poly)
		}
	case typeFront:
		*front = append(*front, poly)
	case typeBack:
		*back = append(*back, poly)
	case typeSpanning:
		var f, b []geom.Vec3
		for i := range poly.verts {
			j := (i + 1) % len(poly.verts)
			ti, tj := types[i], types[j]
			vi, vj := poly.verts[i], poly.verts[j]
			if ti != typeBack {
				f = append(f, vi)
			}
			if ti != typeFront {
				b = append(b, vi)
			}
			if (ti | tj) == typeSpanning {
				t := (pl.w - pl.normal.Dot(vi)) / pl.normal.Dot(vj.Sub(vi))
				v := vi.Add(vj.Sub(vi).Scale(t))
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*front = append(*front, &polygon{verts: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*back = append(*back, &polygon{verts: b, plane: poly.plane})
		}
	}
}

// solidBounds is an axis-aligned box enclosing a clip solid. A polygon
// entirely outside it cannot intersect the solid, so clipping can keep the
// polygon whole instead of fragmenting it against every tree plane.
type solidBounds struct {
	min, max geom.Vec3
}

func boundsOf(polys []*polygon, pad float64) solidBounds {
	b := solidBounds{
		min: geom.Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		max: geom.Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range polys {
		for _, v := range p.verts {
			b.min = b.min.Min(v)
			b.max = b.max.Max(v)
		}
	}
	padv := geom.Vec3{X: pad, Y: pad, Z: pad}
	b.min = b.min.Sub(padv)
	b.max = b.max.Add(padv)
	return b
}

func (b solidBounds) excludes(p *polygon) bool {
	lo, hi := p.verts[0], p.verts[0]
	for _, v := range p.verts[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return hi.X < b.min.X || lo.X > b.max.X ||
		hi.Y < b.min.Y || lo.Y > b.max.Y ||
		hi.Z < b.min.Z || lo.Z > b.max.Z
}

// node is one cell of a BSP tree. A built node holds the polygons coplanar
// with its splitting plane; front and back children partition the rest of
// space.
type node struct {
	plane    *plane
	front    *node
	back     *node
	polygons []*polygon
}

func newNode(polys []*polygon) *node {
	n := &node{}
	if len(polys) > 0 {
		n.build(polys)
	}
	return n
}

// invert converts the tree to represent the complement solid.
func (n *node) invert() {
	for _, p := range n.polygons {
		p.flip()
	}
	if n.plane != nil {
		fp := n.plane.flipped()
		n.plane = &fp
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes from polys everything inside the solid this tree
// represents.
func (n *node) clipPolygons(polys []*polygon) []*polygon {
	if n.plane == nil {
		return append([]*polygon(nil), polys...)
	}
	var front, back []*polygon
	for _, p := range polys {
		splitPolygon(*n.plane, p, &front, &back, &front, &back)
	}
	if n.front != nil {
		front = n.front.clipPolygons(front)
	}
	if n.back != nil {
		back = n.back.clipPolygons(back)
	} else {
		// No back subtree: this halfspace is interior, drop the pieces.
		back = nil
	}
	return append(front, back...)
}

// clipTo removes every part of this tree's polygons that lies inside the
// other tree's solid. A non-nil keep must bound that solid; polygons
// entirely outside keep are retained without clipping. keep must be nil
// when other represents an inverted (unbounded) solid.
func (n *node) clipTo(other *node, keep *solidBounds) {
	if keep == nil {
		n.polygons = other.clipPolygons(n.polygons)
	} else {
		var kept, clip []*polygon
		for _, p := range n.polygons {
			if keep.excludes(p) {
				kept = append(kept, p)
			} else {
				clip = append(clip, p)
			}
		}
		n.polygons = append(kept, other.clipPolygons(clip)...)
	}
	if n.front != nil {
		n.front.clipTo(other, keep)
	}
	if n.back != nil {
		n.back.clipTo(other, keep)
	}
}

func (n *node) allPolygons() []*polygon {
	polys := append([]*polygon(nil), n.polygons...)
	if n.front != nil {
		polys = append(polys, n.front.allPolygons()...)
	}
	if n.back != nil {
		polys = append(polys, n.back.allPolygons()...)
	}
	return polys
}

// build inserts polygons into the tree, splitting them across existing
// planes. The first polygon's plane seeds an empty node.
func (n *node) build(polys []*polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		pl := polys[0].plane
		n.plane = &pl
	}
	var front, back []*polygon
	for _, p := range polys {
		splitPolygon(*n.plane, p, &n.polygons, &n.polygons, &front, &back)
	}
	if len(front) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(front)
	}
	if len(back) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(back)
	}
}
