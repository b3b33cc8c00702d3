package bsp

import (
	"math"

	"github.com/chazu/dentin/pkg/geom"
)

// Tolerances for coplanar grouping and convexity during polygon merging.
const (
	groupQuantum = 1e-6
	convexEps    = 1e-9
)

// mergeCoplanar joins adjacent coplanar triangles into maximal convex
// polygons. Larger input faces keep the partitioning trees shallow and,
// more importantly, make cuts land on shared polygon boundaries instead of
// interior triangulation diagonals, so the clipped halves seam cleanly.
func mergeCoplanar(polys []*polygon) []*polygon {
	groups := make(map[[4]int64][]*polygon)
	for _, p := range polys {
		k := [4]int64{
			int64(math.Round(p.plane.normal.X / groupQuantum)),
			int64(math.Round(p.plane.normal.Y / groupQuantum)),
			int64(math.Round(p.plane.normal.Z / groupQuantum)),
			int64(math.Round(p.plane.w / groupQuantum)),
		}
		groups[k] = append(groups[k], p)
	}

	out := make([]*polygon, 0, len(polys))
	for _, group := range groups {
		out = append(out, mergeGroup(group)...)
	}
	return out
}

// mergeGroup merges polygons that all share one plane.
func mergeGroup(group []*polygon) []*polygon {
	if len(group) < 2 {
		return group
	}
	pl := group[0].plane

	// Index vertices so shared corners compare by id.
	lookup := make(map[[3]int64]int)
	var points []geom.Vec3
	indexOf := func(v geom.Vec3) int {
		k := [3]int64{
			int64(math.Round(v.X / 1e-9)),
			int64(math.Round(v.Y / 1e-9)),
			int64(math.Round(v.Z / 1e-9)),
		}
		if i, ok := lookup[k]; ok {
			return i
		}
		lookup[k] = len(points)
		points = append(points, v)
		return len(points) - 1
	}

	cycles := make([][]int, 0, len(group))
	for _, p := range group {
		cycle := make([]int, len(p.verts))
		for i, v := range p.verts {
			cycle[i] = indexOf(v)
		}
		cycles = append(cycles, cycle)
	}

	for {
		merged := false
	search:
		for i := 0; i < len(cycles); i++ {
			for j := i + 1; j < len(cycles); j++ {
				if c, ok := mergeCycles(cycles[i], cycles[j], points, pl.normal); ok {
					cycles[i] = c
					cycles = append(cycles[:j], cycles[j+1:]...)
					merged = true
					break search
				}
			}
		}
		if !merged {
			break
		}
	}

	out := make([]*polygon, 0, len(cycles))
	for _, c := range cycles {
		verts := make([]geom.Vec3, len(c))
		for i, idx := range c {
			verts[i] = points[idx]
		}
		out = append(out, &polygon{verts: verts, plane: pl})
	}
	return out
}

// mergeCycles joins two polygon cycles across exactly one shared edge,
// provided the result is a simple convex cycle.
func mergeCycles(p, q []int, points []geom.Vec3, normal geom.Vec3) ([]int, bool) {
	// Find shared undirected edges; bail unless there is exactly one.
	type edgePos struct{ pi, qi int }
	var shared []edgePos
	for pi := 0; pi < len(p); pi++ {
		a, b := p[pi], p[(pi+1)%len(p)]
		for qi := 0; qi < len(q); qi++ {
			c, d := q[qi], q[(qi+1)%len(q)]
			if a == d && b == c {
				shared = append(shared, edgePos{pi, qi})
				if len(shared) > 1 {
					return nil, false
				}
			}
		}
	}
	if len(shared) != 1 {
		return nil, false
	}

	pi, qi := shared[0].pi, shared[0].qi
	// p traverses a->b at pi; q traverses b->a at qi. Replace p's edge with
	// q's complementary path from a to b.
	merged := make([]int, 0, len(p)+len(q)-2)
	merged = append(merged, p[:pi+1]...)
	for k := 2; k < len(q); k++ {
		merged = append(merged, q[(qi+k)%len(q)])
	}
	merged = append(merged, p[pi+1:]...)

	seen := make(map[int]bool, len(merged))
	for _, idx := range merged {
		if seen[idx] {
			return nil, false
		}
		seen[idx] = true
	}
	if !cycleConvex(merged, points, normal) {
		return nil, false
	}
	return merged, true
}

// cycleConvex reports whether the cycle turns consistently left around the
// normal, allowing collinear runs.
func cycleConvex(cycle []int, points []geom.Vec3, normal geom.Vec3) bool {
	n := len(cycle)
	for i := 0; i < n; i++ {
		a := points[cycle[i]]
		b := points[cycle[(i+1)%n]]
		c := points[cycle[(i+2)%n]]
		turn := b.Sub(a).Cross(c.Sub(b)).Dot(normal)
		if turn < -convexEps {
			return false
		}
	}
	return true
}
