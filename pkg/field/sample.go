package field

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/dentin/pkg/geom"
)

const (
	// minFaceArea drops sliver triangles before indexing; they contribute
	// nothing to distance queries and break barycentric projection.
	minFaceArea = 1e-10

	// rectPad keeps R-tree rectangles strictly positive in every axis so
	// axis-aligned triangles still index.
	rectPad = 1e-9

	// nearestProbe is the initial candidate count for nearest-triangle
	// queries; it doubles until the rectangle bound proves the answer.
	nearestProbe = 8

	branchMin = 25
	branchMax = 50
)

// Sign probes use fixed skew directions so rays never run parallel to the
// axis-aligned faces common in synthetic and printed-model scans.
var probeDirections = [...]model3d.Coord3D{
	{X: 0.26726124, Y: 0.53452248, Z: 0.80178373},
	{X: -0.80178373, Y: 0.26726124, Z: 0.53452248},
	{X: 0.53452248, Y: -0.80178373, Z: 0.26726124},
	{X: 0.57735027, Y: 0.57735027, Z: -0.57735027},
	{X: -0.36514837, Y: -0.18257419, Z: 0.91287093},
}

// triEntry is one indexed triangle with its padded bounding rectangle.
type triEntry struct {
	a, b, c geom.Vec3
	rect    *rtreego.Rect
}

func (t *triEntry) Bounds() *rtreego.Rect {
	return t.rect
}

// sampler answers signed-distance queries against one fixed surface. The
// unsigned distance comes from an R-tree nearest-triangle search; the sign
// comes from ray-crossing parity, deliberately independent of the nearest
// triangle so it stays correct near thin and concave features.
type sampler struct {
	tree     *rtreego.Rtree
	collider model3d.Collider
	count    int
	// collisionEps merges ray hits on near-coincident surfaces, so
	// duplicated scan triangles count as one crossing.
	collisionEps float64
}

func newSampler(m *geom.TriMesh) (*sampler, error) {
	entries := make([]rtreego.Spatial, 0, len(m.Faces))
	tris := make([]*model3d.Triangle, 0, len(m.Faces))
	for i := range m.Faces {
		if m.FaceArea(i) < minFaceArea {
			continue
		}
		a, b, c := m.FaceVertices(i)
		lo := a.Min(b).Min(c)
		hi := a.Max(b).Max(c)
		lengths := []float64{
			math.Max(hi.X-lo.X, rectPad),
			math.Max(hi.Y-lo.Y, rectPad),
			math.Max(hi.Z-lo.Z, rectPad),
		}
		rect, err := rtreego.NewRect(rtreego.Point{lo.X, lo.Y, lo.Z}, lengths)
		if err != nil {
			return nil, errors.Wrapf(err, "index face %d", i)
		}
		entries = append(entries, &triEntry{a: a, b: b, c: c, rect: rect})
		tris = append(tris, &model3d.Triangle{mcoord(a), mcoord(b), mcoord(c)})
	}
	if len(entries) == 0 {
		return nil, errors.New("surface has no usable triangles")
	}

	collider := model3d.MeshToCollider(model3d.NewMeshTriangles(tris))
	diag := collider.Max().Sub(collider.Min()).Norm()
	return &sampler{
		tree:         rtreego.NewTree(3, branchMin, branchMax, entries...),
		collider:     collider,
		count:        len(entries),
		collisionEps: diag * 1e-8,
	}, nil
}

// distance returns the unsigned distance from p to the surface.
func (s *sampler) distance(p geom.Vec3) float64 {
	q := rtreego.Point{p.X, p.Y, p.Z}
	for k := nearestProbe; ; k *= 2 {
		cands := s.tree.NearestNeighbors(k, q)
		best := math.Inf(1)
		for _, c := range cands {
			e := c.(*triEntry)
			if d := p.Dist(closestOnTriangle(p, e.a, e.b, e.c)); d < best {
				best = d
			}
		}
		if len(cands) >= s.count {
			return best
		}
		// Candidates arrive ordered by rectangle distance, a lower bound
		// on triangle distance: once the last rectangle is no closer than
		// the best exact hit, no unseen triangle can beat it.
		last := cands[len(cands)-1].(*triEntry)
		if rectDist(p, last.rect) >= best {
			return best
		}
	}
}

// inside reports whether p lies inside the surface by majority vote over
// the fixed probe directions.
func (s *sampler) inside(p geom.Vec3) bool {
	odd := 0
	for _, dir := range probeDirections {
		if s.crossings(p, dir)%2 == 1 {
			odd++
		}
	}
	return 2*odd > len(probeDirections)
}

func (s *sampler) crossings(p geom.Vec3, dir model3d.Coord3D) int {
	var scales []float64
	s.collider.RayCollisions(&model3d.Ray{
		Origin:    mcoord(p),
		Direction: dir,
	}, func(rc model3d.RayCollision) {
		scales = append(scales, rc.Scale)
	})
	if len(scales) == 0 {
		return 0
	}
	sort.Float64s(scales)
	count := 0
	last := math.Inf(-1)
	for _, sc := range scales {
		if sc-last > s.collisionEps {
			count++
		}
		last = sc
	}
	return count
}

// rectDist is the distance from p to an R-tree rectangle, zero inside it.
func rectDist(p geom.Vec3, r *rtreego.Rect) float64 {
	coords := [3]float64{p.X, p.Y, p.Z}
	sum := 0.0
	for i := 0; i < 3; i++ {
		lo := r.PointCoord(i)
		hi := lo + r.LengthsCoord(i)
		if c := coords[i]; c < lo {
			sum += (lo - c) * (lo - c)
		} else if c > hi {
			sum += (c - hi) * (c - hi)
		}
	}
	return math.Sqrt(sum)
}

// closestOnTriangle returns the point of triangle abc nearest to p, by
// barycentric region classification.
func closestOnTriangle(p, a, b, c geom.Vec3) geom.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)
	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Scale(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Scale(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Scale((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1.0 / (va + vb + vc)
	return a.Add(ab.Scale(vb * denom)).Add(ac.Scale(vc * denom))
}

func mcoord(v geom.Vec3) model3d.Coord3D {
	return model3d.Coord3D{X: v.X, Y: v.Y, Z: v.Z}
}
