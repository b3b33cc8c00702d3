// Package channel builds the cylindrical solids subtracted from the guide
// body to seat drill sleeves.
package channel

import (
	"math"

	"github.com/chazu/dentin/pkg/geom"
	"github.com/chazu/dentin/pkg/plan"
)

// segments is the ring resolution of a channel cylinder. At 64 segments the
// chord deficit against a true circle is under 0.2% of the cross-section.
const segments = 64

// Build returns the channel solid for one implant site: a capped cylinder
// with the sleeve's channel radius and a length of sleeve height plus the
// configured extension, aligned to the implant axis. The extension is split
// evenly across both ends, so the channel protrudes half the extension past
// the entry point for a clean cut through the guide top.
func Build(site plan.ImplantSite, extension float64) *geom.TriMesh {
	radius := site.Sleeve.ChannelRadius()
	length := site.Sleeve.Height + extension

	m := cylinder(radius, length, segments)
	r := geom.RotationBetween(geom.Vec3{Z: 1}, site.Direction)
	center := site.Position.Add(site.Direction.Scale(length/2 - extension/2))
	return m.Rotate(r).Translate(center)
}

// cylinder returns a capped n-gon cylinder of the given radius and length,
// centered at the origin with its axis along +z, wound outward.
func cylinder(radius, length float64, n int) *geom.TriMesh {
	half := length / 2
	verts := make([]geom.Vec3, 0, 2*n+2)
	for _, z := range []float64{-half, half} {
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			verts = append(verts, geom.Vec3{
				X: radius * math.Cos(a),
				Y: radius * math.Sin(a),
				Z: z,
			})
		}
	}
	bottomCenter := len(verts)
	topCenter := len(verts) + 1
	verts = append(verts, geom.Vec3{Z: -half}, geom.Vec3{Z: half})

	faces := make([][3]int, 0, 4*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		// Side wall.
		faces = append(faces,
			[3]int{i, j, n + j},
			[3]int{i, n + j, n + i},
		)
		// Caps.
		faces = append(faces,
			[3]int{bottomCenter, j, i},
			[3]int{topCenter, n + i, n + j},
		)
	}
	return geom.NewTriMesh(verts, faces)
}
