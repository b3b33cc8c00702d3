package geom

// rotationEps stabilizes the Rodrigues denominator when the rotation axis is
// nearly degenerate.
const rotationEps = 1e-10

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity returns the 3x3 identity matrix.
func Identity() Mat3 {
	return Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Mul returns the matrix product m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var r Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return r
}

// MulVec applies m to v.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns the transpose of m. For a rotation matrix this is the
// inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// skew returns the cross-product matrix of v, so that skew(v).MulVec(w)
// equals v.Cross(w).
func skew(v Vec3) Mat3 {
	return Mat3{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
}

// RotationBetween returns a rotation matrix that maps the unit vector from
// onto the unit vector to, using the Rodrigues formula. Parallel inputs
// return the identity; anti-parallel inputs return a half-turn about an
// arbitrary axis perpendicular to from.
func RotationBetween(from, to Vec3) Mat3 {
	c := from.Dot(to)
	if c >= 1-rotationEps {
		return Identity()
	}
	if c <= -1+rotationEps {
		perp := from.Cross(Vec3{X: 1})
		if perp.Dot(perp) < normEps {
			perp = from.Cross(Vec3{Y: 1})
		}
		p, _ := perp.Normalized()
		// Half-turn about p: R = 2*p*p^T - I.
		return Mat3{
			{2*p.X*p.X - 1, 2 * p.X * p.Y, 2 * p.X * p.Z},
			{2 * p.Y * p.X, 2*p.Y*p.Y - 1, 2 * p.Y * p.Z},
			{2 * p.Z * p.X, 2 * p.Z * p.Y, 2*p.Z*p.Z - 1},
		}
	}

	v := from.Cross(to)
	vx := skew(v)
	vx2 := vx.Mul(vx)
	k := (1 - c) / (v.Dot(v) + rotationEps)

	r := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] += vx[i][j] + k*vx2[i][j]
		}
	}
	return r
}
