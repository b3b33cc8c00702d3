package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/dentin/pkg/geom"
)

// stlHeaderLen is the 80-byte comment plus the uint32 triangle count.
const stlHeaderLen = 84

// readSTL handles both encodings. A file is binary when its length matches
// the triangle count in the header, ascii otherwise.
func readSTL(path string) (*geom.TriMesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) >= stlHeaderLen {
		n := binary.LittleEndian.Uint32(data[80:stlHeaderLen])
		if uint64(len(data)) == stlHeaderLen+50*uint64(n) {
			return decodeBinarySTL(data[stlHeaderLen:], int(n)), nil
		}
	}
	return decodeASCIISTL(data)
}

func decodeBinarySTL(body []byte, n int) *geom.TriMesh {
	verts := make([]geom.Vec3, 0, 3*n)
	faces := make([][3]int, 0, n)
	for i := 0; i < n; i++ {
		rec := body[50*i : 50*(i+1)]
		// Skip the 12-byte normal; winding defines orientation.
		for c := 0; c < 3; c++ {
			off := 12 + 12*c
			verts = append(verts, geom.Vec3{
				X: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off:]))),
				Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+4:]))),
				Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[off+8:]))),
			})
		}
		faces = append(faces, [3]int{3 * i, 3*i + 1, 3*i + 2})
	}
	return geom.NewTriMesh(verts, faces)
}

func decodeASCIISTL(data []byte) (*geom.TriMesh, error) {
	var verts []geom.Vec3
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := bytes.Fields(sc.Bytes())
		if len(fields) != 4 || string(fields[0]) != "vertex" {
			continue
		}
		x, err1 := strconv.ParseFloat(string(fields[1]), 64)
		y, err2 := strconv.ParseFloat(string(fields[2]), 64)
		z, err3 := strconv.ParseFloat(string(fields[3]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, errors.Errorf("malformed STL vertex line %q", sc.Text())
		}
		verts = append(verts, geom.Vec3{X: x, Y: y, Z: z})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(verts) == 0 {
		return nil, errors.New("not a recognizable STL file")
	}
	if len(verts)%3 != 0 {
		return nil, errors.Errorf("ascii STL has %d vertices, not a multiple of three", len(verts))
	}
	faces := make([][3]int, 0, len(verts)/3)
	for i := 0; i < len(verts); i += 3 {
		faces = append(faces, [3]int{i, i + 1, i + 2})
	}
	return geom.NewTriMesh(verts, faces), nil
}

func writeSTL(m *geom.TriMesh, path string) error {
	tris := make([]*model3d.Triangle, 0, m.FaceCount())
	for i := range m.Faces {
		a, b, c := m.FaceVertices(i)
		tris = append(tris, &model3d.Triangle{
			{X: a.X, Y: a.Y, Z: a.Z},
			{X: b.X, Y: b.Y, Z: b.Z},
			{X: c.X, Y: c.Y, Z: c.Z},
		})
	}
	if err := model3d.NewMeshTriangles(tris).SaveGroupedSTL(path); err != nil {
		return errors.Wrap(err, "write stl")
	}
	return nil
}
