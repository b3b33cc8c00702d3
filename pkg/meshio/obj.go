package meshio

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
)

// readOBJ parses the v/f subset of Wavefront OBJ. Faces with more than
// three vertices are fan-triangulated; texture and normal references are
// dropped.
func readOBJ(path string) (*geom.TriMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		verts []geom.Vec3
		faces [][3]int
	)
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: vertex needs three coordinates", lineNo)
			}
			x, err1 := strconv.ParseFloat(fields[1], 64)
			y, err2 := strconv.ParseFloat(fields[2], 64)
			z, err3 := strconv.ParseFloat(fields[3], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, errors.Errorf("line %d: bad vertex coordinate", lineNo)
			}
			verts = append(verts, geom.Vec3{X: x, Y: y, Z: z})
		case "f":
			if len(fields) < 4 {
				return nil, errors.Errorf("line %d: face needs at least three vertices", lineNo)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := objIndex(tok, len(verts))
				if err != nil {
					return nil, errors.Wrapf(err, "line %d", lineNo)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				faces = append(faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return geom.NewTriMesh(verts, faces), nil
}

// objIndex resolves one face token to a zero-based vertex index. OBJ counts
// from one and allows negative indices relative to the vertices seen so far.
func objIndex(tok string, nverts int) (int, error) {
	if j := strings.IndexByte(tok, '/'); j >= 0 {
		tok = tok[:j]
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Errorf("bad face index %q", tok)
	}
	switch {
	case v > 0:
		v--
	case v < 0:
		v += nverts
	default:
		return 0, errors.New("face index 0 is not allowed")
	}
	if v < 0 || v >= nverts {
		return 0, errors.Errorf("face index %q out of range", tok)
	}
	return v, nil
}
