package meshio

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/chazu/dentin/pkg/geom"
)

// A 3MF file is an OPC package: a zip with a content-types part, a root
// relationship pointing at the model part, and the model XML itself.
const (
	threeMFContentTypes = `<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="model" ContentType="application/vnd.ms-package.3dmanufacturing-3dmodel+xml"/></Types>
`
	threeMFRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Target="/3D/3dmodel.model" Id="rel-1" Type="http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"/></Relationships>
`
)

func write3MF(m *geom.TriMesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write 3mf")
	}
	zw := zip.NewWriter(f)

	fail := func(err error) error {
		zw.Close()
		f.Close()
		return errors.Wrap(err, "write 3mf")
	}

	for _, part := range []struct {
		name, body string
	}{
		{"[Content_Types].xml", threeMFContentTypes},
		{"_rels/.rels", threeMFRels},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			return fail(err)
		}
		if _, err := io.WriteString(w, part.body); err != nil {
			return fail(err)
		}
	}

	w, err := zw.Create("3D/3dmodel.model")
	if err != nil {
		return fail(err)
	}
	if err := writeModelXML(w, m); err != nil {
		return fail(err)
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return errors.Wrap(err, "write 3mf")
	}
	return errors.Wrap(f.Close(), "write 3mf")
}

func writeModelXML(w io.Writer, m *geom.TriMesh) error {
	if _, err := fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<model unit="millimeter" xml:lang="en-US" xmlns="http://schemas.microsoft.com/3dmanufacturing/core/2015/02">
 <resources>
  <object id="1" type="model">
   <mesh>
    <vertices>
`); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(w, `     <vertex x="%g" y="%g" z="%g"/>`+"\n", v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(w, "    </vertices>\n    <triangles>\n"); err != nil {
		return err
	}
	for _, face := range m.Faces {
		if _, err := fmt.Fprintf(w, `     <triangle v1="%d" v2="%d" v3="%d"/>`+"\n", face[0], face[1], face[2]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, `    </triangles>
   </mesh>
  </object>
 </resources>
 <build>
  <item objectid="1"/>
 </build>
</model>
`)
	return err
}
