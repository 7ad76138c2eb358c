package xport

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/xforge-tools/xport/block"
	xerrs "github.com/xforge-tools/xport/errors"
)

// ExportOptions control document serialization.
type ExportOptions struct {
	// Siege selects the alternate skeletal representation: the normal bone
	// hierarchy group is replaced by a single dummy root, and the actual
	// skeleton and per-vertex weights are emitted as a streamed block group
	// after the materials, with bone orientations as quaternions.
	Siege bool

	// Progress, if set, is invoked per processed element.
	Progress Progress
}

// fullWeight is the implicit influence of an unweighted vertex.
var fullWeight = []BoneWeight{{Bone: 0, Value: 1}}

func vec3Payload(v mgl32.Vec3) block.Vec3 { return block.Vec3{v.X(), v.Y(), v.Z()} }
func vec4Payload(v mgl32.Vec4) block.Vec4 { return block.Vec4{v.X(), v.Y(), v.Z(), v.W()} }
func vec2Payload(v mgl32.Vec2) block.Vec2 { return block.Vec2{v.X(), v.Y()} }

// appendAxisRows emits the three axis row blocks of a rotation.
func appendAxisRows(doc *block.Document, m mgl32.Mat3) {
	doc.Append(
		block.Must(block.SpecAxisX, vec3Payload(m.Row(0))),
		block.Must(block.SpecAxisY, vec3Payload(m.Row(1))),
		block.Must(block.SpecAxisZ, vec3Payload(m.Row(2))),
	)
}

// appendBoneGroup emits the transform group of one bone: index reference,
// offset, scale and axis rows.
func appendBoneGroup(doc *block.Document, index int, b Bone) {
	doc.Append(
		block.Must(block.SpecBoneIndex, block.Int(index)),
		block.Must(block.SpecOffset, vec3Payload(b.Offset)),
		block.Must(block.SpecScale, vec3Payload(b.Scale)),
	)
	appendAxisRows(doc, b.Rotate)
}

// dedupMaterials assigns a stable dense index to every material name used
// by the meshes, in first-seen order.
func dedupMaterials(meshes []Mesh) (names []string, index map[string]int) {
	index = make(map[string]int)
	for _, mesh := range meshes {
		if _, ok := index[mesh.Material]; ok {
			continue
		}
		index[mesh.Material] = len(names)
		names = append(names, mesh.Material)
	}
	return names, index
}

// triangulate splits a polygon into triangles with the format's winding:
// the 2nd and 3rd slots are swapped relative to input order, and a quad
// shares the diagonal from its first corner.
func triangulate(p Polygon) [][3]Corner {
	switch len(p.Corners) {
	case 3:
		return [][3]Corner{{p.Corners[0], p.Corners[2], p.Corners[1]}}
	case 4:
		return [][3]Corner{
			{p.Corners[0], p.Corners[2], p.Corners[1]},
			{p.Corners[0], p.Corners[3], p.Corners[2]},
		}
	}
	return nil
}

// validatePolygons rejects every polygon triangulate cannot split, so no
// face drops out of the count silently.
func validatePolygons(meshes []Mesh) error {
	var errs xerrs.Errors
	for _, mesh := range meshes {
		for i, p := range mesh.Polys {
			if n := len(p.Corners); n != 3 && n != 4 {
				errs = errs.Append(errors.Errorf("mesh %q polygon %d has %d corners", mesh.Name, i, n))
			}
		}
	}
	return errs.Return()
}

// countTriangles returns the number of triangles the meshes will emit.
func countTriangles(meshes []Mesh) int {
	n := 0
	for _, mesh := range meshes {
		for _, p := range mesh.Polys {
			n += len(triangulate(p))
		}
	}
	return n
}

// BuildDocumentFromModel composes the block document of a model. The bone
// array must already be in final order (see BuildSkeleton); serialization
// does not reorder it.
func BuildDocumentFromModel(m *Model, opts ExportOptions) (*block.Document, error) {
	var boneErr error
	if len(m.Bones) == 0 {
		boneErr = errors.New("model has no bones")
	}
	if err := xerrs.Union(boneErr, validatePolygons(m.Meshes)); err != nil {
		return nil, err
	}
	doc := &block.Document{}
	if m.Comment != "" {
		doc.Append(block.Must(block.SpecComment, block.String(m.Comment)))
	}
	doc.Append(
		block.Must(block.SpecModel, nil),
		block.Must(block.SpecVersion, block.Int(ModelVersion)),
	)

	if opts.Siege {
		appendDummySkeleton(doc)
	} else {
		appendSkeleton(doc, m.Bones, opts.Progress)
	}

	// Vertices. Index blocks promote to the 32-bit kind per running global
	// index, independent of any mesh-local numbering.
	doc.Append(block.VertCount(len(m.Verts)))
	for i, v := range m.Verts {
		doc.Append(
			block.VertIndex(i),
			block.Must(block.SpecOffset, vec3Payload(v.Position)),
		)
		weights := v.Weights
		if len(weights) == 0 || opts.Siege {
			weights = fullWeight
		}
		doc.Append(block.Must(block.SpecWeightCount, block.Int(len(weights))))
		for _, w := range weights {
			doc.Append(block.Must(block.SpecBoneWeight, block.Weight{Bone: w.Bone, Value: w.Value}))
		}
		opts.Progress.step("verts", i+1, len(m.Verts))
	}

	// Faces.
	matNames, matIndex := dedupMaterials(m.Meshes)
	doc.Append(block.Must(block.SpecFaceCount, block.Int(countTriangles(m.Meshes))))
	done := 0
	total := countTriangles(m.Meshes)
	for s, mesh := range m.Meshes {
		mi := matIndex[mesh.Material]
		for _, p := range mesh.Polys {
			for _, tri := range triangulate(p) {
				doc.Append(block.Triangle(s, mi))
				for _, c := range tri {
					if c.Vert < 0 || c.Vert >= len(m.Verts) {
						return nil, errors.Errorf("mesh %q references vertex %d of %d",
							mesh.Name, c.Vert, len(m.Verts))
					}
					doc.Append(
						block.VertIndex(c.Vert),
						block.Must(block.SpecNormal, vec3Payload(c.Normal)),
						block.Must(block.SpecColor, vec4Payload(c.Color)),
						block.Must(block.SpecUV, block.UVSet{{c.UV.X(), c.UV.Y()}}),
					)
				}
				done++
				opts.Progress.step("faces", done, total)
			}
		}
	}

	// Objects.
	doc.Append(block.Must(block.SpecObjectCount, block.Int(len(m.Meshes))))
	for i, mesh := range m.Meshes {
		doc.Append(block.Must(block.SpecObject, block.IndexName{Index: i, Name: mesh.Name}))
	}

	// Materials, deduplicated in first-seen order.
	doc.Append(block.Must(block.SpecMaterialCount, block.Int(len(matNames))))
	for i, name := range matNames {
		appendMaterial(doc, i, m.MaterialByName(name))
	}

	if opts.Siege {
		appendStreamedSkeleton(doc, m)
	}
	return doc, nil
}

// appendSkeleton emits the normal bone hierarchy group: declarations first,
// then one transform group per bone.
func appendSkeleton(doc *block.Document, bones []Bone, progress Progress) {
	doc.Append(block.Must(block.SpecBoneCount, block.Int(len(bones))))
	if n := CosmeticCount(bones); n > 0 {
		doc.Append(block.Must(block.SpecCosmeticCount, block.Int(n)))
	}
	for i, b := range bones {
		doc.Append(block.Must(block.SpecBoneInfo, block.BoneInfo{
			Index:  i,
			Parent: b.Parent,
			Name:   b.Name,
		}))
	}
	for i, b := range bones {
		appendBoneGroup(doc, i, b)
		progress.step("bones", i+1, len(bones))
	}
}

// appendDummySkeleton emits the single-root group used in siege mode.
func appendDummySkeleton(doc *block.Document) {
	root := defaultRoot()
	doc.Append(
		block.Must(block.SpecBoneCount, block.Int(1)),
		block.Must(block.SpecBoneInfo, block.BoneInfo{Index: 0, Parent: -1, Name: root.Name}),
	)
	appendBoneGroup(doc, 0, root)
}

// appendStreamedSkeleton emits the siege-mode streamed group: the actual
// bones with quaternion orientations, then the actual per-vertex weights.
func appendStreamedSkeleton(doc *block.Document, m *Model) {
	doc.Append(block.Must(block.SpecSBoneCount, block.Int(len(m.Bones))))
	for i, b := range m.Bones {
		doc.Append(
			block.Must(block.SpecBoneInfo, block.BoneInfo{Index: i, Parent: b.Parent, Name: b.Name}),
			block.Must(block.SpecOffset, vec3Payload(b.Offset)),
			block.Must(block.SpecScale, vec3Payload(b.Scale)),
		)
		q := mgl32.Mat4ToQuat(b.Rotate.Mat4())
		doc.Append(block.Must(block.SpecQuaternion, block.Vec4{q.X(), q.Y(), q.Z(), q.W}))
	}

	total := 0
	for _, v := range m.Verts {
		n := len(v.Weights)
		if n == 0 {
			n = 1
		}
		total += n
	}
	doc.Append(block.Must(block.SpecSWeightCount, block.Int(total)))
	for _, v := range m.Verts {
		weights := v.Weights
		if len(weights) == 0 {
			weights = fullWeight
		}
		doc.Append(block.Must(block.SpecWeightCount, block.Int(len(weights))))
		for _, w := range weights {
			doc.Append(block.Must(block.SpecBoneWeight, block.Weight{Bone: w.Bone, Value: w.Value}))
		}
	}
}

// appendMaterial emits a material declaration and its shading parameter
// group.
func appendMaterial(doc *block.Document, index int, mat Material) {
	doc.Append(
		block.Must(block.SpecMaterial, block.MaterialInfo{
			Index:  index,
			Name:   mat.Name,
			Type:   mat.Type,
			Images: mat.Images,
		}),
		block.Must(block.SpecColor, vec4Payload(mat.Color)),
		block.Must(block.SpecTransparency, vec4Payload(mat.Transparency)),
		block.Must(block.SpecAmbientColor, vec4Payload(mat.AmbientColor)),
		block.Must(block.SpecIncandescence, vec4Payload(mat.Incandescence)),
		block.Must(block.SpecCoeffs, vec2Payload(mat.Coeffs)),
		block.Must(block.SpecGlow, vec2Payload(mat.Glow)),
		block.Must(block.SpecRefractive, vec2Payload(mat.Refractive)),
		block.Must(block.SpecSpecularColor, vec4Payload(mat.SpecularColor)),
		block.Must(block.SpecReflectiveColor, vec4Payload(mat.ReflectiveColor)),
		block.Must(block.SpecReflective, vec2Payload(mat.Reflective)),
		block.Must(block.SpecBlinn, vec2Payload(mat.Blinn)),
		block.Must(block.SpecPhong, block.Float(mat.Phong)),
	)
}
