package xport

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/xforge-tools/xport/block"
)

// Sections of a model document, in stream order. The same block kinds mean
// different things depending on the section: an OFFSET belongs to a bone,
// a vertex or a streamed bone; a COLOR to a face corner or a material.
type modelSection int

const (
	sectionHeader modelSection = iota
	sectionBones
	sectionVerts
	sectionFaces
	sectionObjects
	sectionMaterials
	sectionSBones
	sectionSWeights
)

func vec3FromPayload(p block.Vec3) mgl32.Vec3 { return mgl32.Vec3{p[0], p[1], p[2]} }
func vec4FromPayload(p block.Vec4) mgl32.Vec4 { return mgl32.Vec4{p[0], p[1], p[2], p[3]} }
func vec2FromPayload(p block.Vec2) mgl32.Vec2 { return mgl32.Vec2{p[0], p[1]} }

// modelReader accumulates document state while scanning the block stream.
type modelReader struct {
	m        Model
	section  modelSection
	cosmetic int

	bone   int // current bone of a transform group
	vert   int // current vertex
	sbone  int // current streamed bone
	swvert int // current vertex of the streamed weight group

	axisTarget *mgl32.Mat3
	axisRow    int

	faces    []importedFace
	face     *importedFace
	objects  []block.IndexName
	material *Material

	siege bool
}

type importedFace struct {
	submesh  int
	material int
	corners  []Corner
}

// DocumentToModel consumes a decoded document into a Model. The scan is a
// single pass; blocks that make no sense in the current section are
// rejected.
func DocumentToModel(doc *block.Document) (*Model, error) {
	mr := &modelReader{bone: -1, vert: -1, sbone: -1}
	for i, b := range doc.Blocks {
		if err := mr.consume(b); err != nil {
			return nil, errors.Wrapf(err, "block #%d (%s)", i, b.Spec.Label)
		}
	}
	return mr.finish()
}

func (mr *modelReader) consume(b block.Block) error {
	switch b.Spec {
	case block.SpecComment:
		if mr.m.Comment == "" {
			mr.m.Comment = string(b.Payload.(block.String))
		}
	case block.SpecModel, block.SpecVersion:
		// Header; version mismatches are tolerated on read.

	case block.SpecBoneCount:
		mr.section = sectionBones
		mr.m.Bones = make([]Bone, 0, b.Int())
	case block.SpecCosmeticCount:
		mr.cosmetic = b.Int()
	case block.SpecBoneInfo:
		info := b.Payload.(block.BoneInfo)
		bone := Bone{Name: info.Name, Parent: info.Parent, Scale: mgl32.Vec3{1, 1, 1}, Rotate: mgl32.Ident3()}
		switch mr.section {
		case sectionBones:
			mr.m.Bones = append(mr.m.Bones, bone)
		case sectionSBones:
			mr.sbone = len(mr.m.Bones)
			mr.m.Bones = append(mr.m.Bones, bone)
		default:
			return errors.New("bone declaration outside a bone section")
		}
	case block.SpecBoneIndex:
		if mr.section != sectionBones {
			return errors.New("bone index outside the bone section")
		}
		mr.bone = b.Int()
		if mr.bone < 0 || mr.bone >= len(mr.m.Bones) {
			return errors.Errorf("bone index %d of %d", mr.bone, len(mr.m.Bones))
		}

	case block.SpecVertCount, block.SpecVertCount32:
		mr.section = sectionVerts
		mr.m.Verts = make([]Vertex, b.Int())
	case block.SpecVert, block.SpecVert32:
		switch mr.section {
		case sectionVerts:
			mr.vert = b.Int()
			if mr.vert < 0 || mr.vert >= len(mr.m.Verts) {
				return errors.Errorf("vertex index %d of %d", mr.vert, len(mr.m.Verts))
			}
		case sectionFaces:
			if mr.face == nil {
				return errors.New("face corner before a triangle")
			}
			mr.face.corners = append(mr.face.corners, Corner{Vert: b.Int()})
		default:
			return errors.New("vertex index outside a vertex or face section")
		}

	case block.SpecOffset:
		v := vec3FromPayload(b.Payload.(block.Vec3))
		switch {
		case mr.section == sectionBones && mr.bone >= 0:
			mr.m.Bones[mr.bone].Offset = v
		case mr.section == sectionVerts && mr.vert >= 0:
			mr.m.Verts[mr.vert].Position = v
		case mr.section == sectionSBones && mr.sbone >= 0:
			mr.m.Bones[mr.sbone].Offset = v
		default:
			return errors.New("offset outside a bone or vertex group")
		}
	case block.SpecScale:
		v := vec3FromPayload(b.Payload.(block.Vec3))
		switch {
		case mr.section == sectionBones && mr.bone >= 0:
			mr.m.Bones[mr.bone].Scale = v
		case mr.section == sectionSBones && mr.sbone >= 0:
			mr.m.Bones[mr.sbone].Scale = v
		default:
			return errors.New("scale outside a bone group")
		}
	case block.SpecAxisX, block.SpecAxisY, block.SpecAxisZ:
		row := 0
		switch b.Spec {
		case block.SpecAxisY:
			row = 1
		case block.SpecAxisZ:
			row = 2
		}
		if mr.section != sectionBones || mr.bone < 0 {
			return errors.New("axis row outside a bone transform group")
		}
		setRow(&mr.m.Bones[mr.bone].Rotate, row, vec3FromPayload(b.Payload.(block.Vec3)))
	case block.SpecQuaternion:
		if mr.section != sectionSBones || mr.sbone < 0 {
			return errors.New("quaternion outside the streamed bone group")
		}
		p := b.Payload.(block.Vec4)
		q := mgl32.Quat{W: p[3], V: mgl32.Vec3{p[0], p[1], p[2]}}
		mr.m.Bones[mr.sbone].Rotate = q.Mat4().Mat3()

	case block.SpecWeightCount:
		switch mr.section {
		case sectionVerts:
		case sectionSWeights:
			mr.swvert++
			if mr.swvert < len(mr.m.Verts) {
				mr.m.Verts[mr.swvert].Weights = nil
			}
		default:
			return errors.New("weight count outside a weight section")
		}
	case block.SpecBoneWeight:
		w := b.Payload.(block.Weight)
		switch mr.section {
		case sectionVerts:
			if mr.vert < 0 {
				return errors.New("bone weight before a vertex index")
			}
			mr.m.Verts[mr.vert].Weights = append(mr.m.Verts[mr.vert].Weights,
				BoneWeight{Bone: w.Bone, Value: w.Value})
		case sectionSWeights:
			if mr.swvert < 0 || mr.swvert >= len(mr.m.Verts) {
				return errors.Errorf("streamed weight for vertex %d of %d", mr.swvert, len(mr.m.Verts))
			}
			mr.m.Verts[mr.swvert].Weights = append(mr.m.Verts[mr.swvert].Weights,
				BoneWeight{Bone: w.Bone, Value: w.Value})
		default:
			return errors.New("bone weight outside a weight section")
		}

	case block.SpecFaceCount:
		mr.section = sectionFaces
		mr.faces = make([]importedFace, 0, b.Int())
	case block.SpecTri, block.SpecTri16:
		if mr.section != sectionFaces {
			return errors.New("triangle outside the face section")
		}
		f := b.Payload.(block.Face)
		mr.faces = append(mr.faces, importedFace{submesh: f.Submesh, material: f.Material})
		mr.face = &mr.faces[len(mr.faces)-1]
	case block.SpecNormal:
		if c := mr.corner(); c != nil {
			c.Normal = vec3FromPayload(b.Payload.(block.Vec3))
		} else {
			return errors.New("normal outside a face corner")
		}
	case block.SpecColor:
		switch {
		case mr.section == sectionMaterials && mr.material != nil:
			mr.material.Color = vec4FromPayload(b.Payload.(block.Vec4))
		case mr.corner() != nil:
			mr.corner().Color = vec4FromPayload(b.Payload.(block.Vec4))
		default:
			return errors.New("color outside a face corner or material")
		}
	case block.SpecUV:
		c := mr.corner()
		if c == nil {
			return errors.New("uv outside a face corner")
		}
		uv := b.Payload.(block.UVSet)
		if len(uv) > 0 {
			c.UV = mgl32.Vec2{uv[0][0], uv[0][1]}
		}

	case block.SpecObjectCount:
		mr.section = sectionObjects
	case block.SpecObject:
		mr.objects = append(mr.objects, b.Payload.(block.IndexName))

	case block.SpecMaterialCount:
		mr.section = sectionMaterials
	case block.SpecMaterial:
		info := b.Payload.(block.MaterialInfo)
		mr.m.Materials = append(mr.m.Materials, Material{
			Name:   info.Name,
			Type:   info.Type,
			Images: info.Images,
		})
		mr.material = &mr.m.Materials[len(mr.m.Materials)-1]
	case block.SpecTransparency, block.SpecAmbientColor, block.SpecIncandescence,
		block.SpecSpecularColor, block.SpecReflectiveColor:
		if mr.material == nil {
			return errors.New("shading parameter outside a material group")
		}
		v := vec4FromPayload(b.Payload.(block.Vec4))
		switch b.Spec {
		case block.SpecTransparency:
			mr.material.Transparency = v
		case block.SpecAmbientColor:
			mr.material.AmbientColor = v
		case block.SpecIncandescence:
			mr.material.Incandescence = v
		case block.SpecSpecularColor:
			mr.material.SpecularColor = v
		case block.SpecReflectiveColor:
			mr.material.ReflectiveColor = v
		}
	case block.SpecCoeffs, block.SpecGlow, block.SpecRefractive,
		block.SpecReflective, block.SpecBlinn:
		if mr.material == nil {
			return errors.New("shading parameter outside a material group")
		}
		v := vec2FromPayload(b.Payload.(block.Vec2))
		switch b.Spec {
		case block.SpecCoeffs:
			mr.material.Coeffs = v
		case block.SpecGlow:
			mr.material.Glow = v
		case block.SpecRefractive:
			mr.material.Refractive = v
		case block.SpecReflective:
			mr.material.Reflective = v
		case block.SpecBlinn:
			mr.material.Blinn = v
		}
	case block.SpecPhong:
		if mr.material == nil {
			return errors.New("shading parameter outside a material group")
		}
		mr.material.Phong = float32(b.Payload.(block.Float))

	case block.SpecSBoneCount:
		// The streamed group replaces the dummy skeleton.
		mr.section = sectionSBones
		mr.siege = true
		mr.m.Bones = mr.m.Bones[:0]
	case block.SpecSWeightCount:
		mr.section = sectionSWeights
		mr.swvert = -1

	default:
		return errors.Errorf("unexpected %s block in a model document", b.Spec.Label)
	}
	return nil
}

// corner returns the face corner currently being filled, or nil.
func (mr *modelReader) corner() *Corner {
	if mr.section != sectionFaces || mr.face == nil || len(mr.face.corners) == 0 {
		return nil
	}
	return &mr.face.corners[len(mr.face.corners)-1]
}

func setRow(m *mgl32.Mat3, row int, v mgl32.Vec3) {
	m.Set(row, 0, v.X())
	m.Set(row, 1, v.Y())
	m.Set(row, 2, v.Z())
}

// finish distributes faces to meshes and applies trailing flags.
func (mr *modelReader) finish() (*Model, error) {
	for i := len(mr.m.Bones) - mr.cosmetic; i >= 0 && i < len(mr.m.Bones); i++ {
		mr.m.Bones[i].Cosmetic = true
	}

	meshes := make([]Mesh, len(mr.objects))
	for i, obj := range mr.objects {
		meshes[i].Name = obj.Name
	}
	for _, f := range mr.faces {
		if f.submesh < 0 || f.submesh >= len(meshes) {
			return nil, errors.Errorf("face references object %d of %d", f.submesh, len(meshes))
		}
		mesh := &meshes[f.submesh]
		if mesh.Material == "" && f.material >= 0 && f.material < len(mr.m.Materials) {
			mesh.Material = mr.m.Materials[f.material].Name
		}
		if len(f.corners) != 3 {
			return nil, errors.Errorf("face with %d corners", len(f.corners))
		}
		mesh.Polys = append(mesh.Polys, Polygon{Corners: f.corners})
	}
	mr.m.Meshes = meshes
	return &mr.m, nil
}
