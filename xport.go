// Package xport handles the encoding and decoding of skeletal mesh and
// animation assets in the block-oriented interchange format consumed by the
// engine's asset pipeline.
//
// An asset is held in memory as a Model or an Anim. Serializers convert
// these structures to and from a block.Document, the ordered block sequence
// that the block package renders in either the text or the binary (LZ4
// container) encoding. The skeleton builder prepares discovery-ordered
// joint lists for the format: it re-roots the hierarchy, orders bones
// parent-before-child, and defers cosmetic sub-trees to the end of the
// array.
package xport

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Format versions carried by the VERSION block.
const (
	ModelVersion = 6
	AnimVersion  = 3
)

// Progress is invoked per processed element during serialization. It is a
// reporting hook only; it cannot cancel an export.
type Progress func(stage string, done, total int)

func (p Progress) step(stage string, done, total int) {
	if p != nil {
		p(stage, done, total)
	}
}

////////////////////////////////////////////////////////////////
// Skeleton

// Bone is one joint of the final skeleton array.
type Bone struct {
	// Name is the joint's tag name, unique within a document.
	Name string

	// Parent is the index of the parent bone in the final array, or -1 for
	// the single root. After a hierarchy build, every parent index is
	// strictly less than the index of its bone.
	Parent int

	// Offset and Scale are the local-to-world translation and scale.
	Offset mgl32.Vec3
	Scale  mgl32.Vec3

	// Rotate holds the local axes as rows.
	Rotate mgl32.Mat3

	// Cosmetic marks bones sorted after all functional bones, together
	// with their descendants.
	Cosmetic bool
}

////////////////////////////////////////////////////////////////
// Mesh

// BoneWeight is one (bone, weight) influence of a vertex.
type BoneWeight struct {
	Bone  int
	Value float32
}

// Vertex is one entry of the document-global vertex pool.
type Vertex struct {
	Position mgl32.Vec3

	// Weights lists the vertex's bone influences. An empty list is
	// serialized as a single full weight to bone 0.
	Weights []BoneWeight
}

// Corner is one polygon corner: a global vertex index plus its per-face
// attributes.
type Corner struct {
	Vert   int
	Normal mgl32.Vec3
	Color  mgl32.Vec4
	UV     mgl32.Vec2
}

// Polygon is a face with 3 or 4 corners. Quads are split into two
// triangles during serialization.
type Polygon struct {
	Corners []Corner
}

// Mesh is one submesh: a named group of polygons over the global vertex
// pool, associated with a material by name.
type Mesh struct {
	Name     string
	Material string
	Polys    []Polygon
}

// Material is a named shading description. The mesh-to-material
// association is by name; serialization deduplicates materials in
// first-seen order.
type Material struct {
	Name   string
	Type   string
	Images string

	Color           mgl32.Vec4
	Transparency    mgl32.Vec4
	AmbientColor    mgl32.Vec4
	Incandescence   mgl32.Vec4
	Coeffs          mgl32.Vec2
	Glow            mgl32.Vec2
	Refractive      mgl32.Vec2
	SpecularColor   mgl32.Vec4
	ReflectiveColor mgl32.Vec4
	Reflective      mgl32.Vec2
	Blinn           mgl32.Vec2
	Phong           float32
}

// DefaultMaterial returns a material with the default texture reference
// and neutral shading parameters, used when a mesh names a material that
// has no description.
func DefaultMaterial(name string) Material {
	return Material{
		Name:            name,
		Type:            "lambert",
		Images:          "color:default.png",
		Color:           mgl32.Vec4{1, 1, 1, 1},
		Transparency:    mgl32.Vec4{0, 0, 0, 1},
		AmbientColor:    mgl32.Vec4{0, 0, 0, 1},
		Incandescence:   mgl32.Vec4{0, 0, 0, 1},
		Coeffs:          mgl32.Vec2{0.8, 0},
		Glow:            mgl32.Vec2{0, 0},
		Refractive:      mgl32.Vec2{6, 1},
		SpecularColor:   mgl32.Vec4{-1, -1, -1, 1},
		ReflectiveColor: mgl32.Vec4{-1, -1, -1, 1},
		Reflective:      mgl32.Vec2{-1, -1},
		Blinn:           mgl32.Vec2{-1, -1},
		Phong:           -1,
	}
}

// Model is one exportable skeletal mesh asset.
type Model struct {
	// Comment is emitted as the leading comment block, if non-empty.
	Comment string

	// Bones is the final skeleton array, as produced by BuildSkeleton.
	Bones []Bone

	// Verts is the document-global vertex pool shared by all meshes.
	Verts []Vertex

	Meshes    []Mesh
	Materials []Material
}

// Material returns the material description for a name, or a default one.
func (m *Model) MaterialByName(name string) Material {
	for _, mat := range m.Materials {
		if mat.Name == name {
			return mat
		}
	}
	return DefaultMaterial(name)
}

////////////////////////////////////////////////////////////////
// Animation

// Transform is the sampled placement of one part at one frame.
type Transform struct {
	Offset mgl32.Vec3

	// Axis holds the part's axes as rows.
	Axis mgl32.Mat3
}

// Frame is one sampled animation frame, carrying one transform per part in
// part-declaration order.
type Frame struct {
	Index      int
	Transforms []Transform
}

// Note is one notetrack event.
type Note struct {
	Frame int
	Name  string
}

// Notetrack is the list of events attached to one part.
type Notetrack struct {
	Part  int
	Notes []Note
}

// Anim is one exportable animation asset.
type Anim struct {
	Comment string

	// Parts names the tracked joints, in declaration order.
	Parts []string

	Framerate  int
	Frames     []Frame
	Notetracks []Notetrack
}
