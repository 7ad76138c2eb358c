// Package block implements the tagged-block interchange format used by the
// asset pipeline. A document is an ordered sequence of blocks, and the same
// logical sequence has two physical encodings: a line-oriented text form, and
// a binary form packed into an LZ4 container.
//
// Every block kind is described by a Spec, which pairs a 16-bit binary tag
// and a text keyword with the encode and decode routines for both physical
// encodings. The registry is keyed both ways; a few keywords are shared by
// several kinds and resolve by token count.
package block

import (
	"fmt"
)

// Spec is an immutable schema entry describing one block kind.
type Spec struct {
	// Tag is the 16-bit identifier of the kind in the binary encoding.
	Tag uint16

	// Keyword is the identifier of the kind in the text encoding. Keywords
	// are not unique; see Lookup.
	Keyword string

	// Label is a human-readable name for diagnostics.
	Label string

	// Shape is the payload layout the kind carries.
	Shape Shape

	// padded indicates that the binary form of the kind is zero-padded to a
	// 4-byte boundary measured from the start of the block.
	padded bool

	encBin  func(w *binWriter, p Payload)
	decBin  func(r *binReader) Payload
	encText func(p Payload) string
	decText func(tok []token) (Payload, error)
}

func (s *Spec) String() string { return s.Label }

// The full block catalog. Specs are identified by pointer; two specs never
// share a tag, but several share a keyword.
var (
	// Comment and section identifiers.
	SpecComment    = &Spec{Tag: 0xC355, Keyword: "//", Label: "comment", Shape: ShapeString, padded: true, encBin: encBinComment, decBin: decBinComment, encText: encTextComment, decText: decTextString}
	SpecModel      = &Spec{Tag: 0x46C8, Keyword: "MODEL", Label: "model section", Shape: ShapeNone, encBin: encBinNone, decBin: decBinNone, encText: encTextNone, decText: decTextNone}
	SpecAnim       = &Spec{Tag: 0x7AAC, Keyword: "ANIMATION", Label: "animation section", Shape: ShapeNone, encBin: encBinNone, decBin: decBinNone, encText: encTextNone, decText: decTextNone}
	SpecNotetracks = &Spec{Tag: 0xC7F3, Keyword: "NOTETRACKS", Label: "notetracks section", Shape: ShapeNone, encBin: encBinNone, decBin: decBinNone, encText: encTextNone, decText: decTextNone}
	SpecVersion    = &Spec{Tag: 0x24D1, Keyword: "VERSION", Label: "version", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}

	// Counts. 16-bit unless the counted quantity can exceed 65535.
	SpecBoneCount     = &Spec{Tag: 0x76BA, Keyword: "NUMBONES", Label: "bone count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecCosmeticCount = &Spec{Tag: 0x7836, Keyword: "NUMCOSMETICS", Label: "cosmetic bone count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecVertCount     = &Spec{Tag: 0x950D, Keyword: "NUMVERTS", Label: "vertex count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecVertCount32   = &Spec{Tag: 0x2AEC, Keyword: "NUMVERTS32", Label: "vertex count (32-bit)", Shape: ShapeInt, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt32Count}
	SpecFaceCount     = &Spec{Tag: 0xBE92, Keyword: "NUMFACES", Label: "face count", Shape: ShapeInt, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt}
	SpecObjectCount   = &Spec{Tag: 0x62AF, Keyword: "NUMOBJECTS", Label: "object count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecMaterialCount = &Spec{Tag: 0xA1B2, Keyword: "NUMMATERIALS", Label: "material count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecPartCount     = &Spec{Tag: 0x9279, Keyword: "NUMPARTS", Label: "part count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecFrameCount    = &Spec{Tag: 0xB917, Keyword: "NUMFRAMES", Label: "frame count", Shape: ShapeInt, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt}
	SpecKeyCount      = &Spec{Tag: 0x7A6C, Keyword: "NUMKEYS", Label: "notetrack key count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecTrackCount    = &Spec{Tag: 0x9016, Keyword: "NUMTRACKS", Label: "notetrack count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecSBoneCount    = &Spec{Tag: 0xEB86, Keyword: "NUMSBONES", Label: "streamed bone count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecSWeightCount  = &Spec{Tag: 0xC096, Keyword: "NUMSWEIGHTS", Label: "streamed weight count", Shape: ShapeInt, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt}
	SpecFramerate     = &Spec{Tag: 0x92D3, Keyword: "FRAMERATE", Label: "framerate", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}

	// Bones. The BONE keyword is shared by three kinds and resolves by token
	// count: 1 token is an index reference, 2 tokens a vertex weight, 3
	// tokens a bone declaration.
	SpecBoneInfo    = &Spec{Tag: 0xF099, Keyword: "BONE", Label: "bone declaration", Shape: ShapeBoneInfo, padded: true, encBin: encBinBoneInfo, decBin: decBinBoneInfo, encText: encTextBoneInfo, decText: decTextBoneInfo}
	SpecBoneIndex   = &Spec{Tag: 0xDD9A, Keyword: "BONE", Label: "bone index", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecBoneWeight  = &Spec{Tag: 0xF1AB, Keyword: "BONE", Label: "bone weight", Shape: ShapeWeight, encBin: encBinWeight, decBin: decBinWeight, encText: encTextWeight, decText: decTextWeight}
	SpecWeightCount = &Spec{Tag: 0xEA46, Keyword: "BONES", Label: "vertex weight count", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}

	// Vertices.
	SpecVert   = &Spec{Tag: 0x8F03, Keyword: "VERT", Label: "vertex index", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecVert32 = &Spec{Tag: 0xB097, Keyword: "VERT32", Label: "vertex index (32-bit)", Shape: ShapeInt, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt}

	// Transforms.
	SpecOffset     = &Spec{Tag: 0x9383, Keyword: "OFFSET", Label: "offset", Shape: ShapeVec3, padded: true, encBin: encBinVec3, decBin: decBinVec3, encText: encTextVec3, decText: decTextVec3}
	SpecScale      = &Spec{Tag: 0x1C56, Keyword: "SCALE", Label: "scale", Shape: ShapeVec3, padded: true, encBin: encBinVec3, decBin: decBinVec3, encText: encTextVec3, decText: decTextVec3}
	SpecAxisX      = &Spec{Tag: 0xDCFD, Keyword: "X", Label: "axis row X", Shape: ShapeVec3, padded: true, encBin: encBinShortVec3, decBin: decBinShortVec3, encText: encTextVec3, decText: decTextVec3}
	SpecAxisY      = &Spec{Tag: 0xCCDC, Keyword: "Y", Label: "axis row Y", Shape: ShapeVec3, padded: true, encBin: encBinShortVec3, decBin: decBinShortVec3, encText: encTextVec3, decText: decTextVec3}
	SpecAxisZ      = &Spec{Tag: 0xFCBF, Keyword: "Z", Label: "axis row Z", Shape: ShapeVec3, padded: true, encBin: encBinShortVec3, decBin: decBinShortVec3, encText: encTextVec3, decText: decTextVec3}
	SpecNormal     = &Spec{Tag: 0x89EC, Keyword: "NORMAL", Label: "normal", Shape: ShapeVec3, padded: true, encBin: encBinShortVec3, decBin: decBinShortVec3, encText: encTextVec3, decText: decTextVec3}
	SpecQuaternion = &Spec{Tag: 0xEF69, Keyword: "QUATERNION", Label: "quaternion", Shape: ShapeVec4, encBin: encBinQuat, decBin: decBinQuat, encText: encTextVec4, decText: decTextVec4}

	// Per-face-vertex data.
	SpecColor = &Spec{Tag: 0x6DD8, Keyword: "COLOR", Label: "color", Shape: ShapeVec4, encBin: encBinColor, decBin: decBinColor, encText: encTextColor, decText: decTextVec4}
	SpecUV    = &Spec{Tag: 0x1AD4, Keyword: "UV", Label: "uv set", Shape: ShapeUVSet, encBin: encBinUVSet, decBin: decBinUVSet, encText: encTextUVSet, decText: decTextUVSet}

	// Faces. TRI carries 8-bit submesh and material indices; TRI16 is the
	// promoted 16-bit variant.
	SpecTri   = &Spec{Tag: 0x562F, Keyword: "TRI", Label: "triangle", Shape: ShapeFace, encBin: encBinTri8, decBin: decBinTri8, encText: encTextTri, decText: decTextTri}
	SpecTri16 = &Spec{Tag: 0x6711, Keyword: "TRI16", Label: "triangle (16-bit)", Shape: ShapeFace, encBin: encBinTri16, decBin: decBinTri16, encText: encTextTri, decText: decTextTri}

	// Objects and materials.
	SpecObject          = &Spec{Tag: 0x87D4, Keyword: "OBJECT", Label: "object", Shape: ShapeIndexName, padded: true, encBin: encBinIndexName, decBin: decBinIndexName, encText: encTextIndexName, decText: decTextIndexName}
	SpecMaterial        = &Spec{Tag: 0xA700, Keyword: "MATERIAL", Label: "material", Shape: ShapeMaterialInfo, padded: true, encBin: encBinMaterial, decBin: decBinMaterial, encText: encTextMaterial, decText: decTextMaterial}
	SpecTransparency    = &Spec{Tag: 0x6DAB, Keyword: "TRANSPARENCY", Label: "transparency", Shape: ShapeVec4, padded: true, encBin: encBinVec4, decBin: decBinVec4, encText: encTextVec4, decText: decTextVec4}
	SpecAmbientColor    = &Spec{Tag: 0x37FF, Keyword: "AMBIENTCOLOR", Label: "ambient color", Shape: ShapeVec4, padded: true, encBin: encBinVec4, decBin: decBinVec4, encText: encTextVec4, decText: decTextVec4}
	SpecIncandescence   = &Spec{Tag: 0x4265, Keyword: "INCANDESCENCE", Label: "incandescence", Shape: ShapeVec4, padded: true, encBin: encBinVec4, decBin: decBinVec4, encText: encTextVec4, decText: decTextVec4}
	SpecCoeffs          = &Spec{Tag: 0xC835, Keyword: "COEFFS", Label: "coefficients", Shape: ShapeVec2, padded: true, encBin: encBinVec2, decBin: decBinVec2, encText: encTextVec2, decText: decTextVec2}
	SpecGlow            = &Spec{Tag: 0xFE0C, Keyword: "GLOW", Label: "glow", Shape: ShapeVec2, padded: true, encBin: encBinVec2, decBin: decBinVec2, encText: encTextVec2, decText: decTextVec2}
	SpecRefractive      = &Spec{Tag: 0x7E24, Keyword: "REFRACTIVE", Label: "refractive", Shape: ShapeVec2, padded: true, encBin: encBinVec2, decBin: decBinVec2, encText: encTextVec2, decText: decTextVec2}
	SpecSpecularColor   = &Spec{Tag: 0x317C, Keyword: "SPECULARCOLOR", Label: "specular color", Shape: ShapeVec4, padded: true, encBin: encBinVec4, decBin: decBinVec4, encText: encTextVec4, decText: decTextVec4}
	SpecReflectiveColor = &Spec{Tag: 0xE593, Keyword: "REFLECTIVECOLOR", Label: "reflective color", Shape: ShapeVec4, padded: true, encBin: encBinVec4, decBin: decBinVec4, encText: encTextVec4, decText: decTextVec4}
	SpecReflective      = &Spec{Tag: 0x7D76, Keyword: "REFLECTIVE", Label: "reflective", Shape: ShapeVec2, padded: true, encBin: encBinVec2, decBin: decBinVec2, encText: encTextVec2, decText: decTextVec2}
	SpecBlinn           = &Spec{Tag: 0x83C7, Keyword: "BLINN", Label: "blinn", Shape: ShapeVec2, padded: true, encBin: encBinVec2, decBin: decBinVec2, encText: encTextVec2, decText: decTextVec2}
	SpecPhong           = &Spec{Tag: 0x5CD2, Keyword: "PHONG", Label: "phong", Shape: ShapeFloat, padded: true, encBin: encBinFloat, decBin: decBinFloat, encText: encTextFloat, decText: decTextFloat}

	// Animation. The PART keyword resolves by token count: 1 token is an
	// index reference, 2 tokens a part declaration. FRAME with 1 token is a
	// keyframe marker, otherwise a notetrack frame.
	SpecPartInfo   = &Spec{Tag: 0x360B, Keyword: "PART", Label: "part declaration", Shape: ShapeIndexName, padded: true, encBin: encBinIndexName, decBin: decBinIndexName, encText: encTextIndexName, decText: decTextIndexName}
	SpecPartIndex  = &Spec{Tag: 0x745A, Keyword: "PART", Label: "part index", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
	SpecFrameIndex = &Spec{Tag: 0xC723, Keyword: "FRAME", Label: "frame index", Shape: ShapeInt, padded: true, encBin: encBinInt32, decBin: decBinInt32, encText: encTextInt, decText: decTextInt}
	SpecNoteFrame  = &Spec{Tag: 0x1675, Keyword: "FRAME", Label: "notetrack frame", Shape: ShapeIndexName, padded: true, encBin: encBinNoteFrame, decBin: decBinNoteFrame, encText: encTextIndexName, decText: decTextIndexName}
	SpecNotetrack  = &Spec{Tag: 0x4056, Keyword: "NOTETRACK", Label: "notetrack index", Shape: ShapeInt, encBin: encBinUint16, decBin: decBinUint16, encText: encTextInt, decText: decTextInt}
)

var specs = []*Spec{
	SpecComment, SpecModel, SpecAnim, SpecNotetracks, SpecVersion,
	SpecBoneCount, SpecCosmeticCount, SpecVertCount, SpecVertCount32,
	SpecFaceCount, SpecObjectCount, SpecMaterialCount, SpecPartCount,
	SpecFrameCount, SpecKeyCount, SpecTrackCount, SpecSBoneCount,
	SpecSWeightCount, SpecFramerate,
	SpecBoneInfo, SpecBoneIndex, SpecBoneWeight, SpecWeightCount,
	SpecVert, SpecVert32,
	SpecOffset, SpecScale, SpecAxisX, SpecAxisY, SpecAxisZ,
	SpecNormal, SpecQuaternion,
	SpecColor, SpecUV,
	SpecTri, SpecTri16,
	SpecObject, SpecMaterial,
	SpecTransparency, SpecAmbientColor, SpecIncandescence, SpecCoeffs,
	SpecGlow, SpecRefractive, SpecSpecularColor, SpecReflectiveColor,
	SpecReflective, SpecBlinn, SpecPhong,
	SpecPartInfo, SpecPartIndex, SpecFrameIndex, SpecNoteFrame,
	SpecNotetrack,
}

var byTag = func() map[uint16]*Spec {
	m := make(map[uint16]*Spec, len(specs))
	for _, s := range specs {
		if _, ok := m[s.Tag]; ok {
			panic(fmt.Sprintf("block: duplicate tag 0x%04X", s.Tag))
		}
		m[s.Tag] = s
	}
	return m
}()

var byKeyword = func() map[string][]*Spec {
	m := make(map[string][]*Spec, len(specs))
	for _, s := range specs {
		m[s.Keyword] = append(m[s.Keyword], s)
	}
	return m
}()

// LookupTag returns the spec registered for a binary tag.
func LookupTag(tag uint16) (*Spec, bool) {
	s, ok := byTag[tag]
	return s, ok
}

// LookupKeyword resolves a text keyword to a spec. Keywords shared by
// several kinds resolve by argc, the number of value tokens following the
// keyword on the line.
func LookupKeyword(keyword string, argc int) (*Spec, bool) {
	candidates := byKeyword[keyword]
	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0], true
	}
	switch keyword {
	case "BONE":
		switch argc {
		case 1:
			return SpecBoneIndex, true
		case 2:
			return SpecBoneWeight, true
		case 3:
			return SpecBoneInfo, true
		}
	case "PART":
		switch argc {
		case 1:
			return SpecPartIndex, true
		case 2:
			return SpecPartInfo, true
		}
	case "FRAME":
		if argc == 1 {
			return SpecFrameIndex, true
		}
		return SpecNoteFrame, true
	}
	return nil, false
}

////////////////////////////////////////////////////////////////

// Block is one tagged unit of a document: a spec plus a payload of the
// spec's shape.
type Block struct {
	Spec    *Spec
	Payload Payload
}

// New constructs a block, validating that the payload matches the shape
// declared by the spec.
func New(spec *Spec, payload Payload) (Block, error) {
	if spec == nil {
		return Block{}, fmt.Errorf("block: nil spec")
	}
	if payload == nil {
		payload = None{}
	}
	if payload.Shape() != spec.Shape {
		return Block{}, fmt.Errorf("block: %s payload for %s block (want %s)",
			payload.Shape(), spec.Label, spec.Shape)
	}
	return Block{Spec: spec, Payload: payload}, nil
}

// Must is like New but panics on a shape mismatch. It is intended for
// statically correct construction in serializers.
func Must(spec *Spec, payload Payload) Block {
	b, err := New(spec, payload)
	if err != nil {
		panic(err)
	}
	return b
}

// VertIndex classifies a vertex index into the 16-bit kind, or the promoted
// 32-bit kind when the value does not fit in 16 bits.
func VertIndex(i int) Block {
	if i > 0xFFFF {
		return Must(SpecVert32, Int(i))
	}
	return Must(SpecVert, Int(i))
}

// VertCount classifies a vertex count the same way VertIndex classifies an
// index.
func VertCount(n int) Block {
	if n > 0xFFFF {
		return Must(SpecVertCount32, Int(n))
	}
	return Must(SpecVertCount, Int(n))
}

// Triangle classifies a face into the 8-bit kind, or the promoted 16-bit
// kind when either index does not fit in 8 bits.
func Triangle(submesh, material int) Block {
	if submesh > 0xFF || material > 0xFF {
		return Must(SpecTri16, Face{Submesh: submesh, Material: material})
	}
	return Must(SpecTri, Face{Submesh: submesh, Material: material})
}

// Int returns the payload as an int. It returns zero if the payload is not
// an Int.
func (b Block) Int() int {
	v, _ := b.Payload.(Int)
	return int(v)
}
