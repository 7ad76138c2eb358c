package block

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape identifies the concrete payload layout carried by a block. Every
// block kind declares exactly one shape; constructing a block with a payload
// of the wrong shape is rejected up front rather than at encode time.
type Shape uint8

const (
	ShapeInvalid Shape = iota
	ShapeNone
	ShapeInt
	ShapeFloat
	ShapeVec2
	ShapeVec3
	ShapeVec4
	ShapeString
	ShapeBoneInfo
	ShapeIndexName
	ShapeMaterialInfo
	ShapeWeight
	ShapeFace
	ShapeUVSet
)

var shapeStrings = map[Shape]string{
	ShapeNone:         "None",
	ShapeInt:          "Int",
	ShapeFloat:        "Float",
	ShapeVec2:         "Vec2",
	ShapeVec3:         "Vec3",
	ShapeVec4:         "Vec4",
	ShapeString:       "String",
	ShapeBoneInfo:     "BoneInfo",
	ShapeIndexName:    "IndexName",
	ShapeMaterialInfo: "MaterialInfo",
	ShapeWeight:       "Weight",
	ShapeFace:         "Face",
	ShapeUVSet:        "UVSet",
}

// String returns a name for the shape, or "Invalid" if the shape is not
// known.
func (s Shape) String() string {
	n, ok := shapeStrings[s]
	if !ok {
		return "Invalid"
	}
	return n
}

// Payload holds the value carried by one block.
type Payload interface {
	// Shape returns the layout of the payload.
	Shape() Shape

	// String returns a readable representation of the current value.
	String() string

	// Copy returns a copy of the payload, which can be safely modified.
	Copy() Payload
}

////////////////////////////////////////////////////////////////
// Payloads

// None is the payload of section identifier blocks, which carry no value.
type None struct{}

func (None) Shape() Shape   { return ShapeNone }
func (None) String() string { return "" }
func (None) Copy() Payload  { return None{} }

////////////////

// Int is the payload of version, count and index blocks.
type Int int

func (Int) Shape() Shape     { return ShapeInt }
func (v Int) String() string { return strconv.Itoa(int(v)) }
func (v Int) Copy() Payload  { return v }

////////////////

// Float is the payload of single-number shading parameter blocks.
type Float float32

func (Float) Shape() Shape     { return ShapeFloat }
func (v Float) String() string { return formatFloat(float32(v)) }
func (v Float) Copy() Payload  { return v }

////////////////

// Vec2 is the payload of two-number shading parameter blocks.
type Vec2 [2]float32

func (Vec2) Shape() Shape { return ShapeVec2 }
func (v Vec2) String() string {
	return formatFloat(v[0]) + ", " + formatFloat(v[1])
}
func (v Vec2) Copy() Payload { return v }

////////////////

// Vec3 is the payload of offsets, scales, axis rows and normals.
type Vec3 [3]float32

func (Vec3) Shape() Shape { return ShapeVec3 }
func (v Vec3) String() string {
	return formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " + formatFloat(v[2])
}
func (v Vec3) Copy() Payload { return v }

////////////////

// Vec4 is the payload of colors, quaternions and four-number shading
// parameters.
type Vec4 [4]float32

func (Vec4) Shape() Shape { return ShapeVec4 }
func (v Vec4) String() string {
	return formatFloat(v[0]) + ", " + formatFloat(v[1]) + ", " +
		formatFloat(v[2]) + ", " + formatFloat(v[3])
}
func (v Vec4) Copy() Payload { return v }

////////////////

// String is the payload of comment blocks.
type String string

func (String) Shape() Shape     { return ShapeString }
func (v String) String() string { return string(v) }
func (v String) Copy() Payload  { return v }

////////////////

// BoneInfo is the payload of bone declaration blocks.
type BoneInfo struct {
	Index  int
	Parent int
	Name   string
}

func (BoneInfo) Shape() Shape { return ShapeBoneInfo }
func (v BoneInfo) String() string {
	return fmt.Sprintf("%d %d %q", v.Index, v.Parent, v.Name)
}
func (v BoneInfo) Copy() Payload { return v }

////////////////

// IndexName is the payload of submesh, part and notetrack frame blocks.
type IndexName struct {
	Index int
	Name  string
}

func (IndexName) Shape() Shape { return ShapeIndexName }
func (v IndexName) String() string {
	return fmt.Sprintf("%d %q", v.Index, v.Name)
}
func (v IndexName) Copy() Payload { return v }

////////////////

// MaterialInfo is the payload of material declaration blocks.
type MaterialInfo struct {
	Index  int
	Name   string
	Type   string
	Images string
}

func (MaterialInfo) Shape() Shape { return ShapeMaterialInfo }
func (v MaterialInfo) String() string {
	return fmt.Sprintf("%d %q %q %q", v.Index, v.Name, v.Type, v.Images)
}
func (v MaterialInfo) Copy() Payload { return v }

////////////////

// Weight is the payload of vertex bone-weight blocks.
type Weight struct {
	Bone  int
	Value float32
}

func (Weight) Shape() Shape { return ShapeWeight }
func (v Weight) String() string {
	return strconv.Itoa(v.Bone) + " " + formatFloat(v.Value)
}
func (v Weight) Copy() Payload { return v }

////////////////

// Face is the payload of triangle declaration blocks.
type Face struct {
	Submesh  int
	Material int
}

func (Face) Shape() Shape { return ShapeFace }
func (v Face) String() string {
	return strconv.Itoa(v.Submesh) + " " + strconv.Itoa(v.Material)
}
func (v Face) Copy() Payload { return v }

////////////////

// UVSet is the payload of UV list blocks, carrying one pair per layer.
type UVSet [][2]float32

func (UVSet) Shape() Shape { return ShapeUVSet }
func (v UVSet) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(len(v)))
	for _, uv := range v {
		b.WriteByte(' ')
		b.WriteString(formatFloat(uv[0]))
		b.WriteByte(' ')
		b.WriteString(formatFloat(uv[1]))
	}
	return b.String()
}
func (v UVSet) Copy() Payload {
	c := make(UVSet, len(v))
	copy(c, v)
	return c
}

// formatFloat renders a float the way the text format requires: fixed
// six-decimal notation.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', 6, 32)
}
