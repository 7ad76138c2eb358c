package block

import (
	"bytes"
	"math"
	"testing"
)

// samplePayload returns a representative payload for a shape.
func samplePayload(s Shape) Payload {
	switch s {
	case ShapeNone:
		return None{}
	case ShapeInt:
		return Int(7)
	case ShapeFloat:
		return Float(0.25)
	case ShapeVec2:
		return Vec2{0.5, -0.5}
	case ShapeVec3:
		return Vec3{0.25, -0.5, 1}
	case ShapeVec4:
		return Vec4{0.25, -0.5, 1, 0}
	case ShapeString:
		return String("a comment")
	case ShapeBoneInfo:
		return BoneInfo{Index: 2, Parent: -1, Name: "spine"}
	case ShapeIndexName:
		return IndexName{Index: 3, Name: "body"}
	case ShapeMaterialInfo:
		return MaterialInfo{Index: 0, Name: "skin", Type: "lambert", Images: "color:skin.png"}
	case ShapeWeight:
		return Weight{Bone: 4, Value: 0.75}
	case ShapeFace:
		return Face{Submesh: 1, Material: 2}
	case ShapeUVSet:
		return UVSet{{0.125, 0.875}}
	}
	return nil
}

func TestPaddingInvariant(t *testing.T) {
	for _, s := range specs {
		if !s.padded {
			continue
		}
		raw, err := appendBinary(Must(s, samplePayload(s.Shape)))
		if err != nil {
			t.Errorf("%s: %v", s.Label, err)
			continue
		}
		if len(raw)%4 != 0 {
			t.Errorf("%s: block size %d not a multiple of 4", s.Label, len(raw))
		}
	}
}

func TestMaterialAlignedStrings(t *testing.T) {
	// Tag (2) + index (2) fill the first boundary; "ab\0" then pads with a
	// single zero to offset 8, "c\0" pads with two zeros to offset 12, and
	// the last string takes no alignment of its own. The block is padded as
	// a whole.
	b := Must(SpecMaterial, MaterialInfo{Index: 1, Name: "ab", Type: "c", Images: "de"})
	raw, err := appendBinary(b)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x00, 0xA7, // tag
		0x01, 0x00, // index
		'a', 'b', 0, 0,
		'c', 0, 0, 0,
		'd', 'e', 0, 0,
	}
	if !bytes.Equal(raw, want) {
		t.Errorf("material block:\ngot  % X\nwant % X", raw, want)
	}
}

func TestQuaternionReservedBytes(t *testing.T) {
	raw, err := appendBinary(Must(SpecQuaternion, Vec4{0, 0, 0, 1}))
	if err != nil {
		t.Fatal(err)
	}
	// Tag + 2 reserved zero bytes + 4 floats.
	if len(raw) != 2+2+16 {
		t.Fatalf("quaternion block size = %d, want 20", len(raw))
	}
	if raw[2] != 0 || raw[3] != 0 {
		t.Errorf("reserved bytes = % X, want 00 00", raw[2:4])
	}
}

func TestShortVec3Quantization(t *testing.T) {
	cases := []struct {
		f    float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{2, 32767},   // clamped
		{-2, -32767}, // clamped
	}
	for _, c := range cases {
		if got := quantizeShort(c.f); got != c.want {
			t.Errorf("quantizeShort(%g) = %d, want %d", c.f, got, c.want)
		}
	}
}

func TestShortVec3RoundTrip(t *testing.T) {
	in := Vec3{0.25, -0.707, 0.99}
	raw, err := appendBinary(Must(SpecNormal, in))
	if err != nil {
		t.Fatal(err)
	}
	doc := decodeRaw(t, raw)
	out := doc.Blocks[0].Payload.(Vec3)
	for i := range in {
		if d := math.Abs(float64(out[i] - in[i])); d > 1.0/shortScale {
			t.Errorf("component %d: got %g, want %g within 1/%d", i, out[i], in[i], shortScale)
		}
	}
}

func TestColorBytes(t *testing.T) {
	raw, err := appendBinary(Must(SpecColor, Vec4{0, 0.5, 1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0xD8, 0x6D, 0, 128, 255, 255}
	if !bytes.Equal(raw, want) {
		t.Errorf("color block:\ngot  % X\nwant % X", raw, want)
	}
}

// decodeRaw runs the stream decoder over raw block bytes.
func decodeRaw(t *testing.T, raw []byte) *Document {
	t.Helper()
	doc := &Document{}
	if warns := (Decoder{}).decodeStream(doc, raw); warns.Return() != nil {
		t.Fatalf("decodeStream: %v", warns)
	}
	return doc
}

func TestBinaryPayloadRoundTrip(t *testing.T) {
	blocks := []Block{
		Must(SpecComment, String("exported scene")),
		Must(SpecModel, None{}),
		Must(SpecVersion, Int(6)),
		Must(SpecBoneInfo, BoneInfo{Index: 1, Parent: 0, Name: "pelvis"}),
		Must(SpecOffset, Vec3{1.5, -2.25, 0}),
		Must(SpecBoneWeight, Weight{Bone: 3, Value: 0.5}),
		Must(SpecTri, Face{Submesh: 2, Material: 1}),
		Must(SpecTri16, Face{Submesh: 300, Material: 5}),
		Must(SpecUV, UVSet{{0.5, 0.25}}),
		Must(SpecObject, IndexName{Index: 0, Name: "mesh0"}),
		Must(SpecNoteFrame, IndexName{Index: 12, Name: "step"}),
		Must(SpecPhong, Float(0.5)),
		Must(SpecFrameCount, Int(100000)),
	}
	var raw []byte
	for _, b := range blocks {
		enc, err := appendBinary(b)
		if err != nil {
			t.Fatalf("%s: %v", b.Spec.Label, err)
		}
		raw = append(raw, enc...)
	}
	doc := decodeRaw(t, raw)
	if doc.Len() != len(blocks) {
		t.Fatalf("decoded %d blocks, want %d", doc.Len(), len(blocks))
	}
	for i, b := range blocks {
		got := doc.Blocks[i]
		if got.Spec != b.Spec {
			t.Errorf("block %d: spec = %s, want %s", i, got.Spec.Label, b.Spec.Label)
			continue
		}
		if got.Payload.String() != b.Payload.String() {
			t.Errorf("block %d (%s): payload = %s, want %s",
				i, b.Spec.Label, got.Payload.String(), b.Payload.String())
		}
	}
}
