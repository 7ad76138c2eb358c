package block

import (
	"bytes"
	"math"

	"github.com/anaminus/parse"
)

// shortScale is the quantization factor of "short vector" blocks, which
// store each component as a signed 16-bit value covering the -1..1 range.
const shortScale = 32767

////////////////////////////////////////////////////////////////
// Writer

// binWriter serializes one block into an in-memory buffer. Offsets measured
// with n() are relative to the start of the block, which is what the
// padding and string-alignment rules are defined against.
type binWriter struct {
	buf bytes.Buffer
	w   *parse.BinaryWriter
}

func newBinWriter() *binWriter {
	bw := &binWriter{}
	bw.w = parse.NewBinaryWriter(&bw.buf)
	return bw
}

func (bw *binWriter) n() int { return bw.buf.Len() }

func (bw *binWriter) number(v interface{}) { bw.w.Number(v) }

// stringz writes an ASCII NUL-terminated string.
func (bw *binWriter) stringz(s string) {
	bw.w.Bytes(append([]byte(s), 0))
}

// pad4 appends zero bytes until the block size is a multiple of 4.
func (bw *binWriter) pad4() {
	for bw.n()%4 != 0 {
		bw.w.Number(uint8(0))
	}
}

func (bw *binWriter) end() ([]byte, error) {
	if _, err := bw.w.End(); err != nil {
		return nil, err
	}
	return bw.buf.Bytes(), nil
}

// appendBinary encodes one block, including its tag and any trailing
// padding, and returns the written bytes.
func appendBinary(b Block) ([]byte, error) {
	bw := newBinWriter()
	bw.number(b.Spec.Tag)
	b.Spec.encBin(bw, b.Payload)
	if b.Spec.padded {
		bw.pad4()
	}
	return bw.end()
}

////////////////////////////////////////////////////////////////
// Reader

// binReader wraps a parse.BinaryReader with the offset of the block being
// decoded, so padding skips can be measured from the block start.
type binReader struct {
	r     *parse.BinaryReader
	start int64
}

// rel returns the number of bytes consumed since the start of the block.
func (br *binReader) rel() int64 { return br.r.N() - br.start }

func (br *binReader) number(v interface{}) bool { return br.r.Number(v) }

// stringz reads an ASCII NUL-terminated string.
func (br *binReader) stringz() string {
	var raw []byte
	for {
		var c uint8
		if br.r.Number(&c) || c == 0 {
			break
		}
		raw = append(raw, c)
	}
	return string(raw)
}

// skipPad4 consumes zero bytes until the block size is a multiple of 4.
func (br *binReader) skipPad4() {
	for br.rel()%4 != 0 {
		var c uint8
		if br.r.Number(&c) {
			return
		}
	}
}

// decodeBinary decodes the payload of one block whose tag has already been
// consumed. start is the stream offset of the tag.
func decodeBinary(s *Spec, r *parse.BinaryReader, start int64) Payload {
	br := &binReader{r: r, start: start}
	p := s.decBin(br)
	if s.padded {
		br.skipPad4()
	}
	return p
}

////////////////////////////////////////////////////////////////
// Per-kind binary codecs

func encBinNone(w *binWriter, p Payload) {}

func decBinNone(r *binReader) Payload { return None{} }

func encBinComment(w *binWriter, p Payload) {
	w.stringz(string(p.(String)))
}

func decBinComment(r *binReader) Payload {
	return String(r.stringz())
}

func encBinUint16(w *binWriter, p Payload) {
	w.number(uint16(p.(Int)))
}

func decBinUint16(r *binReader) Payload {
	var v uint16
	r.number(&v)
	return Int(v)
}

func encBinInt32(w *binWriter, p Payload) {
	w.number(int32(p.(Int)))
}

func decBinInt32(r *binReader) Payload {
	var v int32
	r.number(&v)
	return Int(v)
}

func encBinFloat(w *binWriter, p Payload) {
	w.number(float32(p.(Float)))
}

func decBinFloat(r *binReader) Payload {
	var v float32
	r.number(&v)
	return Float(v)
}

func encBinVec2(w *binWriter, p Payload) {
	v := p.(Vec2)
	w.number(v[0])
	w.number(v[1])
}

func decBinVec2(r *binReader) Payload {
	var v Vec2
	r.number(&v[0])
	r.number(&v[1])
	return v
}

func encBinVec3(w *binWriter, p Payload) {
	v := p.(Vec3)
	w.number(v[0])
	w.number(v[1])
	w.number(v[2])
}

func decBinVec3(r *binReader) Payload {
	var v Vec3
	r.number(&v[0])
	r.number(&v[1])
	r.number(&v[2])
	return v
}

func encBinVec4(w *binWriter, p Payload) {
	v := p.(Vec4)
	for i := range v {
		w.number(v[i])
	}
}

func decBinVec4(r *binReader) Payload {
	var v Vec4
	for i := range v {
		r.number(&v[i])
	}
	return v
}

func quantizeShort(f float32) int16 {
	s := math.Round(float64(f) * shortScale)
	if s > shortScale {
		s = shortScale
	} else if s < -shortScale {
		s = -shortScale
	}
	return int16(s)
}

func encBinShortVec3(w *binWriter, p Payload) {
	v := p.(Vec3)
	for i := range v {
		w.number(quantizeShort(v[i]))
	}
}

func decBinShortVec3(r *binReader) Payload {
	var v Vec3
	for i := range v {
		var s int16
		r.number(&s)
		v[i] = float32(s) / shortScale
	}
	return v
}

// A quaternion block reserves two zero bytes between the tag and the four
// components.
func encBinQuat(w *binWriter, p Payload) {
	w.number(uint16(0))
	encBinVec4(w, p)
}

func decBinQuat(r *binReader) Payload {
	var reserved uint16
	r.number(&reserved)
	return decBinVec4(r)
}

func clamp01(f float32) float32 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func encBinColor(w *binWriter, p Payload) {
	v := p.(Vec4)
	for i := range v {
		w.number(uint8(math.Round(float64(clamp01(v[i])) * 255)))
	}
}

func decBinColor(r *binReader) Payload {
	var v Vec4
	for i := range v {
		var c uint8
		r.number(&c)
		v[i] = float32(c) / 255
	}
	return v
}

func encBinUVSet(w *binWriter, p Payload) {
	v := p.(UVSet)
	w.number(uint16(len(v)))
	for _, uv := range v {
		w.number(uv[0])
		w.number(uv[1])
	}
}

func decBinUVSet(r *binReader) Payload {
	var n uint16
	r.number(&n)
	v := make(UVSet, int(n))
	for i := range v {
		r.number(&v[i][0])
		r.number(&v[i][1])
	}
	return v
}

func encBinWeight(w *binWriter, p Payload) {
	v := p.(Weight)
	w.number(uint16(v.Bone))
	w.number(v.Value)
}

func decBinWeight(r *binReader) Payload {
	var bone uint16
	var value float32
	r.number(&bone)
	r.number(&value)
	return Weight{Bone: int(bone), Value: value}
}

// TRI carries two reserved zero bytes after its 8-bit indices.
func encBinTri8(w *binWriter, p Payload) {
	v := p.(Face)
	w.number(uint8(v.Submesh))
	w.number(uint8(v.Material))
	w.number(uint16(0))
}

func decBinTri8(r *binReader) Payload {
	var submesh, material uint8
	var reserved uint16
	r.number(&submesh)
	r.number(&material)
	r.number(&reserved)
	return Face{Submesh: int(submesh), Material: int(material)}
}

func encBinTri16(w *binWriter, p Payload) {
	v := p.(Face)
	w.number(uint16(v.Submesh))
	w.number(uint16(v.Material))
}

func decBinTri16(r *binReader) Payload {
	var submesh, material uint16
	r.number(&submesh)
	r.number(&material)
	return Face{Submesh: int(submesh), Material: int(material)}
}

func encBinBoneInfo(w *binWriter, p Payload) {
	v := p.(BoneInfo)
	w.number(int32(v.Index))
	w.number(int32(v.Parent))
	w.stringz(v.Name)
}

func decBinBoneInfo(r *binReader) Payload {
	var index, parent int32
	r.number(&index)
	r.number(&parent)
	return BoneInfo{Index: int(index), Parent: int(parent), Name: r.stringz()}
}

func encBinIndexName(w *binWriter, p Payload) {
	v := p.(IndexName)
	w.number(uint16(v.Index))
	w.stringz(v.Name)
}

func decBinIndexName(r *binReader) Payload {
	var index uint16
	r.number(&index)
	return IndexName{Index: int(index), Name: r.stringz()}
}

func encBinNoteFrame(w *binWriter, p Payload) {
	v := p.(IndexName)
	w.number(int32(v.Index))
	w.stringz(v.Name)
}

func decBinNoteFrame(r *binReader) Payload {
	var frame int32
	r.number(&frame)
	return IndexName{Index: int(frame), Name: r.stringz()}
}

// Material strings are "aligned strings": each one pads to its own 4-byte
// boundary measured from the block start before the next field begins.
func encBinMaterial(w *binWriter, p Payload) {
	v := p.(MaterialInfo)
	w.number(uint16(v.Index))
	w.stringz(v.Name)
	w.pad4()
	w.stringz(v.Type)
	w.pad4()
	w.stringz(v.Images)
}

func decBinMaterial(r *binReader) Payload {
	var index uint16
	r.number(&index)
	v := MaterialInfo{Index: int(index)}
	v.Name = r.stringz()
	r.skipPad4()
	v.Type = r.stringz()
	r.skipPad4()
	v.Images = r.stringz()
	return v
}
