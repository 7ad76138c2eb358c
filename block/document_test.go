package block

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testDocument() *Document {
	doc := &Document{}
	doc.Append(
		Must(SpecComment, String("exported scene")),
		Must(SpecModel, nil),
		Must(SpecVersion, Int(6)),
		Must(SpecBoneCount, Int(2)),
		Must(SpecBoneInfo, BoneInfo{Index: 0, Parent: -1, Name: "root"}),
		Must(SpecBoneInfo, BoneInfo{Index: 1, Parent: 0, Name: "spine"}),
		Must(SpecBoneIndex, Int(0)),
		Must(SpecOffset, Vec3{0, 0, 0}),
		Must(SpecScale, Vec3{1, 1, 1}),
		Must(SpecAxisX, Vec3{1, 0, 0}),
		Must(SpecAxisY, Vec3{0, 1, 0}),
		Must(SpecAxisZ, Vec3{0, 0, 1}),
		Must(SpecFaceCount, Int(1)),
		Must(SpecTri, Face{Submesh: 0, Material: 0}),
	)
	return doc
}

func TestWriteTextSpacers(t *testing.T) {
	var buf bytes.Buffer
	if err := testDocument().WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"// exported scene",
		"",
		"MODEL",
		"VERSION 6",
		"",
		"NUMBONES 2",
		`BONE 0 -1 "root"`,
		`BONE 1 0 "spine"`,
		"",
		"BONE 0",
		"OFFSET 0.000000, 0.000000, 0.000000",
		"SCALE 1.000000, 1.000000, 1.000000",
		"X 1.000000, 0.000000, 0.000000",
		"Y 0.000000, 1.000000, 0.000000",
		"Z 0.000000, 0.000000, 1.000000",
		"",
		"NUMFACES 1",
		"TRI 0 0 0 0",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteText:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestTextRoundTrip(t *testing.T) {
	doc := testDocument()
	var buf bytes.Buffer
	if err := doc.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	got, warn, err := Decoder{}.ReadText(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Fatalf("warnings: %v", warn)
	}
	requireSameBlocks(t, got, doc)
}

func TestBinaryRoundTrip(t *testing.T) {
	doc := testDocument()
	var buf bytes.Buffer
	if err := doc.WriteBinary(&buf); err != nil {
		t.Fatal(err)
	}
	stats := DecoderStats{}
	got, warn, err := Decoder{Stats: &stats}.ReadBinary(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Fatalf("warnings: %v", warn)
	}
	requireSameBlocks(t, got, doc)
	if stats.BlockCount != doc.Len() {
		t.Errorf("stats.BlockCount = %d, want %d", stats.BlockCount, doc.Len())
	}
	if stats.KeywordCounts["BONE"] != 3 {
		t.Errorf("stats.KeywordCounts[BONE] = %d, want 3", stats.KeywordCounts["BONE"])
	}
	if stats.StreamSize == 0 || stats.CompressedSize == 0 {
		t.Errorf("stats sizes = (%d, %d), want non-zero", stats.CompressedSize, stats.StreamSize)
	}
}

func requireSameBlocks(t *testing.T, got, want *Document) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("decoded %d blocks, want %d", got.Len(), want.Len())
	}
	for i := range want.Blocks {
		g, w := got.Blocks[i], want.Blocks[i]
		if g.Spec != w.Spec {
			t.Errorf("block %d: spec = %s, want %s", i, g.Spec.Label, w.Spec.Label)
			continue
		}
		if g.Payload.String() != w.Payload.String() {
			t.Errorf("block %d (%s): payload = %s, want %s",
				i, w.Spec.Label, g.Payload.String(), w.Payload.String())
		}
	}
}

func TestReadBinaryBadMagic(t *testing.T) {
	doc, warn, err := Decoder{}.ReadBinary(strings.NewReader("*XYZ*\x00\x00\x00\x00 junk"))
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if doc.Len() != 0 {
		t.Errorf("decoded %d blocks, want 0", doc.Len())
	}
	var cerr ContainerError
	if !errors.As(warn, &cerr) || !errors.Is(cerr, ErrBadMagic) {
		t.Errorf("warn = %v, want ContainerError{ErrBadMagic}", warn)
	}
}

func TestReadBinaryTruncatedHeader(t *testing.T) {
	doc, warn, err := Decoder{}.ReadBinary(strings.NewReader("*LZ"))
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if doc.Len() != 0 {
		t.Errorf("decoded %d blocks, want 0", doc.Len())
	}
	var cerr ContainerError
	if !errors.As(warn, &cerr) || !errors.Is(cerr, ErrTruncated) {
		t.Errorf("warn = %v, want ContainerError{ErrTruncated}", warn)
	}
}

func TestDecodeStreamUnknownTag(t *testing.T) {
	raw, err := appendBinary(Must(SpecVersion, Int(6)))
	if err != nil {
		t.Fatal(err)
	}
	raw = append(raw, 0x00, 0x00) // unregistered tag
	doc := &Document{}
	warns := (Decoder{}).decodeStream(doc, raw)
	if doc.Len() != 1 {
		t.Fatalf("decoded %d blocks, want 1", doc.Len())
	}
	var terr TagError
	if !errors.As(warns.Return(), &terr) {
		t.Fatalf("warn = %v, want TagError", warns.Return())
	}
	if terr.Offset != 4 || terr.Tag != 0 {
		t.Errorf("TagError = %+v, want offset 4 tag 0", terr)
	}
}

func TestReadTextUnknownKeywordStops(t *testing.T) {
	in := "MODEL\nVERSION 6\nBOGUS 1\nNUMBONES 1\n"
	doc, warn, err := Decoder{}.ReadText(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 2 {
		t.Fatalf("decoded %d blocks, want 2", doc.Len())
	}
	var kerr KeywordError
	if !errors.As(warn, &kerr) {
		t.Fatalf("warn = %v, want KeywordError", warn)
	}
	if kerr.Line != 3 || kerr.Keyword != "BOGUS" {
		t.Errorf("KeywordError = %+v, want line 3 keyword BOGUS", kerr)
	}
}

func TestReadTextMalformedLineSkipped(t *testing.T) {
	in := "MODEL\nVERSION six\nNUMBONES 1\n"
	doc, warn, err := Decoder{}.ReadText(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Len() != 2 {
		t.Fatalf("decoded %d blocks, want 2", doc.Len())
	}
	if doc.Blocks[1].Spec != SpecBoneCount {
		t.Errorf("block 1 = %s, want %s", doc.Blocks[1].Spec.Label, SpecBoneCount.Label)
	}
	var lerr LineError
	if !errors.As(warn, &lerr) {
		t.Fatalf("warn = %v, want LineError", warn)
	}
	if lerr.Line != 2 {
		t.Errorf("LineError.Line = %d, want 2", lerr.Line)
	}
}

func TestReadTextPromotedCountDiagnostic(t *testing.T) {
	_, warn, err := Decoder{}.ReadText(strings.NewReader("NUMVERTS32 bogus\n"))
	if err != nil {
		t.Fatal(err)
	}
	if warn == nil || !strings.Contains(warn.Error(), "32-bit count") {
		t.Errorf("warn = %v, want a 32-bit count diagnostic", warn)
	}
}

func TestFixNormals(t *testing.T) {
	doc := &Document{}
	doc.Append(
		Must(SpecNormal, Vec3{0, 0, 0}),
		Must(SpecNormal, Vec3{1, 0, 0}),
		Must(SpecOffset, Vec3{0, 0, 0}),
		Must(SpecNormal, Vec3{0.5, -0.5, 0}),
	)
	doc.FixNormals()
	if got := doc.Blocks[0].Payload.(Vec3); got != (Vec3{0, 0, 1}) {
		t.Errorf("zero normal = %v, want (0, 0, 1)", got)
	}
	if got := doc.Blocks[1].Payload.(Vec3); got != (Vec3{1, 0, 0}) {
		t.Errorf("valid normal modified: %v", got)
	}
	if got := doc.Blocks[2].Payload.(Vec3); got != (Vec3{0, 0, 0}) {
		t.Errorf("non-normal block modified: %v", got)
	}
	if got := doc.Blocks[3].Payload.(Vec3); got != (Vec3{0, 0, 1}) {
		t.Errorf("cancelling normal = %v, want (0, 0, 1)", got)
	}
}

func TestDecoderFixNormals(t *testing.T) {
	doc := &Document{}
	doc.Append(
		Must(SpecNormal, Vec3{0, 0, 0}),
		Must(SpecNormal, Vec3{0, 1, 0}),
	)

	var text bytes.Buffer
	if err := doc.WriteText(&text); err != nil {
		t.Fatal(err)
	}
	got, warn, err := Decoder{FixNormals: true}.ReadText(&text)
	if err != nil || warn != nil {
		t.Fatalf("err = %v, warn = %v", err, warn)
	}
	if v := got.Blocks[0].Payload.(Vec3); v != (Vec3{0, 0, 1}) {
		t.Errorf("text decode: zero normal = %v, want (0, 0, 1)", v)
	}
	if v := got.Blocks[1].Payload.(Vec3); v != (Vec3{0, 1, 0}) {
		t.Errorf("text decode: valid normal modified: %v", v)
	}

	var bin bytes.Buffer
	if err := doc.WriteBinary(&bin); err != nil {
		t.Fatal(err)
	}
	got, warn, err = Decoder{FixNormals: true}.ReadBinary(&bin)
	if err != nil || warn != nil {
		t.Fatalf("err = %v, warn = %v", err, warn)
	}
	if v := got.Blocks[0].Payload.(Vec3); v != (Vec3{0, 0, 1}) {
		t.Errorf("binary decode: zero normal = %v, want (0, 0, 1)", v)
	}
	if v := got.Blocks[1].Payload.(Vec3); v != (Vec3{0, 1, 0}) {
		t.Errorf("binary decode: valid normal modified: %v", v)
	}
}
