package xport

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/xforge-tools/xport/block"
)

func testAnim() *Anim {
	transform := func(x float32) Transform {
		return Transform{Offset: mgl32.Vec3{x, 0, 0}, Axis: mgl32.Ident3()}
	}
	return &Anim{
		Comment:   "walk cycle",
		Parts:     []string{"root", "spine"},
		Framerate: 30,
		Frames: []Frame{
			{Index: 0, Transforms: []Transform{transform(0), transform(1)}},
			{Index: 1, Transforms: []Transform{transform(0.5), transform(1.5)}},
		},
		Notetracks: []Notetrack{
			{Part: 0, Notes: []Note{
				{Frame: 0, Name: "step_left"},
				{Frame: 1, Name: "end"},
			}},
		},
	}
}

func TestBuildDocumentFromAnim(t *testing.T) {
	doc, err := BuildDocumentFromAnim(testAnim(), ExportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := findKind(doc, block.SpecPartCount); b.Int() != 2 {
		t.Errorf("NUMPARTS = %d, want 2", b.Int())
	}
	if b, _ := findKind(doc, block.SpecFramerate); b.Int() != 30 {
		t.Errorf("FRAMERATE = %d, want 30", b.Int())
	}
	if b, _ := findKind(doc, block.SpecFrameCount); b.Int() != 2 {
		t.Errorf("NUMFRAMES = %d, want 2", b.Int())
	}
	// Every frame carries one transform group per part.
	if n := countKind(doc, block.SpecFrameIndex); n != 2 {
		t.Errorf("FRAME blocks = %d, want 2", n)
	}
	if n := countKind(doc, block.SpecOffset); n != 4 {
		t.Errorf("OFFSET blocks = %d, want 4", n)
	}
	// The "end" marker note is dropped before the key count.
	if b, _ := findKind(doc, block.SpecKeyCount); b.Int() != 1 {
		t.Errorf("NUMKEYS = %d, want 1", b.Int())
	}
	if n := countKind(doc, block.SpecNoteFrame); n != 1 {
		t.Errorf("notetrack FRAME blocks = %d, want 1", n)
	}
}

func TestBuildDocumentFromAnimErrors(t *testing.T) {
	if _, err := BuildDocumentFromAnim(&Anim{}, ExportOptions{}); err == nil {
		t.Error("want error for an animation with no parts")
	}

	a := testAnim()
	a.Frames[1].Transforms = a.Frames[1].Transforms[:1]
	if _, err := BuildDocumentFromAnim(a, ExportOptions{}); err == nil {
		t.Error("want error for a frame with a missing transform")
	}

	a = testAnim()
	a.Notetracks[0].Part = 9
	if _, err := BuildDocumentFromAnim(a, ExportOptions{}); err == nil {
		t.Error("want error for a notetrack referencing a missing part")
	}
}

func TestAnimRoundTrip(t *testing.T) {
	in := testAnim()
	doc, err := BuildDocumentFromAnim(in, ExportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	out, err := DocumentToAnim(doc)
	if err != nil {
		t.Fatal(err)
	}

	if out.Comment != in.Comment || out.Framerate != in.Framerate {
		t.Errorf("header = %q/%d, want %q/%d", out.Comment, out.Framerate, in.Comment, in.Framerate)
	}
	if len(out.Parts) != 2 || out.Parts[1] != "spine" {
		t.Fatalf("parts = %v", out.Parts)
	}
	if len(out.Frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(out.Frames))
	}
	for fi, frame := range in.Frames {
		got := out.Frames[fi]
		if got.Index != frame.Index {
			t.Errorf("frame %d index = %d, want %d", fi, got.Index, frame.Index)
		}
		for pi, want := range frame.Transforms {
			if got.Transforms[pi] != want {
				t.Errorf("frame %d part %d = %+v, want %+v", fi, pi, got.Transforms[pi], want)
			}
		}
	}
	if len(out.Notetracks) != 1 {
		t.Fatalf("notetracks = %+v", out.Notetracks)
	}
	nt := out.Notetracks[0]
	if nt.Part != 0 || len(nt.Notes) != 1 || nt.Notes[0] != (Note{Frame: 0, Name: "step_left"}) {
		t.Errorf("notetrack = %+v", nt)
	}
}

func TestAnimTextEndToEnd(t *testing.T) {
	in := testAnim()
	var buf bytes.Buffer
	if err := WriteAnimText(&buf, in, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	out, warn, err := ReadAnimText(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if warn != nil {
		t.Fatalf("warnings: %v", warn)
	}
	if len(out.Parts) != 2 || len(out.Frames) != 2 || len(out.Notetracks) != 1 {
		t.Errorf("decoded anim: %d parts, %d frames, %d notetracks",
			len(out.Parts), len(out.Frames), len(out.Notetracks))
	}
}
