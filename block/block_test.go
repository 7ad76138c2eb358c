package block

import (
	"testing"
)

func TestLookupTag(t *testing.T) {
	for _, s := range specs {
		got, ok := LookupTag(s.Tag)
		if !ok {
			t.Errorf("LookupTag(0x%04X): not found", s.Tag)
			continue
		}
		if got != s {
			t.Errorf("LookupTag(0x%04X) = %s, want %s", s.Tag, got.Label, s.Label)
		}
	}
	if _, ok := LookupTag(0x0000); ok {
		t.Errorf("LookupTag(0x0000): found, want miss")
	}
}

func TestLookupKeyword(t *testing.T) {
	cases := []struct {
		keyword string
		argc    int
		want    *Spec
		ok      bool
	}{
		{"MODEL", 0, SpecModel, true},
		{"VERSION", 1, SpecVersion, true},
		{"NUMBONES", 1, SpecBoneCount, true},
		{"NUMVERTS32", 1, SpecVertCount32, true},

		// BONE resolves by token count.
		{"BONE", 1, SpecBoneIndex, true},
		{"BONE", 2, SpecBoneWeight, true},
		{"BONE", 3, SpecBoneInfo, true},
		{"BONE", 4, nil, false},
		{"BONE", 0, nil, false},

		// So do PART and FRAME.
		{"PART", 1, SpecPartIndex, true},
		{"PART", 2, SpecPartInfo, true},
		{"FRAME", 1, SpecFrameIndex, true},
		{"FRAME", 2, SpecNoteFrame, true},

		{"NOPE", 1, nil, false},
		{"model", 0, nil, false},
	}
	for _, c := range cases {
		got, ok := LookupKeyword(c.keyword, c.argc)
		if ok != c.ok {
			t.Errorf("LookupKeyword(%q, %d): ok = %v, want %v", c.keyword, c.argc, ok, c.ok)
			continue
		}
		if got != c.want {
			t.Errorf("LookupKeyword(%q, %d) = %v, want %v", c.keyword, c.argc, got, c.want)
		}
	}
}

func TestNewValidatesShape(t *testing.T) {
	if _, err := New(SpecVersion, Int(6)); err != nil {
		t.Errorf("New(version, Int): %v", err)
	}
	if _, err := New(SpecVersion, Vec3{}); err == nil {
		t.Errorf("New(version, Vec3): want shape error")
	}
	if _, err := New(nil, Int(0)); err == nil {
		t.Errorf("New(nil, Int): want error")
	}
	b, err := New(SpecModel, nil)
	if err != nil {
		t.Fatalf("New(model, nil): %v", err)
	}
	if _, ok := b.Payload.(None); !ok {
		t.Errorf("New(model, nil): payload = %T, want None", b.Payload)
	}
}

func TestVertIndexPromotion(t *testing.T) {
	cases := []struct {
		i    int
		want *Spec
	}{
		{0, SpecVert},
		{65535, SpecVert},
		{65536, SpecVert32},
	}
	for _, c := range cases {
		if b := VertIndex(c.i); b.Spec != c.want {
			t.Errorf("VertIndex(%d).Spec = %s, want %s", c.i, b.Spec.Label, c.want.Label)
		}
	}
}

func TestVertCountPromotion(t *testing.T) {
	if b := VertCount(65535); b.Spec != SpecVertCount {
		t.Errorf("VertCount(65535).Spec = %s, want %s", b.Spec.Label, SpecVertCount.Label)
	}
	if b := VertCount(65536); b.Spec != SpecVertCount32 {
		t.Errorf("VertCount(65536).Spec = %s, want %s", b.Spec.Label, SpecVertCount32.Label)
	}
}

func TestTrianglePromotion(t *testing.T) {
	cases := []struct {
		submesh, material int
		want              *Spec
	}{
		{0, 0, SpecTri},
		{255, 255, SpecTri},
		{256, 0, SpecTri16},
		{0, 256, SpecTri16},
	}
	for _, c := range cases {
		if b := Triangle(c.submesh, c.material); b.Spec != c.want {
			t.Errorf("Triangle(%d, %d).Spec = %s, want %s",
				c.submesh, c.material, b.Spec.Label, c.want.Label)
		}
	}
}
