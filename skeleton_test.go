package xport

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func namedBones(names ...string) []Bone {
	bones := make([]Bone, len(names))
	for i, n := range names {
		bones[i] = Bone{Name: n, Scale: mgl32.Vec3{1, 1, 1}, Rotate: mgl32.Ident3()}
	}
	return bones
}

func boneNames(bones []Bone) []string {
	names := make([]string, len(bones))
	for i, b := range bones {
		names[i] = b.Name
	}
	return names
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkHierarchy verifies the structural invariants of a final bone array:
// exactly one root at index 0, every parent before its bone, and cosmetic
// bones trailing.
func checkHierarchy(t *testing.T, bones []Bone) {
	t.Helper()
	roots := 0
	for i, b := range bones {
		if b.Parent < 0 {
			roots++
			if i != 0 {
				t.Errorf("root %q at index %d, want 0", b.Name, i)
			}
			continue
		}
		if b.Parent >= i {
			t.Errorf("bone %d (%q) has parent %d, want < %d", i, b.Name, b.Parent, i)
		}
	}
	if roots != 1 {
		t.Errorf("%d roots, want 1", roots)
	}
	seenCosmetic := false
	for i, b := range bones {
		if b.Cosmetic {
			seenCosmetic = true
		} else if seenCosmetic {
			t.Errorf("functional bone %d (%q) after a cosmetic bone", i, b.Name)
		}
	}
}

func TestBuildSkeletonEmpty(t *testing.T) {
	bones, err := BuildSkeleton(nil, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(bones) != 1 {
		t.Fatalf("got %d bones, want 1", len(bones))
	}
	root := bones[0]
	if root.Name != "root" || root.Parent != -1 {
		t.Errorf("synthesized root = %+v", root)
	}
	if root.Scale != (mgl32.Vec3{1, 1, 1}) || root.Rotate != mgl32.Ident3() {
		t.Errorf("synthesized root transform = %+v", root)
	}
}

func TestBuildSkeletonChain(t *testing.T) {
	bones, err := BuildSkeleton(
		namedBones("tip", "root", "mid"),
		[]string{"mid", "", "root"},
		"")
	if err != nil {
		t.Fatal(err)
	}
	checkHierarchy(t, bones)
	if got := boneNames(bones); !sameNames(got, []string{"root", "mid", "tip"}) {
		t.Errorf("order = %v, want [root mid tip]", got)
	}
}

func TestBuildSkeletonSiblingOrder(t *testing.T) {
	// Siblings keep discovery order under their parent.
	bones, err := BuildSkeleton(
		namedBones("b", "root", "a", "c"),
		[]string{"root", "", "root", "root"},
		"")
	if err != nil {
		t.Fatal(err)
	}
	checkHierarchy(t, bones)
	if got := boneNames(bones); !sameNames(got, []string{"root", "b", "a", "c"}) {
		t.Errorf("order = %v, want [root b a c]", got)
	}
}

func TestBuildSkeletonUnresolvedParentIsRoot(t *testing.T) {
	// A parent name matching no joint marks a root, as does a self-parent.
	bones, err := BuildSkeleton(
		namedBones("root", "child"),
		[]string{"missing", "root"},
		"")
	if err != nil {
		t.Fatal(err)
	}
	checkHierarchy(t, bones)
	if bones[0].Name != "root" {
		t.Errorf("root = %q", bones[0].Name)
	}

	if _, err := BuildSkeleton(namedBones("a"), []string{"a"}, ""); err != nil {
		t.Errorf("self-parent: %v, want root resolution", err)
	}
}

func TestBuildSkeletonMultipleRoots(t *testing.T) {
	_, err := BuildSkeleton(namedBones("a", "b"), []string{"", ""}, "")
	if !errors.Is(err, ErrMultipleRoots) {
		t.Errorf("err = %v, want ErrMultipleRoots", err)
	}
}

func TestBuildSkeletonNoRoot(t *testing.T) {
	_, err := BuildSkeleton(namedBones("a", "b"), []string{"b", "a"}, "")
	if !errors.Is(err, ErrNoRoot) {
		t.Errorf("err = %v, want ErrNoRoot", err)
	}
}

func TestBuildSkeletonLengthMismatch(t *testing.T) {
	if _, err := BuildSkeleton(namedBones("a"), nil, ""); err == nil {
		t.Error("want length mismatch error")
	}
}

func TestBuildSkeletonCosmeticPartition(t *testing.T) {
	// root -> {spine -> head, hair -> {strand1, strand2}}. Flagging "hair"
	// defers its whole sub-tree behind the functional bones, keeping
	// relative order inside both partitions.
	bones, err := BuildSkeleton(
		namedBones("root", "hair", "strand1", "spine", "head", "strand2"),
		[]string{"", "root", "hair", "root", "spine", "hair"},
		"hair")
	if err != nil {
		t.Fatal(err)
	}
	checkHierarchy(t, bones)
	want := []string{"root", "spine", "head", "hair", "strand1", "strand2"}
	if got := boneNames(bones); !sameNames(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if n := CosmeticCount(bones); n != 3 {
		t.Errorf("CosmeticCount = %d, want 3", n)
	}
	// Parent indices must point at the partitioned layout.
	byName := map[string]int{}
	for i, b := range bones {
		byName[b.Name] = i
	}
	for _, c := range []struct{ child, parent string }{
		{"spine", "root"}, {"head", "spine"},
		{"hair", "root"}, {"strand1", "hair"}, {"strand2", "hair"},
	} {
		if got := bones[byName[c.child]].Parent; got != byName[c.parent] {
			t.Errorf("%s.Parent = %d, want %d (%s)", c.child, got, byName[c.parent], c.parent)
		}
	}
}

func TestBuildSkeletonCosmeticUnknownName(t *testing.T) {
	bones, err := BuildSkeleton(
		namedBones("root", "spine"),
		[]string{"", "root"},
		"no_such_bone")
	if err != nil {
		t.Fatal(err)
	}
	if n := CosmeticCount(bones); n != 0 {
		t.Errorf("CosmeticCount = %d, want 0", n)
	}
}
