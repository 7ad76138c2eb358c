package xport

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNoRoot indicates that no bone resolved to a root.
	ErrNoRoot = errors.New("no root joint found")
	// ErrMultipleRoots indicates more than one bone resolved to a root.
	ErrMultipleRoots = errors.New("multiple root joints are not supported")
)

// defaultRoot is the bone synthesized when a model has no skeleton, and the
// dummy root emitted in siege mode.
func defaultRoot() Bone {
	return Bone{
		Name:   "root",
		Parent: -1,
		Scale:  mgl32.Vec3{1, 1, 1},
		Rotate: mgl32.Ident3(),
	}
}

// BuildSkeleton converts a discovery-ordered joint list into the final bone
// array of a document.
//
// bones carries one entry per joint with its name and world transform;
// parents carries the parallel list of parent names captured at discovery
// time, with "" marking a root. A parent name that matches no joint also
// resolves to a root. Exactly one root must result.
//
// The returned array is ordered depth-first with original sibling order,
// so every parent precedes all of its descendants. If cosmeticRoot names a
// bone in the rebuilt tree, that bone and its whole sub-tree are flagged
// cosmetic and partitioned to the end of the array, preserving relative
// order within both partitions; parent indices are recomputed against the
// final layout.
func BuildSkeleton(bones []Bone, parents []string, cosmeticRoot string) ([]Bone, error) {
	if len(bones) == 0 {
		return []Bone{defaultRoot()}, nil
	}
	if len(parents) != len(bones) {
		return nil, fmt.Errorf("parent list length %d does not match bone list length %d",
			len(parents), len(bones))
	}

	// Resolve parent names to indices in the original order.
	byName := make(map[string]int, len(bones))
	for i, b := range bones {
		byName[b.Name] = i
	}
	resolved := make([]int, len(bones))
	root := -1
	for i, pname := range parents {
		j, ok := byName[pname]
		if pname == "" || !ok || j == i {
			resolved[i] = -1
			if root >= 0 {
				return nil, ErrMultipleRoots
			}
			root = i
			continue
		}
		resolved[i] = j
	}
	if root < 0 {
		return nil, ErrNoRoot
	}

	// Pre-order rebuild: children in original sibling order, parent index
	// rewritten to the parent's position in the output.
	out := make([]Bone, 0, len(bones))
	rootCopy := bones[root]
	rootCopy.Parent = -1
	out = append(out, rootCopy)
	var descend func(orig, outIdx int)
	descend = func(orig, outIdx int) {
		for j := range bones {
			if j == orig || resolved[j] != orig {
				continue
			}
			c := bones[j]
			c.Parent = outIdx
			out = append(out, c)
			descend(j, len(out)-1)
		}
	}
	descend(root, 0)

	// Flag the cosmetic sub-tree by chasing parent indices.
	if cosmeticRoot != "" {
		ci := -1
		for i := range out {
			if out[i].Name == cosmeticRoot {
				ci = i
				break
			}
		}
		if ci >= 0 {
			out[ci].Cosmetic = true
			for i := range out {
				for p := out[i].Parent; p >= 0; p = out[p].Parent {
					if p == ci {
						out[i].Cosmetic = true
						break
					}
				}
			}
		}
	}

	// Partition cosmetic bones to the end. The sort must be stable: only
	// the relative order of the two partitions changes.
	parentName := make([]string, len(out))
	for i := range out {
		if out[i].Parent >= 0 {
			parentName[i] = out[out[i].Parent].Name
		}
	}
	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return !out[order[a]].Cosmetic && out[order[b]].Cosmetic
	})
	final := make([]Bone, len(out))
	names := make(map[string]int, len(out))
	pnames := make([]string, len(out))
	for i, o := range order {
		final[i] = out[o]
		pnames[i] = parentName[o]
		names[final[i].Name] = i
	}

	// Indices shifted during the partition; recompute them by name.
	for i := range final {
		if pnames[i] == "" {
			final[i].Parent = -1
			continue
		}
		final[i].Parent = names[pnames[i]]
	}
	return final, nil
}

// CosmeticCount returns the number of trailing cosmetic bones in a final
// bone array.
func CosmeticCount(bones []Bone) int {
	n := 0
	for _, b := range bones {
		if b.Cosmetic {
			n++
		}
	}
	return n
}
