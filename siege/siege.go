// Package siege writes the auxiliary zip animation container: raw
// interleaved transform streams plus a JSON index describing them.
package siege

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"

	"github.com/anaminus/parse"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/xforge-tools/xport"
)

const (
	positionsName   = "data/positions"
	quaternionsName = "data/quaternions"
	indexName       = "index.json"
)

// Index is the archive's index.json document.
type Index struct {
	Parts     []string `json:"parts"`
	Framerate int      `json:"framerate"`
	Frames    int      `json:"frames"`
	// Strides are in bytes per frame, across all parts.
	PositionStride   int `json:"position_stride"`
	QuaternionStride int `json:"quaternion_stride"`
}

// WriteArchive writes a to w as a zip archive. Positions are frame-major
// interleaved float32 triples, quaternions float32 quadruples (x y z w),
// both little-endian, one record per part per frame.
func WriteArchive(w io.Writer, a *xport.Anim) error {
	if len(a.Parts) == 0 {
		return errors.New("animation has no parts")
	}

	var positions, quaternions bytes.Buffer
	pw := parse.NewBinaryWriter(&positions)
	qw := parse.NewBinaryWriter(&quaternions)
	for _, frame := range a.Frames {
		if len(frame.Transforms) != len(a.Parts) {
			return errors.Errorf("frame %d has %d transforms for %d parts",
				frame.Index, len(frame.Transforms), len(a.Parts))
		}
		for _, t := range frame.Transforms {
			pw.Number(t.Offset.X())
			pw.Number(t.Offset.Y())
			pw.Number(t.Offset.Z())
			q := mgl32.Mat4ToQuat(t.Axis.Mat4())
			qw.Number(q.X())
			qw.Number(q.Y())
			qw.Number(q.Z())
			qw.Number(q.W)
		}
	}
	if _, err := pw.End(); err != nil {
		return errors.Wrap(err, "positions stream")
	}
	if _, err := qw.End(); err != nil {
		return errors.Wrap(err, "quaternions stream")
	}

	index := Index{
		Parts:            a.Parts,
		Framerate:        a.Framerate,
		Frames:           len(a.Frames),
		PositionStride:   12 * len(a.Parts),
		QuaternionStride: 16 * len(a.Parts),
	}
	meta, err := json.MarshalIndent(&index, "", "\t")
	if err != nil {
		return errors.Wrap(err, "index")
	}

	z := zip.NewWriter(w)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{indexName, meta},
		{positionsName, positions.Bytes()},
		{quaternionsName, quaternions.Bytes()},
	} {
		f, err := z.Create(entry.name)
		if err != nil {
			return errors.Wrap(err, entry.name)
		}
		if _, err := f.Write(entry.data); err != nil {
			return errors.Wrap(err, entry.name)
		}
	}
	return errors.Wrap(z.Close(), "close archive")
}

// ReadIndex extracts index.json from an archive.
func ReadIndex(r io.ReaderAt, size int64) (*Index, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	f, err := zr.Open(indexName)
	if err != nil {
		return nil, errors.Wrap(err, indexName)
	}
	defer f.Close()
	var index Index
	if err := json.NewDecoder(f).Decode(&index); err != nil {
		return nil, errors.Wrap(err, indexName)
	}
	return &index, nil
}
