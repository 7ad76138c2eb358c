package xport

import (
	"github.com/pkg/errors"

	"github.com/xforge-tools/xport/block"
)

// liveNotes drops keys named "end"; exporters emit one as a scene marker
// and it carries no information the frame count does not.
func liveNotes(notes []Note) []Note {
	out := notes[:0:0]
	for _, n := range notes {
		if n.Name != "end" {
			out = append(out, n)
		}
	}
	return out
}

// BuildDocumentFromAnim lowers an animation to its block sequence.
func BuildDocumentFromAnim(a *Anim, opts ExportOptions) (*block.Document, error) {
	if len(a.Parts) == 0 {
		return nil, errors.New("animation has no parts")
	}
	doc := &block.Document{}
	if a.Comment != "" {
		doc.Append(block.Must(block.SpecComment, block.String(a.Comment)))
	}
	doc.Append(block.Must(block.SpecAnim, block.None{}))
	doc.Append(block.Must(block.SpecVersion, block.Int(AnimVersion)))

	doc.Append(block.Must(block.SpecPartCount, block.Int(len(a.Parts))))
	for i, name := range a.Parts {
		doc.Append(block.Must(block.SpecPartInfo, block.IndexName{Index: i, Name: name}))
	}

	doc.Append(block.Must(block.SpecFramerate, block.Int(a.Framerate)))
	doc.Append(block.Must(block.SpecFrameCount, block.Int(len(a.Frames))))
	for fi, frame := range a.Frames {
		if len(frame.Transforms) != len(a.Parts) {
			return nil, errors.Errorf("frame %d has %d transforms for %d parts",
				frame.Index, len(frame.Transforms), len(a.Parts))
		}
		doc.Append(block.Must(block.SpecFrameIndex, block.Int(frame.Index)))
		for pi, t := range frame.Transforms {
			doc.Append(block.Must(block.SpecPartIndex, block.Int(pi)))
			doc.Append(block.Must(block.SpecOffset, vec3Payload(t.Offset)))
			doc.Append(block.Must(block.SpecAxisX, vec3Payload(t.Axis.Row(0))))
			doc.Append(block.Must(block.SpecAxisY, vec3Payload(t.Axis.Row(1))))
			doc.Append(block.Must(block.SpecAxisZ, vec3Payload(t.Axis.Row(2))))
		}
		opts.Progress.step("frames", fi+1, len(a.Frames))
	}

	doc.Append(block.Must(block.SpecNotetracks, block.None{}))
	tracksByPart := make(map[int][]Notetrack)
	for _, nt := range a.Notetracks {
		if nt.Part < 0 || nt.Part >= len(a.Parts) {
			return nil, errors.Errorf("notetrack references part %d of %d", nt.Part, len(a.Parts))
		}
		tracksByPart[nt.Part] = append(tracksByPart[nt.Part], nt)
	}
	for pi := range a.Parts {
		tracks := tracksByPart[pi]
		if len(tracks) == 0 {
			continue
		}
		doc.Append(block.Must(block.SpecPartIndex, block.Int(pi)))
		doc.Append(block.Must(block.SpecTrackCount, block.Int(len(tracks))))
		for ti, nt := range tracks {
			notes := liveNotes(nt.Notes)
			doc.Append(block.Must(block.SpecNotetrack, block.Int(ti)))
			doc.Append(block.Must(block.SpecKeyCount, block.Int(len(notes))))
			for _, n := range notes {
				doc.Append(block.Must(block.SpecNoteFrame, block.IndexName{Index: n.Frame, Name: n.Name}))
			}
		}
	}
	return doc, nil
}

// animReader accumulates animation state over a linear block scan.
type animReader struct {
	a          Anim
	notetracks bool

	frame *Frame
	part  int

	track *Notetrack
}

// DocumentToAnim consumes a decoded document into an Anim.
func DocumentToAnim(doc *block.Document) (*Anim, error) {
	ar := &animReader{part: -1}
	for i, b := range doc.Blocks {
		if err := ar.consume(b); err != nil {
			return nil, errors.Wrapf(err, "block #%d (%s)", i, b.Spec.Label)
		}
	}
	return &ar.a, nil
}

func (ar *animReader) consume(b block.Block) error {
	switch b.Spec {
	case block.SpecComment:
		if ar.a.Comment == "" {
			ar.a.Comment = string(b.Payload.(block.String))
		}
	case block.SpecAnim, block.SpecVersion:

	case block.SpecPartCount:
		ar.a.Parts = make([]string, b.Int())
	case block.SpecPartInfo:
		info := b.Payload.(block.IndexName)
		if info.Index < 0 || info.Index >= len(ar.a.Parts) {
			return errors.Errorf("part index %d of %d", info.Index, len(ar.a.Parts))
		}
		ar.a.Parts[info.Index] = info.Name

	case block.SpecFramerate:
		ar.a.Framerate = b.Int()
	case block.SpecFrameCount:
		ar.a.Frames = make([]Frame, 0, b.Int())
	case block.SpecFrameIndex:
		ar.a.Frames = append(ar.a.Frames, Frame{
			Index:      b.Int(),
			Transforms: make([]Transform, len(ar.a.Parts)),
		})
		ar.frame = &ar.a.Frames[len(ar.a.Frames)-1]
		ar.part = -1
	case block.SpecPartIndex:
		ar.part = b.Int()
		if ar.part < 0 || ar.part >= len(ar.a.Parts) {
			return errors.Errorf("part index %d of %d", ar.part, len(ar.a.Parts))
		}
		if ar.notetracks {
			ar.track = nil
		}
	case block.SpecOffset:
		t, err := ar.transform()
		if err != nil {
			return err
		}
		t.Offset = vec3FromPayload(b.Payload.(block.Vec3))
	case block.SpecAxisX, block.SpecAxisY, block.SpecAxisZ:
		row := 0
		switch b.Spec {
		case block.SpecAxisY:
			row = 1
		case block.SpecAxisZ:
			row = 2
		}
		t, err := ar.transform()
		if err != nil {
			return err
		}
		setRow(&t.Axis, row, vec3FromPayload(b.Payload.(block.Vec3)))

	case block.SpecNotetracks:
		ar.notetracks = true
		ar.part = -1
	case block.SpecTrackCount, block.SpecKeyCount:
		if !ar.notetracks {
			return errors.New("track count before the notetrack section")
		}
	case block.SpecNotetrack:
		if !ar.notetracks || ar.part < 0 {
			return errors.New("notetrack outside a part group")
		}
		ar.a.Notetracks = append(ar.a.Notetracks, Notetrack{Part: ar.part})
		ar.track = &ar.a.Notetracks[len(ar.a.Notetracks)-1]
	case block.SpecNoteFrame:
		if ar.track == nil {
			return errors.New("note key outside a notetrack")
		}
		info := b.Payload.(block.IndexName)
		if info.Name != "end" {
			ar.track.Notes = append(ar.track.Notes, Note{Frame: info.Index, Name: info.Name})
		}

	default:
		return errors.Errorf("unexpected %s block in an animation document", b.Spec.Label)
	}
	return nil
}

func (ar *animReader) transform() (*Transform, error) {
	if ar.notetracks {
		return nil, errors.New("transform after the notetrack section")
	}
	if ar.frame == nil || ar.part < 0 || ar.part >= len(ar.frame.Transforms) {
		return nil, errors.New("transform outside a frame part group")
	}
	return &ar.frame.Transforms[ar.part], nil
}
