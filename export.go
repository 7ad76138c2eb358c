package xport

import (
	"io"

	"github.com/xforge-tools/xport/block"
)

// WriteModelText serializes m in the tokenized text encoding.
func WriteModelText(w io.Writer, m *Model, opts ExportOptions) error {
	doc, err := BuildDocumentFromModel(m, opts)
	if err != nil {
		return err
	}
	return doc.WriteText(w)
}

// WriteModelBinary serializes m in the compressed binary encoding.
func WriteModelBinary(w io.Writer, m *Model, opts ExportOptions) error {
	doc, err := BuildDocumentFromModel(m, opts)
	if err != nil {
		return err
	}
	return doc.WriteBinary(w)
}

// WriteAnimText serializes a in the tokenized text encoding.
func WriteAnimText(w io.Writer, a *Anim, opts ExportOptions) error {
	doc, err := BuildDocumentFromAnim(a, opts)
	if err != nil {
		return err
	}
	return doc.WriteText(w)
}

// WriteAnimBinary serializes a in the compressed binary encoding.
func WriteAnimBinary(w io.Writer, a *Anim, opts ExportOptions) error {
	doc, err := BuildDocumentFromAnim(a, opts)
	if err != nil {
		return err
	}
	return doc.WriteBinary(w)
}

// ReadModelText decodes a model from the text encoding. Recoverable
// decode problems are returned as warnings alongside the model.
func ReadModelText(r io.Reader) (m *Model, warn, err error) {
	return readModel(r, (&block.Decoder{}).ReadText)
}

// ReadModelBinary decodes a model from the compressed binary encoding.
func ReadModelBinary(r io.Reader) (m *Model, warn, err error) {
	return readModel(r, (&block.Decoder{}).ReadBinary)
}

// ReadAnimText decodes an animation from the text encoding.
func ReadAnimText(r io.Reader) (a *Anim, warn, err error) {
	return readAnim(r, (&block.Decoder{}).ReadText)
}

// ReadAnimBinary decodes an animation from the compressed binary encoding.
func ReadAnimBinary(r io.Reader) (a *Anim, warn, err error) {
	return readAnim(r, (&block.Decoder{}).ReadBinary)
}

type decodeFunc func(io.Reader) (*block.Document, error, error)

func readModel(r io.Reader, decode decodeFunc) (*Model, error, error) {
	doc, warn, err := decode(r)
	if err != nil {
		return nil, warn, err
	}
	m, err := DocumentToModel(doc)
	return m, warn, err
}

func readAnim(r io.Reader, decode decodeFunc) (*Anim, error, error) {
	doc, warn, err := decode(r)
	if err != nil {
		return nil, warn, err
	}
	a, err := DocumentToAnim(doc)
	return a, warn, err
}
