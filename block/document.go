package block

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/anaminus/parse"
	"github.com/bkaradzic/go-lz4"
	"go.uber.org/zap"

	"github.com/xforge-tools/xport/errors"
)

// containerMagic is the signature of the binary container. It is followed
// by a little-endian uint32 holding the decompressed stream size, then the
// LZ4-compressed block stream.
const containerMagic = "*LZ4*"

// Document is an ordered sequence of blocks representing one exported
// asset. The order mirrors the file layout exactly; a document is a linear
// stream, not a random-access structure.
type Document struct {
	Blocks []Block
}

// Append adds blocks to the end of the document.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// Len returns the number of blocks in the document.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Blocks)
}

////////////////////////////////////////////////////////////////
// Encoding

// WriteText renders the document in the text encoding, one block per line
// with the format's spacer conventions. The whole output is buffered so
// nothing reaches w on error.
func (d *Document) WriteText(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	var buf strings.Builder
	blank := false
	for _, b := range d.Blocks {
		if spacerBefore(b) && !blank && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(encodeText(b))
		buf.WriteByte('\n')
		blank = false
		if spacerAfter(b) {
			buf.WriteByte('\n')
			blank = true
		}
	}
	_, err := io.WriteString(w, buf.String())
	return err
}

// WriteBinary renders the document in the binary encoding: every block
// packed in order, the stream LZ4-compressed and framed by the container
// header. The whole container is assembled in memory so a failing encode
// never produces a partial file.
func (d *Document) WriteBinary(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	var stream bytes.Buffer
	for i, b := range d.Blocks {
		raw, err := appendBinary(b)
		if err != nil {
			return fmt.Errorf("block #%d (%s): %w", i, b.Spec.Label, err)
		}
		stream.Write(raw)
	}

	var compressed []byte
	compressed, err := lz4.Encode(compressed, stream.Bytes())
	if err != nil {
		return ContainerError{Cause: err}
	}
	// lz4 prepends the decompressed length; the container carries its own.
	payload := compressed[4:]

	out := make([]byte, 0, len(containerMagic)+4+len(payload))
	out = append(out, containerMagic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(stream.Len()))
	out = append(out, payload...)
	_, err = w.Write(out)
	return err
}

////////////////////////////////////////////////////////////////
// Decoding

// DecoderStats aggregates details of the last decode, for reporting.
type DecoderStats struct {
	// BlockCount is the number of blocks decoded.
	BlockCount int

	// KeywordCounts is the number of decoded blocks per keyword.
	KeywordCounts map[string]int

	// CompressedSize and StreamSize are the container payload sizes in
	// bytes. Zero when decoding text.
	CompressedSize int
	StreamSize     int
}

func (s *DecoderStats) count(b Block) {
	if s == nil {
		return
	}
	s.BlockCount++
	if s.KeywordCounts == nil {
		s.KeywordCounts = map[string]int{}
	}
	s.KeywordCounts[b.Spec.Keyword]++
}

// Decoder decodes a stream of bytes into a Document. The zero value is
// ready to use.
type Decoder struct {
	// Logger, if set, receives diagnostics for tolerated decode
	// degradations.
	Logger *zap.Logger

	// Stats, if set, is filled with decode statistics.
	Stats *DecoderStats

	// FixNormals runs the degenerate-normal fixup on the decoded
	// document. See Document.FixNormals.
	FixNormals bool
}

func (d Decoder) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// ReadBinary decodes a binary container. Container and schema failures are
// contained: they are returned as warnings alongside the (empty or partial)
// document rather than as fatal errors, so callers must treat an incomplete
// block list as the failure signal.
func (d Decoder) ReadBinary(r io.Reader) (doc *Document, warn, err error) {
	doc = &Document{}
	if r == nil {
		return doc, nil, fmt.Errorf("nil reader")
	}

	header := make([]byte, len(containerMagic)+4)
	if _, herr := io.ReadFull(r, header); herr != nil {
		warn = ContainerError{Cause: ErrTruncated}
		d.logger().Warn("short container header", zap.Error(herr))
		return doc, warn, nil
	}
	if string(header[:len(containerMagic)]) != containerMagic {
		warn = ContainerError{Cause: ErrBadMagic}
		d.logger().Warn("bad container magic")
		return doc, warn, nil
	}
	streamSize := binary.LittleEndian.Uint32(header[len(containerMagic):])

	compressed, cerr := io.ReadAll(r)
	if cerr != nil {
		warn = ContainerError{Cause: cerr}
		d.logger().Warn("reading container payload", zap.Error(cerr))
		return doc, warn, nil
	}

	// lz4 wants the decompressed length prefixed to the compressed data.
	prefixed := make([]byte, 4+len(compressed))
	binary.LittleEndian.PutUint32(prefixed, streamSize)
	copy(prefixed[4:], compressed)

	stream := make([]byte, streamSize)
	if stream, err = lz4.Decode(stream, prefixed); err != nil {
		d.logger().Warn("decompressing container", zap.Error(err))
		return doc, ContainerError{Cause: err}, nil
	}
	if d.Stats != nil {
		d.Stats.CompressedSize = len(compressed)
		d.Stats.StreamSize = len(stream)
	}

	warns := d.decodeStream(doc, stream)
	if d.FixNormals {
		doc.FixNormals()
	}
	return doc, warns.Return(), nil
}

// decodeStream decodes the decompressed block stream. The stream carries no
// per-block length prefixes; each kind's decoder consumes exactly its own
// bytes, and the end of the buffer is the end-of-document signal.
func (d Decoder) decodeStream(doc *Document, stream []byte) errors.Errors {
	var warns errors.Errors
	fr := parse.NewBinaryReader(bytes.NewReader(stream))
	for fr.N() < int64(len(stream)) {
		start := fr.N()
		var tag uint16
		if fr.Number(&tag) {
			break
		}
		spec, ok := LookupTag(tag)
		if !ok {
			warns = warns.Append(TagError{Offset: start, Tag: tag})
			d.logger().Warn("unknown block ID; stopping decode",
				zap.Uint16("tag", tag), zap.Int64("offset", start))
			break
		}
		payload := decodeBinary(spec, fr, start)
		if err := fr.Err(); err != nil {
			warns = warns.Append(DataError{Offset: fr.N(), Cause: err})
			d.logger().Warn("block payload decode failed",
				zap.String("kind", spec.Label), zap.Error(err))
			break
		}
		b := Block{Spec: spec, Payload: payload}
		doc.Blocks = append(doc.Blocks, b)
		d.Stats.count(b)
	}
	return warns
}

// ReadText decodes the text encoding line by line. Blank lines are skipped.
// An unknown keyword stops decoding with the document so far; a malformed
// payload is reported and the line skipped.
func (d Decoder) ReadText(r io.Reader) (doc *Document, warn, err error) {
	doc = &Document{}
	if r == nil {
		return doc, nil, fmt.Errorf("nil reader")
	}

	var warns errors.Errors
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
scan:
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var spec *Spec
		var toks []token
		if strings.HasPrefix(text, "//") {
			spec = SpecComment
			toks = splitTokens(strings.TrimSpace(text[2:]))
		} else {
			all := splitTokens(text)
			keyword := all[0].Text
			toks = all[1:]
			var ok bool
			if spec, ok = LookupKeyword(keyword, len(toks)); !ok {
				warns = warns.Append(KeywordError{Line: line, Keyword: keyword})
				d.logger().Warn("unknown keyword; stopping decode",
					zap.Int("line", line), zap.String("keyword", keyword))
				break scan
			}
		}

		payload, perr := spec.decText(toks)
		if perr != nil {
			warns = warns.Append(LineError{Line: line, Keyword: spec.Keyword, Cause: perr})
			d.logger().Warn("skipping malformed line",
				zap.Int("line", line), zap.String("keyword", spec.Keyword), zap.Error(perr))
			continue
		}
		b := Block{Spec: spec, Payload: payload}
		doc.Blocks = append(doc.Blocks, b)
		d.Stats.count(b)
	}
	if serr := sc.Err(); serr != nil {
		return doc, warns.Return(), serr
	}
	if d.FixNormals {
		doc.FixNormals()
	}
	return doc, warns.Return(), nil
}

////////////////////////////////////////////////////////////////
// Post-processing

// FixNormals replaces every degenerate normal block, one whose components
// sum to exactly zero in absolute value, with the up vector (0, 0, 1). The
// pass is order-insensitive and touches each block independently, so it
// fans out across the available CPUs.
func (d *Document) FixNormals() {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(d.Blocks) {
		workers = len(d.Blocks)
	}
	if workers < 1 {
		return
	}

	var wg sync.WaitGroup
	chunk := (len(d.Blocks) + workers - 1) / workers
	for lo := 0; lo < len(d.Blocks); lo += chunk {
		hi := lo + chunk
		if hi > len(d.Blocks) {
			hi = len(d.Blocks)
		}
		wg.Add(1)
		go func(blocks []Block) {
			defer wg.Done()
			for i, b := range blocks {
				if b.Spec != SpecNormal {
					continue
				}
				v := b.Payload.(Vec3)
				if v[0]+v[1]+v[2] == 0 {
					blocks[i].Payload = Vec3{0, 0, 1}
				}
			}
		}(d.Blocks[lo:hi])
	}
	wg.Wait()
}
