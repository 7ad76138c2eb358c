// The xport-stat command displays stats for a model or animation file.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/xforge-tools/xport/block"
	"github.com/xforge-tools/xport/logger"
)

const usage = `usage: xport-stat [flags] [INPUT] [OUTPUT]

Reads a model or animation file from INPUT, in either encoding, and writes
statistics for the file to OUTPUT as JSON.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.

Flags:
  -v	dump every decoded block to stderr
`

type Stats struct {
	// Decoder counters.
	Format block.DecoderStats

	// First VERSION block of the stream, or -1.
	Version int

	// Selected count blocks, when present.
	Bones     int `json:",omitempty"`
	Cosmetics int `json:",omitempty"`
	Verts     int `json:",omitempty"`
	Faces     int `json:",omitempty"`
	Objects   int `json:",omitempty"`
	Materials int `json:",omitempty"`
	Parts     int `json:",omitempty"`
	Frames    int `json:",omitempty"`

	// Digest of the text rendering of the block stream. Identical for a
	// file regardless of which encoding it was read from.
	Digest string
}

func (s *Stats) Fill(doc *block.Document) error {
	s.Version = -1
	for _, b := range doc.Blocks {
		switch b.Spec {
		case block.SpecVersion:
			if s.Version < 0 {
				s.Version = b.Int()
			}
		case block.SpecBoneCount:
			s.Bones = b.Int()
		case block.SpecCosmeticCount:
			s.Cosmetics = b.Int()
		case block.SpecVertCount, block.SpecVertCount32:
			s.Verts = b.Int()
		case block.SpecFaceCount:
			s.Faces = b.Int()
		case block.SpecObjectCount:
			s.Objects = b.Int()
		case block.SpecMaterialCount:
			s.Materials = b.Int()
		case block.SpecPartCount:
			s.Parts = b.Int()
		case block.SpecFrameCount:
			s.Frames = b.Int()
		}
	}

	var buf bytes.Buffer
	if err := doc.WriteText(&buf); err != nil {
		return fmt.Errorf("render stream: %w", err)
	}
	sum := blake2b.Sum256(buf.Bytes())
	s.Digest = fmt.Sprintf("%x", sum)
	return nil
}

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	verbose := flag.Bool("v", false, "dump every decoded block")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("open input: %w", err))
			return
		}
		input = in
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("create output: %w", err))
			return
		}
		defer out.Close()
		output = out
	}

	log := logger.New("info", "")
	defer log.Sync()

	stats := Stats{}
	dec := block.Decoder{Logger: log, Stats: &stats.Format}

	br := bufio.NewReader(input)
	magic, _ := br.Peek(5)
	var doc *block.Document
	var warn, err error
	if string(magic) == "*LZ4*" {
		doc, warn, err = dec.ReadBinary(br)
	} else {
		doc, warn, err = dec.ReadText(br)
	}
	if warn != nil {
		log.Warn("decode", zap.Error(warn))
	}
	if err != nil {
		log.Error("decode", zap.Error(err))
		return
	}

	if *verbose {
		spew.Fdump(os.Stderr, doc.Blocks)
	}

	if err := stats.Fill(doc); err != nil {
		log.Error("stats", zap.Error(err))
		return
	}

	je := json.NewEncoder(output)
	je.SetIndent("", "\t")
	if err := je.Encode(&stats); err != nil {
		log.Error("encode stats", zap.Error(err))
	}
}
