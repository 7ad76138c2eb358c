// The xport-conv command converts model and animation files between the
// text and binary encodings.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/xforge-tools/xport"
	"github.com/xforge-tools/xport/block"
	"github.com/xforge-tools/xport/config"
	"github.com/xforge-tools/xport/logger"
)

const usage = `usage: xport-conv [flags] [INPUT] [OUTPUT]

Reads a model or animation file from INPUT, in either encoding, and rewrites
it to OUTPUT. By default the output encoding is the opposite of the input;
-text or -binary force one. With -siege, a model file is rewritten in the
streamed-skeleton layout.

INPUT and OUTPUT are paths to files. If INPUT is "-" or unspecified, then stdin
is used. If OUTPUT is "-" or unspecified, then stdout is used. Warnings and
errors are written to stderr.
`

func main() {
	var input io.Reader = os.Stdin
	var output io.Writer = os.Stdout

	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	defer log.Sync()

	args := flag.Args()
	if len(args) >= 1 && args[0] != "-" {
		in, err := os.Open(args[0])
		if err != nil {
			log.Error("open input", zap.Error(err))
			return
		}
		input = in
		defer in.Close()
	}
	if len(args) >= 2 && args[1] != "-" {
		out, err := os.Create(args[1])
		if err != nil {
			log.Error("create output", zap.Error(err))
			return
		}
		defer out.Close()
		output = out
	}

	dec := block.Decoder{Logger: log, FixNormals: cfg.Export.FixNormals}
	br := bufio.NewReader(input)
	magic, _ := br.Peek(5)
	fromBinary := string(magic) == "*LZ4*"

	var doc *block.Document
	var warn error
	if fromBinary {
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

	if cfg.Export.Siege {
		m, derr := xport.DocumentToModel(doc)
		if derr != nil {
			log.Error("siege conversion needs a model document", zap.Error(derr))
			return
		}
		doc, err = xport.BuildDocumentFromModel(m, xport.ExportOptions{Siege: true})
		if err != nil {
			log.Error("siege conversion", zap.Error(err))
			return
		}
	}

	toBinary := !fromBinary
	switch {
	case config.FlagSet("binary"):
		toBinary = true
	case config.FlagSet("text"):
		toBinary = false
	case cfg.Export.Binary:
		toBinary = true
	}

	if toBinary {
		err = doc.WriteBinary(output)
	} else {
		err = doc.WriteText(output)
	}
	if err != nil {
		log.Error("encode", zap.Error(err))
	}
}
