package block

import (
	"errors"
	"fmt"
)

var (
	// Indicates an unexpected container signature on binary input.
	ErrBadMagic = errors.New("invalid container signature")
	// Indicates a truncated container header.
	ErrTruncated = errors.New("truncated container")
)

// TagError indicates a binary tag not known by the registry. Decoding stops
// at the offending block and the document so far is kept.
type TagError struct {
	// Offset is the byte offset of the tag within the decompressed stream.
	Offset int64
	Tag    uint16
}

func (err TagError) Error() string {
	return fmt.Sprintf("unknown block ID 0x%04X at offset %d", err.Tag, err.Offset)
}

// KeywordError indicates a text keyword not known by the registry, or one
// whose token count matches no registered kind.
type KeywordError struct {
	Line    int
	Keyword string
}

func (err KeywordError) Error() string {
	return fmt.Sprintf("line %d: unknown keyword %q", err.Line, err.Keyword)
}

// LineError wraps a payload parse failure on one text line. The line is
// skipped and decoding continues.
type LineError struct {
	Line    int
	Keyword string

	Cause error
}

func (err LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", err.Line, err.Keyword, err.Cause.Error())
}

func (err LineError) Unwrap() error {
	return err.Cause
}

// ContainerError wraps a failure to read the binary container: bad magic,
// short header, or a malformed compressed payload. The decoder reports it
// as a warning and returns an empty document.
type ContainerError struct {
	Cause error
}

func (err ContainerError) Error() string {
	if err.Cause == nil {
		return "container error"
	}
	return "container error: " + err.Cause.Error()
}

func (err ContainerError) Unwrap() error {
	return err.Cause
}

// DataError wraps a failure while decoding the payload bytes of one block.
type DataError struct {
	// Offset is the byte offset where the error occurred.
	Offset int64

	Cause error
}

func (err DataError) Error() string {
	if err.Cause == nil {
		return fmt.Sprintf("data error at %d", err.Offset)
	}
	return fmt.Sprintf("data error at %d: %s", err.Offset, err.Cause.Error())
}

func (err DataError) Unwrap() error {
	return err.Cause
}
