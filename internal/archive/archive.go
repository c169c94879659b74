// Package archive extracts the single entry of a provider-supplied ZIP
// container. It reads the first local file header only; it is not a general
// unzip.
package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	localHeaderSignature = 0x04034b50
	localHeaderSize      = 30

	// flagDataDescriptor marks sizes written after the payload instead of
	// in the local header.
	flagDataDescriptor = 0x0008
)

// Method is the compression method recorded in the local file header.
type Method uint16

const (
	MethodStored  Method = 0
	MethodDeflate Method = 8
)

func (m Method) String() string {
	switch m {
	case MethodStored:
		return "stored"
	case MethodDeflate:
		return "deflate"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(m))
	}
}

// FormatError reports a container that cannot be read.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "archive: invalid container: " + e.Reason
}

func formatErrorf(format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// LocalHeader holds the fields of the first local file header that matter
// for extraction.
type LocalHeader struct {
	Flags          uint16
	Method         Method
	CompressedSize uint32
	NameLength     uint16
	ExtraLength    uint16
}

// DataOffset is where the entry payload starts.
func (h LocalHeader) DataOffset() int {
	return localHeaderSize + int(h.NameLength) + int(h.ExtraLength)
}

// headerReader reads little-endian fields at fixed offsets with bounds checks.
type headerReader struct {
	buf []byte
}

func (r headerReader) u16(off int) (uint16, error) {
	if off < 0 || off+2 > len(r.buf) {
		return 0, formatErrorf("truncated header at offset %d", off)
	}
	return binary.LittleEndian.Uint16(r.buf[off:]), nil
}

func (r headerReader) u32(off int) (uint32, error) {
	if off < 0 || off+4 > len(r.buf) {
		return 0, formatErrorf("truncated header at offset %d", off)
	}
	return binary.LittleEndian.Uint32(r.buf[off:]), nil
}

// ReadLocalHeader parses the local file header at offset 0.
func ReadLocalHeader(raw []byte) (LocalHeader, error) {
	if len(raw) < localHeaderSize {
		return LocalHeader{}, formatErrorf("%d bytes is shorter than a local file header", len(raw))
	}
	r := headerReader{buf: raw}
	sig, err := r.u32(0)
	if err != nil {
		return LocalHeader{}, err
	}
	if sig != localHeaderSignature {
		return LocalHeader{}, formatErrorf("bad signature 0x%08x", sig)
	}
	flags, err := r.u16(6)
	if err != nil {
		return LocalHeader{}, err
	}
	method, err := r.u16(8)
	if err != nil {
		return LocalHeader{}, err
	}
	size, err := r.u32(18)
	if err != nil {
		return LocalHeader{}, err
	}
	nameLen, err := r.u16(26)
	if err != nil {
		return LocalHeader{}, err
	}
	extraLen, err := r.u16(28)
	if err != nil {
		return LocalHeader{}, err
	}
	h := LocalHeader{
		Flags:          flags,
		Method:         Method(method),
		CompressedSize: size,
		NameLength:     nameLen,
		ExtraLength:    extraLen,
	}
	if h.DataOffset() > len(raw) {
		return LocalHeader{}, formatErrorf("payload offset %d beyond %d bytes", h.DataOffset(), len(raw))
	}
	return h, nil
}

// Extract returns the decompressed bytes of the first entry in raw.
func Extract(raw []byte) ([]byte, error) {
	h, err := ReadLocalHeader(raw)
	if err != nil {
		return nil, err
	}
	start := h.DataOffset()
	switch h.Method {
	case MethodStored:
		if h.CompressedSize == 0 && h.Flags&flagDataDescriptor != 0 {
			return nil, formatErrorf("stored entry has no size in its local header")
		}
		end := start + int(h.CompressedSize)
		if end > len(raw) {
			return nil, formatErrorf("stored entry of %d bytes exceeds container", h.CompressedSize)
		}
		return raw[start:end], nil
	case MethodDeflate:
		// A zero size means the entry was streamed with a trailing data
		// descriptor; the deflate stream terminates itself.
		payload := raw[start:]
		if h.CompressedSize > 0 {
			end := start + int(h.CompressedSize)
			if end > len(raw) {
				return nil, formatErrorf("deflated entry of %d bytes exceeds container", h.CompressedSize)
			}
			payload = raw[start:end]
		}
		return inflate(payload)
	default:
		return nil, formatErrorf("unsupported compression method %s", h.Method)
	}
}

func inflate(payload []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(payload))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, formatErrorf("inflate: %v", err)
	}
	return out, nil
}
