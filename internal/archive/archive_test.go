package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildContainer writes a single local file header followed by payload.
func buildContainer(t *testing.T, method uint16, size uint32, name, extra, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	hdr := make([]byte, localHeaderSize)
	binary.LittleEndian.PutUint32(hdr[0:], localHeaderSignature)
	binary.LittleEndian.PutUint16(hdr[4:], 20)
	binary.LittleEndian.PutUint16(hdr[8:], method)
	binary.LittleEndian.PutUint32(hdr[18:], size)
	binary.LittleEndian.PutUint32(hdr[22:], size)
	binary.LittleEndian.PutUint16(hdr[26:], uint16(len(name)))
	binary.LittleEndian.PutUint16(hdr[28:], uint16(len(extra)))
	buf.Write(hdr)
	buf.Write(name)
	buf.Write(extra)
	buf.Write(payload)
	return buf.Bytes()
}

func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractStored(t *testing.T) {
	want := []byte("<result><list><corp_code>00000001</corp_code></list></result>")
	raw := buildContainer(t, 0, uint32(len(want)), []byte("CORPCODE.xml"), []byte{1, 2, 3}, want)
	// Trailing central directory bytes must be ignored.
	raw = append(raw, []byte("PK\x01\x02trailer")...)

	got, err := Extract(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExtractDeflate(t *testing.T) {
	want := bytes.Repeat([]byte("삼성전자 00126380 005930\n"), 200)
	compressed := deflateBytes(t, want)

	t.Run("with size", func(t *testing.T) {
		raw := buildContainer(t, 8, uint32(len(compressed)), []byte("CORPCODE.xml"), nil, compressed)
		got, err := Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("streamed without size", func(t *testing.T) {
		raw := buildContainer(t, 8, 0, []byte("CORPCODE.xml"), nil, compressed)
		raw = append(raw, []byte("PK\x07\x08descriptor")...)
		got, err := Extract(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestExtractRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":                     nil,
		"short":                     []byte("PK\x03\x04"),
		"bad signature":             bytes.Repeat([]byte{0}, 64),
		"unsupported method":        buildContainer(t, 12, 3, []byte("a"), nil, []byte("abc")),
		"stored size beyond buffer": buildContainer(t, 0, 100, []byte("a"), nil, []byte("abc")),
		"name beyond buffer": func() []byte {
			raw := buildContainer(t, 0, 0, nil, nil, nil)
			binary.LittleEndian.PutUint16(raw[26:], 500)
			return raw
		}(),
		"corrupt deflate": buildContainer(t, 8, 4, []byte("a"), nil, []byte{0xff, 0xff, 0xff, 0xff}),
		"stored with data descriptor": func() []byte {
			raw := buildContainer(t, 0, 0, []byte("a"), nil, []byte("abc"))
			binary.LittleEndian.PutUint16(raw[6:], flagDataDescriptor)
			return raw
		}(),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Extract(raw)
			require.Error(t, err)
			var fe *FormatError
			assert.True(t, errors.As(err, &fe), "expected FormatError, got %T", err)
		})
	}
}

func TestUnsupportedMethodNamesMethod(t *testing.T) {
	raw := buildContainer(t, 12, 3, []byte("a"), nil, []byte("abc"))
	_, err := Extract(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown(12)")
}

func TestExtractStoredStreamedEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "CORPCODE.xml", Method: zip.Store})
	require.NoError(t, err)
	_, err = w.Write([]byte("<result><list><corp_code>00126380</corp_code></list></result>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	h, err := ReadLocalHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, MethodStored, h.Method)
	assert.NotZero(t, h.Flags&flagDataDescriptor)

	_, err = Extract(buf.Bytes())
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "no size")
}

func TestExtractEmptyStoredEntry(t *testing.T) {
	got, err := Extract(buildContainer(t, 0, 0, []byte("a"), nil, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}
