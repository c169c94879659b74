package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"text": "<삼성 R&D>"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"<삼성 R&D>"}`, string(out))
}

func TestIndent(t *testing.T) {
	out, err := Indent([]byte(`{"a":[1,2],"b":"\u0026"}`), "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ],\n  \"b\": \"\\u0026\"\n}", string(out))

	raw := []byte(`not json`)
	out, err = Indent(raw, "  ")
	assert.Error(t, err)
	assert.Equal(t, raw, out)
}
