package zfp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransliterate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Paine alba", "Paine alba"},
		{"Țuică de prune", "Tuica de prune"},
		{"Brânză", "Branza"},
		{"Łódź", "Lodz"},
		{"Straße", "Strasse"},
		{"日本", "??"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Transliterate(c.in), "input %q", c.in)
	}
}

func TestParseEncoding(t *testing.T) {
	for _, s := range []string{"", "cp1250", "Windows-1250", "win1250"} {
		enc, err := ParseEncoding(s)
		require.NoError(t, err, "input %q", s)
		assert.Equal(t, EncCP1250, enc)
	}
	enc, err := ParseEncoding("iso-8859-2")
	require.NoError(t, err)
	assert.Equal(t, EncISO88592, enc)

	enc, err = ParseEncoding("ascii")
	require.NoError(t, err)
	assert.Equal(t, EncASCII, enc)

	_, err = ParseEncoding("utf-16")
	assert.Error(t, err)
}

func TestEncodeText(t *testing.T) {
	out, err := encodeText(EncASCII, "Țuică")
	require.NoError(t, err)
	assert.Equal(t, []byte("Tuica"), out)

	out, err = encodeText(EncCP1250, "ab")
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), out)

	// ş is 0xBA in Windows-1250.
	out, err = encodeText(EncCP1250, "ş")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xBA}, out)
}
