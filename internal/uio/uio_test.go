package uio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMapSize(t *testing.T) {
	cases := []struct {
		text string
		want uint32
	}{
		{"0x00010000", 0x10000},
		{"0x00010000\n", 0x10000},
		{"  0x20000 ", 0x20000},
		{"0XFFFC0000", 0xFFFC0000},
		{"0x00000004", 4},
		{"0xffffffff", 0xFFFFFFFF},
	}
	for _, c := range cases {
		got, err := parseMapSize(c.text)
		require.NoError(t, err, "input %q", c.text)
		assert.Equal(t, c.want, got, "input %q", c.text)
	}
}

func TestParseMapSizeMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"\n",
		"65536",      // missing 0x prefix
		"0x",         // prefix only
		"0xZZZZ",     // not hex
		"0x10000 kB", // trailing junk
		"0x100000000", // exceeds 32 bits
	} {
		_, err := parseMapSize(text)
		assert.Error(t, err, "input %q", text)
	}
}

func TestReadMapSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "size")
	require.NoError(t, os.WriteFile(path, []byte("0x00010000\n"), 0o644))

	size, err := ReadMapSize(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10000), size)
}

func TestReadMapSizeMissingFile(t *testing.T) {
	_, err := ReadMapSize(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}
