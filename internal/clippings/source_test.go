package clippings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleClipping = "Churchill (Roberts, Andrew)\n" +
	"- Your Highlight on page 285 | Location 6982-6984 | Added on Sunday, November 10, 2024 11:21:35 AM\n" +
	"\n" +
	"Churchill asked him to sit down.\n" +
	"==========\n"

func TestDecode_StripsUTF8BOM(t *testing.T) {
	text, err := Decode(strings.NewReader("\xef\xbb\xbf"+sampleClipping), 0)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "Churchill"))
}

func TestDecode_UTF16LittleEndian(t *testing.T) {
	var raw []byte
	raw = append(raw, 0xFF, 0xFE)
	for _, r := range sampleClipping {
		raw = append(raw, byte(r), 0x00)
	}

	text, err := Decode(strings.NewReader(string(raw)), 0)
	require.NoError(t, err)
	assert.Equal(t, sampleClipping, text)

	result := Parse(text)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Churchill", result.Entries[0].BookTitle)
}

func TestDecode_SizeLimit(t *testing.T) {
	_, err := Decode(strings.NewReader(sampleClipping), 10)
	assert.Error(t, err)

	text, err := Decode(strings.NewReader(sampleClipping), int64(len(sampleClipping)))
	require.NoError(t, err)
	assert.Equal(t, sampleClipping, text)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Clippings.txt")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbf"+sampleClipping), 0644))

	text, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleClipping, text)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
