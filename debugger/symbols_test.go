package debugger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSymbolsFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "symbols.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseSymbolsFileBasic(t *testing.T) {
	path := writeSymbolsFile(t, "0x0000 instruction start\n0x0004 char greeting\n")

	table, err := ParseSymbolsFile(path)
	require.NoError(t, err)

	label, ok := table.Label(0x0000)
	assert.True(t, ok)
	assert.Equal(t, "start", label)

	addr, ok := table.Address("greeting")
	assert.True(t, ok)
	assert.Equal(t, uint16(0x0004), addr)

	assert.Equal(t, TypeInstruction, table.DataTypeAt(0x0000))
	assert.Equal(t, TypeNone, table.DataTypeAt(0x0001)) // auto-suppressed second byte
	assert.Equal(t, TypeChar, table.DataTypeAt(0x0004))
}

func TestParseSymbolsFileAcceptsCommaAndTabSeparators(t *testing.T) {
	path := writeSymbolsFile(t, "0x0010,int,counter\n0x0020\tchar\tkey\n")

	table, err := ParseSymbolsFile(path)
	require.NoError(t, err)

	assert.Equal(t, TypeInt, table.DataTypeAt(0x0010))
	assert.Equal(t, TypeChar, table.DataTypeAt(0x0020))
}

func TestParseSymbolsFileSingleTokenLineSkipped(t *testing.T) {
	path := writeSymbolsFile(t, "strayword\n0x0000 int\n")

	table, err := ParseSymbolsFile(path)
	require.NoError(t, err)
	assert.Equal(t, TypeInt, table.DataTypeAt(0x0000))
}

func TestParseSymbolsFileRejectsDuplicateAddress(t *testing.T) {
	path := writeSymbolsFile(t, "0x0000 int\n0x0000 char\n")

	_, err := ParseSymbolsFile(path)
	assert.Error(t, err)
}

func TestParseSymbolsFileRejectsDuplicateLabel(t *testing.T) {
	path := writeSymbolsFile(t, "0x0000 int foo\n0x0001 int foo\n")

	_, err := ParseSymbolsFile(path)
	assert.Error(t, err)
}

func TestParseSymbolsFileRejectsOutOfRangeAddress(t *testing.T) {
	path := writeSymbolsFile(t, "0x2000 int\n")

	_, err := ParseSymbolsFile(path)
	assert.Error(t, err)
}

func TestParseSymbolsFileRejectsInvalidDataType(t *testing.T) {
	path := writeSymbolsFile(t, "0x0000 bogus\n")

	_, err := ParseSymbolsFile(path)
	assert.Error(t, err)
}

func TestParseSymbolsFileRejectsInvalidLabel(t *testing.T) {
	path := writeSymbolsFile(t, "0x0000 int 1bad\n")

	_, err := ParseSymbolsFile(path)
	assert.Error(t, err)
}

func TestNewSymbolTablePreTypesIOPort(t *testing.T) {
	table := NewSymbolTable()
	assert.Equal(t, TypeChar, table.DataTypeAt(0x1FFF))
}
