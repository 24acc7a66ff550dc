package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSymbols(t *testing.T) *SymbolTable {
	t.Helper()
	path := writeSymbolsFile(t, "0x0004 char greeting\n0x0002 instruction start\n")
	parsed, err := ParseSymbolsFile(path)
	require.NoError(t, err)
	return parsed
}

func TestEvaluateAddressAbsolute(t *testing.T) {
	addr, err := EvaluateAddress("0x0010", 0x0000, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0010), addr)
}

func TestEvaluateAddressRelativeToPC(t *testing.T) {
	symbols := newTestSymbols(t)

	addr, err := EvaluateAddress("+4", 0x0010, symbols)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0014), addr)

	addr, err = EvaluateAddress("-4", 0x0010, symbols)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x000C), addr)
}

func TestEvaluateAddressLabel(t *testing.T) {
	addr, err := EvaluateAddress("greeting", 0x0010, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0004), addr)
}

func TestEvaluateAddressLabelPlusOffset(t *testing.T) {
	addr, err := EvaluateAddress("greeting+2", 0x0010, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0006), addr)
}

func TestEvaluateAddressUnknownLabel(t *testing.T) {
	_, err := EvaluateAddress("nonexistent", 0x0010, newTestSymbols(t))
	assert.Error(t, err)
}

func TestEvaluateAddressDefaultsToPC(t *testing.T) {
	addr, err := EvaluateAddress("", 0x0123, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0123), addr)
}

func TestParseRangeWithOffsetShorthand(t *testing.T) {
	lo, hi, err := ParseRange("0x0000:+2", 0x0000, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0000), lo)
	assert.Equal(t, uint16(0x0002), hi)
}

func TestParseRangeStartAfterEndIsError(t *testing.T) {
	_, _, err := ParseRange("greeting:start", 0x0000, newTestSymbols(t))
	assert.Error(t, err)
}

func TestParseRangeDefaultsToPCPC(t *testing.T) {
	lo, hi, err := ParseRange("", 0x0050, newTestSymbols(t))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0050), lo)
	assert.Equal(t, uint16(0x0050), hi)
}

func TestParseRangeTooManyColonsIsError(t *testing.T) {
	_, _, err := ParseRange("0:1:2", 0x0000, newTestSymbols(t))
	assert.Error(t, err)
}
