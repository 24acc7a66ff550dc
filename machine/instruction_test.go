package machine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeWord(t *testing.T) {
	// ST 0x1FFF: opcode 4, argument 0x1FFF -> 0x9FFF
	instr := DecodeWord(0x9FFF)
	assert.Equal(t, OpST, instr.Op)
	assert.Equal(t, uint16(0x1FFF), instr.Arg)
}

func TestInstructionEncodeRoundTrip(t *testing.T) {
	for _, i := range []Instruction{
		{Op: OpLD, Arg: 0x0004},
		{Op: OpJMP, Arg: 0x1FFF},
		{Op: OpJMZ, Arg: 0},
	} {
		assert.Equal(t, i, DecodeWord(i.Encode()))
	}
}

func TestOpcodeReadsOperand(t *testing.T) {
	assert.True(t, OpLD.ReadsOperand())
	assert.True(t, OpAND.ReadsOperand())
	assert.False(t, OpST.ReadsOperand())
	assert.False(t, OpJMP.ReadsOperand())
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "JMN", OpJMN.String())
}
