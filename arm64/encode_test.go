package arm64_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Urethramancer/bfopt/arm64"
)

// These tests exercise spec.md §8 property 5: decoding each encoder's
// output with an independent disassembler yields the mnemonic and
// operands supplied to the encoder.

func TestAddSubImmRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeAddImm(0, 1, 42))
	require.Equal(t, "ADD", d.Mnemonic)
	require.Equal(t, 0, d.Rd)
	require.Equal(t, 1, d.Rn)
	require.Equal(t, int32(42), d.Imm)

	d = arm64.Disassemble(arm64.EncodeSubImm(2, 3, 4095))
	require.Equal(t, "SUB", d.Mnemonic)
	require.Equal(t, 2, d.Rd)
	require.Equal(t, 3, d.Rn)
	require.Equal(t, int32(4095), d.Imm)
}

func TestMovzMovkRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeMovz(9, 0xBEEF))
	require.Equal(t, "MOVZ", d.Mnemonic)
	require.Equal(t, 9, d.Rd)
	require.Equal(t, int32(0xBEEF), d.Imm)
	require.Equal(t, 0, d.Shift)

	d = arm64.Disassemble(arm64.EncodeMovk(9, 0xDEAD, 16))
	require.Equal(t, "MOVK", d.Mnemonic)
	require.Equal(t, 9, d.Rd)
	require.Equal(t, int32(0xDEAD), d.Imm)
	require.Equal(t, 16, d.Shift)
}

func TestMovRegRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeMovReg(1, arm64.XZR))
	require.Equal(t, "MOV", d.Mnemonic)
	require.Equal(t, 1, d.Rd)
	require.Equal(t, arm64.XZR, d.Rn)
}

func TestAddRegRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeAddReg(2, 2, 1))
	require.Equal(t, "ADD_REG", d.Mnemonic)
	require.Equal(t, 2, d.Rd)
	require.Equal(t, 2, d.Rn)
	require.Equal(t, 1, d.Rm)
}

func TestLdrbStrbZeroOffsetRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeLdrb(1, 0))
	require.Equal(t, "LDRB", d.Mnemonic)
	require.Equal(t, 1, d.Rt)
	require.Equal(t, 0, d.Rn)
	require.Equal(t, int32(0), d.Imm)

	d = arm64.Disassemble(arm64.EncodeStrb(1, 0))
	require.Equal(t, "STRB", d.Mnemonic)
	require.Equal(t, 1, d.Rt)
	require.Equal(t, 0, d.Rn)
	require.Equal(t, int32(0), d.Imm)
}

func TestStrbOffsetRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeStrbOffset(2, 3, 17))
	require.Equal(t, "STRB", d.Mnemonic)
	require.Equal(t, 2, d.Rt)
	require.Equal(t, 3, d.Rn)
	require.Equal(t, int32(17), d.Imm)
}

func TestCbzCbnzRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeCbz(0, 32))
	require.Equal(t, "CBZ", d.Mnemonic)
	require.Equal(t, 0, d.Rt)
	require.Equal(t, int32(32), d.Offset)

	d = arm64.Disassemble(arm64.EncodeCbnz(2, -16))
	require.Equal(t, "CBNZ", d.Mnemonic)
	require.Equal(t, 2, d.Rt)
	require.Equal(t, int32(-16), d.Offset)
}

func TestBRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeB(-64))
	require.Equal(t, "B", d.Mnemonic)
	require.Equal(t, int32(-64), d.Offset)
}

func TestSvcRetRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeSvc(0))
	require.Equal(t, "SVC", d.Mnemonic)
	require.Equal(t, int32(0), d.Imm)

	d = arm64.Disassemble(arm64.EncodeRet())
	require.Equal(t, "RET", d.Mnemonic)
}

func TestSturLdurRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeStur(0, 1, -8))
	require.Equal(t, "STUR", d.Mnemonic)
	require.Equal(t, 0, d.Rt)
	require.Equal(t, 1, d.Rn)
	require.Equal(t, int32(-8), d.Imm)

	d = arm64.Disassemble(arm64.EncodeLdur(2, 3, 255))
	require.Equal(t, "LDUR", d.Mnemonic)
	require.Equal(t, 2, d.Rt)
	require.Equal(t, 3, d.Rn)
	require.Equal(t, int32(255), d.Imm)
}

func TestStpLdpRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeStp(29, 30, 31, -16))
	require.Equal(t, "STP", d.Mnemonic)
	require.Equal(t, 29, d.Rt)
	require.Equal(t, 30, d.Rt2)
	require.Equal(t, 31, d.Rn)
	require.Equal(t, int32(-16), d.Imm)

	d = arm64.Disassemble(arm64.EncodeLdp(29, 30, 31, 16))
	require.Equal(t, "LDP", d.Mnemonic)
	require.Equal(t, 29, d.Rt)
	require.Equal(t, 30, d.Rt2)
	require.Equal(t, 31, d.Rn)
	require.Equal(t, int32(16), d.Imm)
}

func TestStpPreLdpPostRoundtrip(t *testing.T) {
	d := arm64.Disassemble(arm64.EncodeStpPre(29, 30, 31, -16))
	require.Equal(t, "STP_PRE", d.Mnemonic)
	require.Equal(t, 29, d.Rt)
	require.Equal(t, 30, d.Rt2)
	require.Equal(t, 31, d.Rn)
	require.Equal(t, int32(-16), d.Imm)

	d = arm64.Disassemble(arm64.EncodeLdpPost(29, 30, 31, 16))
	require.Equal(t, "LDP_POST", d.Mnemonic)
	require.Equal(t, 29, d.Rt)
	require.Equal(t, 30, d.Rt2)
	require.Equal(t, 31, d.Rn)
	require.Equal(t, int32(16), d.Imm)
}

func TestIsConditionalBranch(t *testing.T) {
	require.True(t, arm64.IsConditionalBranch(arm64.EncodeCbz(0, 16)))
	require.True(t, arm64.IsConditionalBranch(arm64.EncodeCbnz(0, 16)))
	require.False(t, arm64.IsConditionalBranch(arm64.EncodeB(16)))
}
