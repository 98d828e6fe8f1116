// Package arm64 provides pure, stateless functions that each encode one
// 32-bit AArch64 instruction word for the fixed subset spec.md §4.3
// requires, plus a small disassembler for the same subset used to verify
// the encoder round-trips (spec.md §8 property 5). Callers are responsible
// for pre-checking immediate ranges; encoding never validates beyond the
// masking the ISA itself applies.
package arm64

// XZR is the zero register, used as the source for SetZero stores and as
// Xn in the register-form MOV encoding.
const XZR = 31

// EncodeAddImm encodes `ADD Xd, Xn, #imm` (64-bit, imm is a 12-bit
// unsigned immediate).
func EncodeAddImm(rd, rn, imm int) uint32 {
	return (1 << 31) | // 64-bit
		(0 << 30) | // ADD
		(0 << 29) | // no flags
		(0x11 << 24) |
		(uint32(imm&0xFFF) << 10) |
		(uint32(rn) << 5) |
		uint32(rd)
}

// EncodeSubImm encodes `SUB Xd, Xn, #imm` (64-bit).
func EncodeSubImm(rd, rn, imm int) uint32 {
	return (1 << 31) |
		(1 << 30) | // SUB
		(0 << 29) |
		(0x11 << 24) |
		(uint32(imm&0xFFF) << 10) |
		(uint32(rn) << 5) |
		uint32(rd)
}

// EncodeMovz encodes `MOVZ Xd, #imm16` with no shift.
func EncodeMovz(rd int, imm uint16) uint32 {
	return (1 << 31) |
		(0x2 << 29) |
		(0x25 << 23) |
		(0 << 21) |
		(uint32(imm) << 5) |
		uint32(rd)
}

// EncodeMovk encodes `MOVK Xd, #imm16, LSL #shift` for shift in {0,16,32,48}.
func EncodeMovk(rd int, imm uint16, shift int) uint32 {
	return (1 << 31) |
		(0x3 << 29) |
		(0x25 << 23) |
		(uint32(shift/16) << 21) |
		(uint32(imm) << 5) |
		uint32(rd)
}

// EncodeMovReg encodes `MOV Xd, Xn` as `ORR Xd, XZR, Xn`.
func EncodeMovReg(rd, rn int) uint32 {
	return (1 << 31) | 0x2A0003E0 | (uint32(rn) << 16) | uint32(rd)
}

// EncodeAddReg encodes `ADD Xd, Xn, Xm` (64-bit, shifted register, no
// shift applied). This register-form ADD is what AddMul lowering must use
// in place of the reference's immediate-form ADD that silently truncates
// its register operand into a 12-bit constant — see DESIGN.md.
func EncodeAddReg(rd, rn, rm int) uint32 {
	return (1 << 31) |
		(0x0B << 24) |
		(uint32(rm) << 16) |
		(uint32(rn) << 5) |
		uint32(rd)
}

// EncodeLdrb encodes `LDRB Wt, [Xn]` with zero offset.
func EncodeLdrb(rt, rn int) uint32 {
	return (0x00 << 30) |
		(0x7 << 27) |
		(0x1 << 22) | // load
		(0 << 10) | // zero offset
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeStrb encodes `STRB Wt, [Xn]` with zero offset.
func EncodeStrb(rt, rn int) uint32 {
	return (0x00 << 30) |
		(0x7 << 27) |
		(0x0 << 22) | // store
		(0 << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeStrbOffset encodes `STRB Wt, [Xn, #imm]` with a 12-bit unsigned
// offset (the unsigned-offset addressing mode).
func EncodeStrbOffset(rt, rn, offset int) uint32 {
	return (0x00 << 30) |
		(0x7 << 27) |
		(0x0 << 22) |
		(uint32(offset&0xFFF) << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeCbz encodes `CBZ Xt, label` with offset given as a signed byte
// distance from the instruction (divided by 4 and sign-masked to 19 bits).
// The placeholder offset 0 is used for forward references patched later.
func EncodeCbz(rt int, offset int32) uint32 {
	imm19 := (offset / 4) & 0x7FFFF
	return (1 << 31) |
		(0xB4 << 24) |
		(uint32(imm19) << 5) |
		uint32(rt)
}

// EncodeCbnz encodes `CBNZ Xt, label`, symmetric with EncodeCbz.
func EncodeCbnz(rt int, offset int32) uint32 {
	imm19 := (offset / 4) & 0x7FFFF
	return (1 << 31) |
		(0xB5 << 24) |
		(uint32(imm19) << 5) |
		uint32(rt)
}

// EncodeB encodes an unconditional `B label` with a 26-bit signed,
// word-granular offset.
func EncodeB(offset int32) uint32 {
	imm26 := (offset / 4) & 0x3FFFFFF
	return (0x5 << 26) | uint32(imm26)
}

// EncodeSvc encodes `SVC #imm16`.
func EncodeSvc(imm uint16) uint32 {
	return (0xD4 << 24) | (uint32(imm) << 5) | 0x1
}

// EncodeRet encodes the fixed `RET` instruction (X30 as the link register).
func EncodeRet() uint32 {
	return 0xD65F03C0
}

// EncodeStur encodes `STUR Xt, [Xn, #imm9]` (unscaled signed offset).
func EncodeStur(rt, rn, offset int) uint32 {
	return (0x3 << 30) |
		(0x7 << 27) |
		(0x0 << 22) |
		(uint32(offset&0x1FF) << 12) |
		(0x2 << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeLdur encodes `LDUR Xt, [Xn, #imm9]` (unscaled signed offset).
func EncodeLdur(rt, rn, offset int) uint32 {
	return (0x3 << 30) |
		(0x7 << 27) |
		(0x1 << 22) |
		(uint32(offset&0x1FF) << 12) |
		(0x2 << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeStp encodes `STP Xt, Xt2, [Xn, #imm]` (signed offset, imm a
// multiple of 8 packed into a 7-bit field).
func EncodeStp(rt, rt2, rn, imm int) uint32 {
	imm7 := (imm / 8) & 0x7F
	return (2 << 30) |
		(0xA4 << 22) |
		(uint32(imm7) << 15) |
		(uint32(rt2) << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeLdp encodes `LDP Xt, Xt2, [Xn, #imm]` (signed offset).
func EncodeLdp(rt, rt2, rn, imm int) uint32 {
	imm7 := (imm / 8) & 0x7F
	return (2 << 30) |
		(0xA5 << 22) |
		(uint32(imm7) << 15) |
		(uint32(rt2) << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeStpPre encodes the pre-indexed `STP Xt, Xt2, [Xn, #imm]!`. The op2
// (pre-indexed, 11) and L (store, 0) fields are folded into the 0xA6 prefix
// byte rather than OR'd in separately at bit 21, which would overlap imm7's
// top bit (bit 21), set for every negative offset.
func EncodeStpPre(rt, rt2, rn, imm int) uint32 {
	imm7 := (imm / 8) & 0x7F
	return (2 << 30) |
		(0xA6 << 22) |
		(uint32(imm7) << 15) |
		(uint32(rt2) << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// EncodeLdpPost encodes the post-indexed `LDP Xt, Xt2, [Xn], #imm`, with
// op2 (post-indexed, 01) and L (load, 1) folded into the 0xA3 prefix byte
// for the same reason as EncodeStpPre.
func EncodeLdpPost(rt, rt2, rn, imm int) uint32 {
	imm7 := (imm / 8) & 0x7F
	return (2 << 30) |
		(0xA3 << 22) |
		(uint32(imm7) << 15) |
		(uint32(rt2) << 10) |
		(uint32(rn) << 5) |
		uint32(rt)
}

// IsConditionalBranch reports whether word is a CBZ/CBNZ word rather than
// a plain B, by checking the sf bit that also happens to be the 64-bit
// marker for our emitted branches. Used by the patcher to pick between the
// 19-bit and 26-bit offset field.
func IsConditionalBranch(word uint32) bool {
	return word&(1<<31) != 0
}
