package arm64

import "fmt"

// Decoded is one disassembled instruction from the subset this package
// encodes. Fields not used by a given mnemonic are left at zero.
type Decoded struct {
	Mnemonic string
	Rd, Rn   int
	Rm       int
	Rt, Rt2  int
	Imm      int32
	Shift    int
	Offset   int32 // byte distance for branches
}

// String renders a Decoded the way an AArch64 disassembler would, purely
// for diagnostics and test failure messages.
func (d Decoded) String() string {
	switch d.Mnemonic {
	case "RET", "NOP":
		return d.Mnemonic
	case "SVC":
		return fmt.Sprintf("%s #%d", d.Mnemonic, d.Imm)
	case "MOV":
		return fmt.Sprintf("MOV X%d, X%d", d.Rd, d.Rn)
	case "MOVZ", "MOVK":
		if d.Shift != 0 {
			return fmt.Sprintf("%s X%d, #%d, LSL #%d", d.Mnemonic, d.Rd, d.Imm, d.Shift)
		}
		return fmt.Sprintf("%s X%d, #%d", d.Mnemonic, d.Rd, d.Imm)
	case "ADD", "SUB":
		return fmt.Sprintf("%s X%d, X%d, #%d", d.Mnemonic, d.Rd, d.Rn, d.Imm)
	case "ADD_REG":
		return fmt.Sprintf("ADD X%d, X%d, X%d", d.Rd, d.Rn, d.Rm)
	case "LDRB", "STRB":
		if d.Imm != 0 {
			return fmt.Sprintf("%s W%d, [X%d, #%d]", d.Mnemonic, d.Rt, d.Rn, d.Imm)
		}
		return fmt.Sprintf("%s W%d, [X%d]", d.Mnemonic, d.Rt, d.Rn)
	case "STUR", "LDUR":
		return fmt.Sprintf("%s X%d, [X%d, #%d]", d.Mnemonic, d.Rt, d.Rn, d.Imm)
	case "STP", "LDP", "STP_PRE", "LDP_POST":
		return fmt.Sprintf("%s X%d, X%d, [X%d, #%d]", d.Mnemonic, d.Rt, d.Rt2, d.Rn, d.Imm)
	case "CBZ", "CBNZ":
		return fmt.Sprintf("%s X%d, #%d", d.Mnemonic, d.Rt, d.Offset)
	case "B":
		return fmt.Sprintf("B #%d", d.Offset)
	default:
		return fmt.Sprintf("UNKNOWN(%#08x)", uint32(d.Imm))
	}
}

func signExtend(v uint32, bits int) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Disassemble decodes one 32-bit AArch64 word from the subset this package
// encodes. It returns ("UNKNOWN", word) for anything outside that subset.
func Disassemble(word uint32) Decoded {
	switch {
	case word == 0xD65F03C0:
		return Decoded{Mnemonic: "RET"}

	case word&0xFF000000 == 0xD4000000:
		imm := (word >> 5) & 0xFFFF
		return Decoded{Mnemonic: "SVC", Imm: int32(imm)}

	case word&0xFC000000 == 0x14000000:
		imm26 := word & 0x3FFFFFF
		return Decoded{Mnemonic: "B", Offset: signExtend(imm26, 26) * 4}

	case word&0xFF000000 == 0xB4000000:
		imm19 := (word >> 5) & 0x7FFFF
		return Decoded{Mnemonic: "CBZ", Rt: int(word & 0x1F), Offset: signExtend(imm19, 19) * 4}

	case word&0xFF000000 == 0xB5000000:
		imm19 := (word >> 5) & 0x7FFFF
		return Decoded{Mnemonic: "CBNZ", Rt: int(word & 0x1F), Offset: signExtend(imm19, 19) * 4}

	case word&0x7F800000 == 0x52800000:
		imm16 := (word >> 5) & 0xFFFF
		shift := int((word>>21)&0x3) * 16
		return Decoded{Mnemonic: "MOVZ", Rd: int(word & 0x1F), Imm: int32(imm16), Shift: shift}

	case word&0x7F800000 == 0x72800000:
		imm16 := (word >> 5) & 0xFFFF
		shift := int((word>>21)&0x3) * 16
		return Decoded{Mnemonic: "MOVK", Rd: int(word & 0x1F), Imm: int32(imm16), Shift: shift}

	case word&0xFFE0FFE0 == 0xAA0003E0:
		return Decoded{Mnemonic: "MOV", Rd: int(word & 0x1F), Rn: int((word >> 16) & 0x1F)}

	case word&0xFFC00000 == 0x91000000:
		imm := (word >> 10) & 0xFFF
		return Decoded{Mnemonic: "ADD", Rd: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: int32(imm)}

	case word&0xFFC00000 == 0xD1000000:
		imm := (word >> 10) & 0xFFF
		return Decoded{Mnemonic: "SUB", Rd: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: int32(imm)}

	case word&0xFFE00000 == 0x8B000000:
		return Decoded{Mnemonic: "ADD_REG", Rd: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Rm: int((word >> 16) & 0x1F)}

	case word&0xFFC00000 == 0x38400000:
		imm := (word >> 10) & 0xFFF
		return Decoded{Mnemonic: "LDRB", Rt: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: int32(imm)}

	case word&0xFFC00000 == 0x38000000:
		imm := (word >> 10) & 0xFFF
		return Decoded{Mnemonic: "STRB", Rt: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: int32(imm)}

	case word&0xFFE00C00 == 0xF8000800:
		imm9 := (word >> 12) & 0x1FF
		return Decoded{Mnemonic: "STUR", Rt: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: signExtend(imm9, 9)}

	case word&0xFFE00C00 == 0xF8400800:
		imm9 := (word >> 12) & 0x1FF
		return Decoded{Mnemonic: "LDUR", Rt: int(word & 0x1F), Rn: int((word >> 5) & 0x1F), Imm: signExtend(imm9, 9)}

	case word&0xFFC00000 == 0xA9000000:
		return decodePair("STP", word)
	case word&0xFFC00000 == 0xA9400000:
		return decodePair("LDP", word)
	case word&0xFFC00000 == 0xA9800000:
		return decodePair("STP_PRE", word)
	case word&0xFFC00000 == 0xA8C00000:
		return decodePair("LDP_POST", word)
	}

	return Decoded{Mnemonic: "UNKNOWN", Imm: int32(word)}
}

func decodePair(mnemonic string, word uint32) Decoded {
	imm7 := (word >> 15) & 0x7F
	return Decoded{
		Mnemonic: mnemonic,
		Rt:       int(word & 0x1F),
		Rt2:      int((word >> 10) & 0x1F),
		Rn:       int((word >> 5) & 0x1F),
		Imm:      signExtend(imm7, 7) * 8,
	}
}
