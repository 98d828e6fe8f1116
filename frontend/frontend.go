// Package frontend turns raw source bytes into IR: character filtering,
// bracket-matched tokenization, and the trivial token-to-op mapping. These
// are the external collaborators spec.md treats as out of scope for the
// mid-end's correctness obligations, but a runnable pipeline needs them.
package frontend

import (
	"fmt"

	"github.com/Urethramancer/bfopt/ir"
)

// maxNestedLoops matches the tokenizer's fixed bracket-depth stack; deeper
// nesting is a Syntax error rather than an unbounded allocation.
const maxNestedLoops = 256

// TokenType is the recognized character class.
type TokenType int

const (
	TokPtrInc TokenType = iota
	TokPtrDec
	TokValInc
	TokValDec
	TokOutput
	TokInput
	TokLoopStart
	TokLoopEnd
)

// Token is one recognized source character, with its assigned loop id for
// bracket tokens (LoopID is -1 for every other token type).
type Token struct {
	Type   TokenType
	Pos    int
	LoopID int
}

// Preprocess strips every byte that isn't one of the eight recognized
// tape-machine characters. All other bytes are ignored, per spec.md §6's
// "arbitrary bytes; only the eight recognized characters are significant".
func Preprocess(src []byte) []byte {
	out := make([]byte, 0, len(src))
	for _, c := range src {
		switch c {
		case '>', '<', '+', '-', '.', ',', '[', ']':
			out = append(out, c)
		}
	}
	return out
}

// Tokenize assigns each recognized character a token, matching bracket
// pairs by a depth stack and giving each opening bracket a unique,
// monotonically increasing loop id shared with its matching close.
func Tokenize(proc []byte) ([]Token, error) {
	tokens := make([]Token, 0, len(proc))

	loopID := 0
	var stack [maxNestedLoops]int
	depth := 0

	for i, c := range proc {
		switch c {
		case '>':
			tokens = append(tokens, Token{Type: TokPtrInc, Pos: i, LoopID: -1})
		case '<':
			tokens = append(tokens, Token{Type: TokPtrDec, Pos: i, LoopID: -1})
		case '+':
			tokens = append(tokens, Token{Type: TokValInc, Pos: i, LoopID: -1})
		case '-':
			tokens = append(tokens, Token{Type: TokValDec, Pos: i, LoopID: -1})
		case '.':
			tokens = append(tokens, Token{Type: TokOutput, Pos: i, LoopID: -1})
		case ',':
			tokens = append(tokens, Token{Type: TokInput, Pos: i, LoopID: -1})
		case '[':
			if depth >= maxNestedLoops {
				return nil, fmt.Errorf("%w: loop nesting exceeds %d at byte %d", ir.ErrSyntax, maxNestedLoops, i)
			}
			stack[depth] = loopID
			tokens = append(tokens, Token{Type: TokLoopStart, Pos: i, LoopID: loopID})
			depth++
			loopID++
		case ']':
			if depth <= 0 {
				return nil, fmt.Errorf("%w: unmatched closing bracket at byte %d", ir.ErrSyntax, i)
			}
			depth--
			tokens = append(tokens, Token{Type: TokLoopEnd, Pos: i, LoopID: stack[depth]})
		}
	}

	if depth > 0 {
		return nil, fmt.Errorf("%w: unmatched opening bracket(s)", ir.ErrSyntax)
	}

	return tokens, nil
}

// Build maps each token to exactly one IR op, preserving loop ids assigned
// by Tokenize. Token well-formedness is assumed to already hold; Build
// fails only if the IR program cannot be constructed.
func Build(tokens []Token) (*ir.Program, error) {
	prog := ir.New()
	for _, tok := range tokens {
		switch tok.Type {
		case TokPtrInc:
			prog.Append(ir.NewOp(ir.PtrAdd, 1, 0))
		case TokPtrDec:
			prog.Append(ir.NewOp(ir.PtrSub, 1, 0))
		case TokValInc:
			prog.Append(ir.NewOp(ir.ValAdd, 1, 0))
		case TokValDec:
			prog.Append(ir.NewOp(ir.ValSub, 1, 0))
		case TokOutput:
			prog.Append(ir.NewOp(ir.Output, 0, 0))
		case TokInput:
			prog.Append(ir.NewOp(ir.Input, 0, 0))
		case TokLoopStart:
			prog.Append(ir.NewLoopOp(ir.LoopStart, tok.LoopID))
		case TokLoopEnd:
			prog.Append(ir.NewLoopOp(ir.LoopEnd, tok.LoopID))
		}
	}
	return prog, nil
}

// Parse runs the full front-end pipeline: filter, tokenize, build.
func Parse(src []byte) (*ir.Program, error) {
	tokens, err := Tokenize(Preprocess(src))
	if err != nil {
		return nil, err
	}
	return Build(tokens)
}
