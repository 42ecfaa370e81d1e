package selectors

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
)

// Extractor turns runtime bytecode into the selectors its dispatcher
// jumps on.
type Extractor func(bytecode []byte) []string

type instruction struct {
	op  vm.OpCode
	arg []byte
}

// disassemble decodes code linearly. A push whose immediate runs past the
// end keeps the bytes that are there.
func disassemble(code []byte) []instruction {
	out := make([]instruction, 0, len(code)/2)
	for pc := 0; pc < len(code); pc++ {
		op := vm.OpCode(code[pc])
		ins := instruction{op: op}
		if op.IsPush() {
			n := int(op - vm.PUSH0)
			end := min(pc+1+n, len(code))
			ins.arg = code[pc+1 : end]
			pc += n
		}
		out = append(out, ins)
	}
	return out
}

// stripMetadata drops the CBOR metadata trailer solc appends to runtime
// code. Its length is stored big-endian in the final two bytes.
func stripMetadata(code []byte) []byte {
	if len(code) < 2 {
		return code
	}
	n := int(code[len(code)-2])<<8 | int(code[len(code)-1])
	start := len(code) - 2 - n
	if n == 0 || start < 1 {
		return code
	}
	// CBOR map header, preceded by INVALID.
	if code[start]&0xf0 != 0xa0 || vm.OpCode(code[start-1]) != vm.INVALID {
		return code
	}
	return code[:start]
}

// FromBytecode extracts function selectors from a contract's dispatcher.
// A selector is recorded for every PUSH3/PUSH4 that is compared with EQ
// and followed by a conditional jump:
//
//	DUP1 PUSH4 sel EQ PUSH2 dest JUMPI
//	PUSH4 sel DUP2 EQ PUSH2 dest JUMPI
//
// PUSH3 covers selectors with a leading zero byte. Results keep first-seen
// order without duplicates.
func FromBytecode(code []byte) []string {
	prog := disassemble(stripMetadata(code))

	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for i, ins := range prog {
		if ins.op != vm.PUSH4 && ins.op != vm.PUSH3 {
			continue
		}
		if len(ins.arg) != int(ins.op-vm.PUSH0) || !dispatches(prog, i+1) {
			continue
		}
		sel := hexutil.Encode(common.LeftPadBytes(ins.arg, 4))
		if _, dup := seen[sel]; dup {
			continue
		}
		seen[sel] = struct{}{}
		out = append(out, sel)
	}
	return out
}

// dispatches reports whether prog[i:] is an EQ, optionally after one stack
// shuffle, followed by PUSHn dest and JUMPI.
func dispatches(prog []instruction, i int) bool {
	if i < len(prog) && isShuffle(prog[i].op) {
		i++
	}
	if i+2 >= len(prog) || prog[i].op != vm.EQ {
		return false
	}
	dest := prog[i+1].op
	return dest.IsPush() && dest != vm.PUSH0 && prog[i+2].op == vm.JUMPI
}

func isShuffle(op vm.OpCode) bool {
	return (op >= vm.DUP1 && op <= vm.DUP16) || (op >= vm.SWAP1 && op <= vm.SWAP16)
}

// FromHex is FromBytecode for 0x-prefixed hex. Malformed input yields nil.
func FromHex(s string) []string {
	code, err := hexutil.Decode(s)
	if err != nil {
		return nil
	}
	return FromBytecode(code)
}
