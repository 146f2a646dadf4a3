package intcode

import (
	"fmt"
	"strings"
)

// Op represents an Intcode opcode.
type Op byte

const (
	ADD Op = 1
	MUL Op = 2
	IN  Op = 3
	OUT Op = 4
	JNZ Op = 5 // jump-if-true
	JZ  Op = 6 // jump-if-false
	LT  Op = 7
	EQ  Op = 8
	HLT Op = 99
)

var opStrings = map[Op]string{
	ADD: "ADD",
	MUL: "MUL",
	IN:  "IN",
	OUT: "OUT",
	JNZ: "JNZ",
	JZ:  "JZ",
	LT:  "LT",
	EQ:  "EQ",
	HLT: "HLT",
}

func (op Op) String() string {
	if s, ok := opStrings[op]; ok {
		return s
	}
	return fmt.Sprintf("OP%d", byte(op))
}

// Valid reports whether op is a supported opcode.
func (op Op) Valid() bool {
	_, ok := opStrings[op]
	return ok
}

// Args returns the number of operands consumed by op.
func (op Op) Args() int {
	switch op {
	case ADD, MUL, LT, EQ:
		return 3
	case JNZ, JZ:
		return 2
	case IN, OUT:
		return 1
	default:
		return 0
	}
}

// Width returns the number of words occupied by an instruction with this opcode.
func (op Op) Width() int { return op.Args() + 1 }

// Writes reports whether the last operand of op is a destination address.
func (op Op) Writes() bool {
	switch op {
	case ADD, MUL, IN, LT, EQ:
		return true
	}
	return false
}

// Mode is an operand addressing mode.
type Mode byte

const (
	Position  Mode = 0 // operand is the address of the value
	Immediate Mode = 1 // operand is the value itself
)

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	}
	return fmt.Sprintf("mode(%d)", byte(m))
}

// Decode splits an instruction word into its opcode and the addressing
// modes of its first three operands. Absent mode digits are Position.
// It panics with InvalidOpcode or InvalidMode for words that do not
// encode a supported instruction.
func Decode(word int64) (op Op, modes [3]Mode) {
	if word < 0 {
		panic(InvalidOpcode)
	}
	op = Op(word % 100)
	if !op.Valid() {
		panic(InvalidOpcode)
	}
	word /= 100
	for i := range modes {
		m := Mode(word % 10)
		if m != Position && m != Immediate {
			panic(InvalidMode)
		}
		modes[i] = m
		word /= 10
	}
	if word != 0 {
		panic(InvalidMode)
	}
	return op, modes
}

// Disassemble returns a textual representation of the instruction at addr
// and its width. Words that do not decode are rendered as data.
func Disassemble(mem Memory, addr int) (s string, width int) {
	if addr < 0 || addr >= len(mem) {
		return "<out of bounds>", 1
	}
	op, modes, ok := tryDecode(mem[addr])
	if !ok {
		return fmt.Sprintf("DATA %d", mem[addr]), 1
	}
	var b strings.Builder
	b.WriteString(op.String())
	for i := 0; i < op.Args(); i++ {
		b.WriteByte(' ')
		a := addr + 1 + i
		if a >= len(mem) {
			b.WriteString("?")
			continue
		}
		if modes[i] == Immediate {
			fmt.Fprintf(&b, "#%d", mem[a])
		} else {
			fmt.Fprintf(&b, "[%d]", mem[a])
		}
	}
	return b.String(), op.Width()
}

func tryDecode(word int64) (op Op, modes [3]Mode, ok bool) {
	defer func() {
		if e := recover(); e != nil {
			if _, isFault := e.(FaultCode); !isFault {
				panic(e)
			}
			ok = false
		}
	}()
	op, modes = Decode(word)
	return op, modes, true
}
