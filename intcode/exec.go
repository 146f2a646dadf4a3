// Package intcode provides an implementation of the Intcode computer,
// called Machine, along with the I/O plumbing needed to drive it in batch,
// interactive and concurrent settings.
package intcode

import (
	"fmt"
	"sync/atomic"
)

// Machine is an Intcode computer.
type Machine struct {
	Mem Memory
	IP  int64
	IO  IO

	// Logf, if non-nil, is called with the disassembly of each
	// instruction before it is executed.
	Logf func(format string, args ...any)

	halted bool
	stop   atomic.Bool
}

// NewMachine returns a Machine that executes mem from address 0,
// performing I/O through io. If io is nil, any I/O instruction panics.
func NewMachine(mem Memory, io IO) *Machine {
	if io == nil {
		io = IOFuncs{}
	}
	return &Machine{Mem: mem, IO: io}
}

// State is the execution state of a Machine.
type State byte

const (
	Running State = iota
	Halted
	Suspended // waiting for input
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	case Suspended:
		return "suspended"
	}
	return fmt.Sprintf("state(%d)", byte(s))
}

// Halt asks the machine to stop. The next instruction is not executed and
// Step reports Halted instead. It is safe to call from any goroutine.
func (m *Machine) Halt() { m.stop.Store(true) }

// Halted reports whether the machine has halted.
func (m *Machine) Halted() bool { return m.halted }

// Run executes instructions until the machine halts or suspends waiting
// for input. A suspended machine resumes at the same input instruction
// on the next call to Run.
func (m *Machine) Run() (State, error) {
	for {
		s, err := m.Step()
		if err != nil || s != Running {
			return s, err
		}
	}
}

// Execute is like Run but panics if the program faults.
// It reports whether the machine halted.
func (m *Machine) Execute() bool {
	s, err := m.Run()
	if err != nil {
		panic(err)
	}
	return s == Halted
}

// Step executes the instruction at m.IP. It returns a FaultError if the
// instruction could not be executed, leaving m.IP at the faulting
// instruction.
func (m *Machine) Step() (state State, err error) {
	if m.halted {
		return Halted, nil
	}
	if m.stop.Load() {
		m.halted = true
		return Halted, nil
	}
	var (
		ip   = m.IP
		word int64
	)
	defer func() {
		if e := recover(); e != nil {
			code, ok := e.(FaultCode)
			if !ok {
				panic(e)
			}
			state = Running
			err = FaultError{FaultCode: code, Word: word, Addr: ip}
		}
	}()

	word = m.Mem.Read(ip)
	op, modes := Decode(word)

	if m.Logf != nil {
		s, _ := Disassemble(m.Mem, int(ip))
		m.Logf("%.4d %s", ip, s)
	}

	param := func(i int) int64 {
		v := m.Mem.Read(ip + 1 + int64(i))
		if modes[i] == Immediate {
			return v
		}
		return m.Mem.Read(v)
	}
	dest := func(i int) int64 {
		a := m.Mem.Read(ip + 1 + int64(i))
		if a < 0 || a >= int64(len(m.Mem)) {
			panic(OutOfBounds)
		}
		return a
	}

	switch op {
	case ADD:
		a, b := param(0), param(1)
		m.Mem.Write(dest(2), a+b)
	case MUL:
		a, b := param(0), param(1)
		m.Mem.Write(dest(2), a*b)
	case IN:
		addr := dest(0)
		v, ok := m.IO.Input()
		if !ok {
			return Suspended, nil
		}
		m.Mem.Write(addr, v)
	case OUT:
		m.IO.Output(param(0))
	case JNZ, JZ:
		cond, target := param(0), param(1)
		if (cond != 0) == (op == JNZ) {
			m.IP = target
			return Running, nil
		}
	case LT:
		a, b := param(0), param(1)
		m.Mem.Write(dest(2), boolWord(a < b))
	case EQ:
		a, b := param(0), param(1)
		m.Mem.Write(dest(2), boolWord(a == b))
	case HLT:
		m.halted = true
		return Halted, nil
	default:
		panic(fmt.Errorf("internal error: %v not implemented", op))
	}
	m.IP += int64(op.Width())
	return Running, nil
}

func boolWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Clone returns a copy of m with its own memory. The clone shares m's IO
// and Logf; callers that need independent I/O should replace IO.
func (m *Machine) Clone() *Machine {
	return &Machine{
		Mem:    m.Mem.Clone(),
		IP:     m.IP,
		IO:     m.IO,
		Logf:   m.Logf,
		halted: m.halted,
	}
}

// FaultError is returned by Step and Run when the program is malformed.
type FaultError struct {
	FaultCode
	Word int64 // instruction word at Addr, if it could be read
	Addr int64
}

func (e FaultError) Error() string {
	return fmt.Sprintf("%s executing %d at %d", e.FaultCode, e.Word, e.Addr)
}

// FaultCode signifies the type of condition that stopped execution.
type FaultCode byte

const (
	InvalidOpcode FaultCode = 0x01
	InvalidMode   FaultCode = 0x02
	OutOfBounds   FaultCode = 0x03
)

func (c FaultCode) String() string {
	if s, ok := map[FaultCode]string{
		InvalidOpcode: "invalid opcode",
		InvalidMode:   "invalid addressing mode",
		OutOfBounds:   "address out of bounds",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}
