package intcode

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestStep(t *testing.T) {
	c := newExecTestCase
	for i, c := range []*execTestCase{
		c(1, 5, 6, 7, 99, 2, 3, 0).want().mem(7, 5),
		c(1101, 2, 3, 4, 0).want().mem(4, 5),
		c(1101, -7, 3, 4, 0).want().mem(4, -4),
		c(10001, 0, 0, 3).want().mem(3, 20002),

		c(2, 5, 6, 7, 99, 4, -3, 0).want().mem(7, -12),
		c(1002, 4, 3, 4, 33).want().mem(4, 99),

		c(3, 3, 99, 0).in(42).want().mem(3, 42),
		c(3, 3, 99, 0).want().ip(0).state(Suspended),
		c(103, 0).in(42).want().mem(0, 42),

		c(4, 3, 99, 17).want().out(17),
		c(104, -5, 99).want().out(-5),

		c(1105, 1, 7).want().ip(7),
		c(1105, 0, 7).want().ip(3),
		c(1105, -1, 0).want().ip(0),
		c(5, 3, 4, 1, 9).want().ip(9),
		c(1106, 0, 9).want().ip(9),
		c(1106, 5, 9).want().ip(3),
		c(6, 3, 4, 0, 11).want().ip(11),

		c(1107, -1, 0, 3).want().mem(3, 1),
		c(1107, 3, 3, 3).want().mem(3, 0),
		c(7, 1, 0, 3).want().mem(3, 0),
		c(1108, 4, 4, 3).want().mem(3, 1),
		c(8, 1, 2, 3).want().mem(3, 0),
		c(1108, -9, -9, 0).want().mem(0, 1),

		c(99).want().ip(0).state(Halted),

		c(42).want().ip(0).
			error(FaultError{FaultCode: InvalidOpcode, Word: 42, Addr: 0}),
		c(-1).want().ip(0).
			error(FaultError{FaultCode: InvalidOpcode, Word: -1, Addr: 0}),
		c(201, 0, 0, 0).want().ip(0).
			error(FaultError{FaultCode: InvalidMode, Word: 201, Addr: 0}),
		c(1, 0, 0, 100).want().ip(0).
			error(FaultError{FaultCode: OutOfBounds, Word: 1, Addr: 0}),
		c(1, 0, 0).want().ip(0).
			error(FaultError{FaultCode: OutOfBounds, Word: 1, Addr: 0}),
		c(4, 7).want().ip(0).
			error(FaultError{FaultCode: OutOfBounds, Word: 4, Addr: 0}),
		c(3, -1).in(5).want().ip(0).
			error(FaultError{FaultCode: OutOfBounds, Word: 3, Addr: 0}),
	} {
		t.Run(fmt.Sprintf("%d_%d", c.m.Mem[0], i), func(t *testing.T) {
			s, err := c.m.Step()
			if err != c.err {
				t.Fatalf("got error %v, want %v", err, c.err)
			}
			if err == nil && s != c.st {
				t.Errorf("state is %v, want %v", s, c.st)
			}
			if g, w := c.m.Mem, c.w.Mem; !slices.Equal(g, w) {
				t.Errorf("memory is\n\t%v\nwant\n\t%v", g, w)
			}
			if g, w := c.m.IP, c.w.IP; g != w {
				t.Errorf("IP is %d, want %d", g, w)
			}
			if g, w := c.io.Outputs, c.outs; !slices.Equal(g, w) {
				t.Errorf("outputs are %v, want %v", g, w)
			}
		})
	}
}

type execTestCase struct {
	m, w *Machine
	io   *Batch
	outs []int64
	st   State
	err  error
	set  *Machine
}

func newExecTestCase(prog ...int64) *execTestCase {
	c := &execTestCase{io: NewBatch()}
	c.m = NewMachine(Memory(prog).Clone(), c.io)
	c.w = NewMachine(Memory(prog).Clone(), nil)
	if op := Op(prog[0] % 100); op.Valid() {
		c.w.IP = int64(op.Width())
	}
	c.set = c.m
	return c
}

func (c *execTestCase) in(vs ...int64) *execTestCase {
	c.io.Inputs = vs
	return c
}

func (c *execTestCase) mem(addr int, vs ...int64) *execTestCase {
	copy(c.set.Mem[addr:], vs)
	if c.set == c.m {
		copy(c.w.Mem[addr:], vs)
	}
	return c
}

func (c *execTestCase) ip(addr int64) *execTestCase {
	c.set.IP = addr
	return c
}

func (c *execTestCase) want() *execTestCase {
	c.set = c.w
	return c
}

func (c *execTestCase) out(vs ...int64) *execTestCase {
	c.outs = vs
	return c
}

func (c *execTestCase) state(s State) *execTestCase {
	c.st = s
	return c
}

func (c *execTestCase) error(err error) *execTestCase {
	c.err = err
	return c
}

// Every operand read in position mode through an address holding v must
// behave like the same operand given as the immediate v.
func TestModeEquivalence(t *testing.T) {
	vals := []int64{-3, 0, 1, 7, 1 << 40}
	for _, op := range []Op{ADD, MUL, LT, EQ} {
		for _, a := range vals {
			for _, b := range vals {
				// Position: operands point at addresses 5 and 6.
				pos := Memory{int64(op), 5, 6, 7, 99, a, b, 0}
				imm := Memory{int64(op) + 1100, a, b, 7, 99, 0, 0, 0}
				mp, mi := NewMachine(pos, nil), NewMachine(imm, nil)
				if _, err := mp.Step(); err != nil {
					t.Fatalf("%v %d %d position: %v", op, a, b, err)
				}
				if _, err := mi.Step(); err != nil {
					t.Fatalf("%v %d %d immediate: %v", op, a, b, err)
				}
				if g, w := pos[7], imm[7]; g != w {
					t.Errorf("%v %d %d: position gave %d, immediate gave %d", op, a, b, g, w)
				}
				if mp.IP != mi.IP {
					t.Errorf("%v %d %d: IP %d vs %d", op, a, b, mp.IP, mi.IP)
				}
			}
		}
	}
	for _, op := range []Op{JNZ, JZ} {
		for _, v := range []int64{0, 1, -1} {
			pos := Memory{int64(op), 4, 5, 99, v, 0}
			imm := Memory{int64(op) + 1100, v, 0, 99, 0, 0}
			mp, mi := NewMachine(pos, nil), NewMachine(imm, nil)
			mp.Step()
			mi.Step()
			if mp.IP != mi.IP {
				t.Errorf("%v %d: position IP %d, immediate IP %d", op, v, mp.IP, mi.IP)
			}
		}
	}
}

func TestRun(t *testing.T) {
	// Compares the input with 8: 999 below, 1000 equal, 1001 above.
	cmp8 := []int64{3, 21, 1008, 21, 8, 20, 1005, 20, 22, 107, 8, 21, 20, 1006, 20, 31,
		1106, 0, 36, 98, 0, 0, 1002, 21, 125, 20, 4, 20, 1105, 1, 46, 104,
		999, 1105, 1, 46, 1101, 1000, 1, 20, 4, 20, 1105, 1, 46, 98, 99}
	for _, c := range []struct {
		name    string
		prog    []int64
		in      []int64
		out     []int64
		mem     []int64
		state   State
		wantErr FaultCode
	}{
		{name: "add", prog: []int64{1, 0, 0, 0, 99}, mem: []int64{2, 0, 0, 0, 99}, state: Halted},
		{name: "echo", prog: []int64{3, 0, 4, 0, 99}, in: []int64{7}, out: []int64{7}, state: Halted},
		{name: "echo suspended", prog: []int64{3, 0, 4, 0, 99}, state: Suspended},
		{name: "mul", prog: []int64{2, 4, 4, 5, 99, 0}, mem: []int64{2, 4, 4, 5, 99, 9801}, state: Halted},
		{name: "self modifying", prog: []int64{1, 1, 1, 4, 99, 5, 6, 0, 99},
			mem: []int64{30, 1, 1, 4, 2, 5, 6, 0, 99}, state: Halted},
		{name: "eq8 equal", prog: []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}, in: []int64{8}, out: []int64{1}, state: Halted},
		{name: "eq8 other", prog: []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}, in: []int64{5}, out: []int64{0}, state: Halted},
		{name: "lt8 immediate", prog: []int64{3, 3, 1107, -1, 8, 3, 4, 3, 99}, in: []int64{5}, out: []int64{1}, state: Halted},
		{name: "jump zero", prog: []int64{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}, in: []int64{0}, out: []int64{0}, state: Halted},
		{name: "jump nonzero", prog: []int64{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}, in: []int64{3}, out: []int64{1}, state: Halted},
		{name: "cmp8 below", prog: cmp8, in: []int64{7}, out: []int64{999}, state: Halted},
		{name: "cmp8 equal", prog: cmp8, in: []int64{8}, out: []int64{1000}, state: Halted},
		{name: "cmp8 above", prog: cmp8, in: []int64{9}, out: []int64{1001}, state: Halted},
		{name: "runs off the end", prog: []int64{1101, 1, 1, 0}, wantErr: OutOfBounds},
		{name: "jumps into data", prog: []int64{1105, 1, 3, 42}, wantErr: InvalidOpcode},
	} {
		t.Run(c.name, func(t *testing.T) {
			io := NewBatch(c.in...)
			m := NewMachine(Memory(c.prog).Clone(), io)
			s, err := m.Run()
			if c.wantErr != 0 {
				var fe FaultError
				if !errors.As(err, &fe) || fe.FaultCode != c.wantErr {
					t.Fatalf("got error %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s != c.state {
				t.Errorf("state is %v, want %v", s, c.state)
			}
			if !slices.Equal(io.Outputs, c.out) {
				t.Errorf("outputs are %v, want %v", io.Outputs, c.out)
			}
			if c.mem != nil && !slices.Equal(m.Mem, c.mem) {
				t.Errorf("memory is %v, want %v", m.Mem, c.mem)
			}
		})
	}
}

func TestHalt(t *testing.T) {
	// Infinite loop: JNZ #1 #0.
	m := NewMachine(Memory{1105, 1, 0}, nil)
	for i := 0; i < 10; i++ {
		if s, err := m.Step(); s != Running || err != nil {
			t.Fatalf("step %d: %v, %v", i, s, err)
		}
	}
	m.Halt()
	if s, err := m.Run(); s != Halted || err != nil {
		t.Fatalf("Run after Halt returned %v, %v", s, err)
	}
	if !m.Halted() {
		t.Error("Halted() is false after Halt")
	}
}

func TestExecutePanicsOnFault(t *testing.T) {
	defer func() {
		e := recover()
		fe, ok := e.(FaultError)
		if !ok || fe.FaultCode != InvalidOpcode {
			t.Fatalf("recovered %v, want InvalidOpcode fault", e)
		}
	}()
	NewMachine(Memory{77}, nil).Execute()
}

func TestTrace(t *testing.T) {
	var lines []string
	m := NewMachine(Memory{1101, 2, 3, 0, 99}, nil)
	m.Logf = func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}
	if !m.Execute() {
		t.Fatal("program did not halt")
	}
	want := []string{"0000 ADD #2 #3 [0]", "0004 HLT"}
	if !slices.Equal(lines, want) {
		t.Errorf("trace is %q, want %q", lines, want)
	}
}
