package intcode

import "strings"

// Interactive drives a Machine one burst at a time. Values pushed by the
// caller are buffered as pending input and values produced by the program
// are buffered until fetched. When the program asks for input and none is
// pending, Execute returns instead of blocking.
type Interactive struct {
	m       *Machine
	in, out *Queue
}

// NewInteractive returns an Interactive running mem from address 0.
// The memory is used directly, not copied.
func NewInteractive(mem Memory) *Interactive {
	in, out := new(Queue), new(Queue)
	return &Interactive{
		m:   NewMachine(mem, QueueIO{In: in, Out: out}),
		in:  in,
		out: out,
	}
}

// Machine returns the underlying machine.
func (i *Interactive) Machine() *Machine { return i.m }

// PushInput appends vs to the pending input.
func (i *Interactive) PushInput(vs ...int64) { i.in.Push(vs...) }

// PushLine pushes each byte of line followed by a newline (10),
// for programs that speak the ASCII line protocol.
func (i *Interactive) PushLine(line string) {
	vs := make([]int64, 0, len(line)+1)
	for j := 0; j < len(line); j++ {
		vs = append(vs, int64(line[j]))
	}
	i.in.Push(append(vs, '\n')...)
}

// Execute runs the program until it halts or needs input that has not
// been pushed yet. It reports whether the program halted.
// It panics with a FaultError if the program is malformed.
func (i *Interactive) Execute() bool { return i.m.Execute() }

// Run is like Execute but returns faults as errors.
func (i *Interactive) Run() (State, error) { return i.m.Run() }

// Halted reports whether the program has halted.
func (i *Interactive) Halted() bool { return i.m.Halted() }

// Pending returns the number of input values not yet consumed.
func (i *Interactive) Pending() int { return i.in.Len() }

// FetchOutputs returns the values produced since the last fetch,
// oldest first.
func (i *Interactive) FetchOutputs() []int64 { return i.out.Drain() }

// FetchString is like FetchOutputs but decodes values in the range 0-255
// as ASCII text. Any other values are returned separately, in order.
func (i *Interactive) FetchString() (text string, other []int64) {
	var b strings.Builder
	for _, v := range i.out.Drain() {
		if v >= 0 && v <= 0xff {
			b.WriteByte(byte(v))
		} else {
			other = append(other, v)
		}
	}
	return b.String(), other
}

// Clone returns an independent copy of i: memory, instruction pointer,
// pending input and unfetched output are all duplicated.
func (i *Interactive) Clone() *Interactive {
	in, out := i.in.Clone(), i.out.Clone()
	m := i.m.Clone()
	m.IO = QueueIO{In: in, Out: out}
	return &Interactive{m: m, in: in, out: out}
}
