package intcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Memory is the flat address space of an Intcode machine.
// Its size is fixed by the loaded program.
type Memory []int64

// Read returns the value at addr.
// It panics with OutOfBounds if addr is outside the memory.
func (m Memory) Read(addr int64) int64 {
	if addr < 0 || addr >= int64(len(m)) {
		panic(OutOfBounds)
	}
	return m[addr]
}

// Write stores v at addr.
// It panics with OutOfBounds if addr is outside the memory.
func (m Memory) Write(addr, v int64) {
	if addr < 0 || addr >= int64(len(m)) {
		panic(OutOfBounds)
	}
	m[addr] = v
}

// Clone returns an independent copy of m.
func (m Memory) Clone() Memory {
	c := make(Memory, len(m))
	copy(c, m)
	return c
}

func (m Memory) String() string {
	var b strings.Builder
	for i, v := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}

// ParseError is returned by Parse for a malformed program.
type ParseError struct {
	Field int    // index of the offending comma-separated field
	Text  string // its text
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing program field %d %q: %v", e.Field, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmptyProgram is wrapped by the ParseError for a program with no fields.
var ErrEmptyProgram = errors.New("empty program")

// Parse reads a program written as a single line of comma-separated
// base-10 integers. Leading and trailing whitespace is ignored.
func Parse(src string) (Memory, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, &ParseError{Err: ErrEmptyProgram}
	}
	fields := strings.Split(src, ",")
	m := make(Memory, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, &ParseError{Field: i, Text: f, Err: err}
		}
		m[i] = v
	}
	return m, nil
}
