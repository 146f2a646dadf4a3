package intcode

import "sync"

// IO provides access to the world outside the Machine.
type IO interface {
	// Input returns the next input value, or false if none is available.
	// A Machine that receives false suspends at the input instruction.
	Input() (v int64, ok bool)
	// Output accepts one value produced by the program.
	Output(v int64)
}

// IOFuncs implements IO with a pair of functions.
// A nil In or Out panics when the program tries to use it.
type IOFuncs struct {
	In  func() (int64, bool)
	Out func(int64)
}

func (f IOFuncs) Input() (int64, bool) {
	if f.In == nil {
		panic("intcode: program requested input but none was expected")
	}
	return f.In()
}

func (f IOFuncs) Output(v int64) {
	if f.Out == nil {
		panic("intcode: program produced output but none was expected")
	}
	f.Out(v)
}

// NoInput is an IOFuncs.In for programs that never read input.
// It panics if called.
func NoInput() (int64, bool) {
	panic("intcode: program requested input but none was expected")
}

// NoOutput is an IOFuncs.Out for programs that never write output.
// It panics if called.
func NoOutput(int64) {
	panic("intcode: program produced output but none was expected")
}

// Batch is an IO that serves a fixed list of inputs and records outputs.
type Batch struct {
	Inputs  []int64
	Outputs []int64
}

// NewBatch returns a Batch that serves the given inputs in order.
func NewBatch(inputs ...int64) *Batch {
	return &Batch{Inputs: inputs}
}

func (b *Batch) Input() (int64, bool) {
	if len(b.Inputs) == 0 {
		return 0, false
	}
	v := b.Inputs[0]
	b.Inputs = b.Inputs[1:]
	return v, true
}

func (b *Batch) Output(v int64) { b.Outputs = append(b.Outputs, v) }

// Queue is a FIFO of values that is safe for concurrent use.
// The zero value is an empty queue.
type Queue struct {
	mu   sync.Mutex
	vals []int64
}

// Push appends vs to the back of the queue.
func (q *Queue) Push(vs ...int64) {
	q.mu.Lock()
	q.vals = append(q.vals, vs...)
	q.mu.Unlock()
}

// Pop removes and returns the value at the front of the queue,
// reporting false if the queue is empty.
func (q *Queue) Pop() (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.vals) == 0 {
		return 0, false
	}
	v := q.vals[0]
	q.vals = q.vals[1:]
	return v, true
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.vals)
}

// Drain removes and returns every queued value, oldest first.
// It returns a non-nil empty slice if the queue is empty.
func (q *Queue) Drain() []int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	vs := q.vals
	if vs == nil {
		vs = []int64{}
	}
	q.vals = nil
	return vs
}

// Clone returns a queue holding a copy of q's values.
func (q *Queue) Clone() *Queue {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &Queue{vals: append([]int64(nil), q.vals...)}
}

// QueueIO implements IO on top of two queues.
// Input reports false when In is empty.
type QueueIO struct {
	In, Out *Queue
}

func (q QueueIO) Input() (int64, bool) { return q.In.Pop() }
func (q QueueIO) Output(v int64)        { q.Out.Push(v) }
