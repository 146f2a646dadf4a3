package network

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nf/intcode/intcode"
)

// NIC is one machine in the network together with its inbound queue.
// The machine reads packets from the queue and writes packets to the
// network's shared outbound queue; it never touches another NIC.
type NIC struct {
	addr int
	m    *intcode.Machine
	in   intcode.Queue
	out  *outbound
	poll time.Duration

	idle   atomic.Bool
	halted atomic.Bool // machine has stopped running

	buf []int64 // partial packet, owned by the machine's goroutine

	sent, received atomic.Int64
}

func newNIC(addr int, prog intcode.Memory, out *outbound, poll time.Duration) *NIC {
	n := &NIC{addr: addr, out: out, poll: poll}
	n.m = intcode.NewMachine(prog.Clone(), n)
	n.in.Push(int64(addr))
	return n
}

// Addr returns the network address of n.
func (n *NIC) Addr() int { return n.addr }

// Machine returns the machine attached to n.
func (n *NIC) Machine() *intcode.Machine { return n.m }

// Idle reports whether n's last input poll found its queue empty
// and nothing has been delivered to it since.
func (n *NIC) Idle() bool { return n.idle.Load() }

// Input implements intcode.IO. When the inbound queue is empty it marks
// the NIC idle, waits for the poll interval and returns EmptyInput.
func (n *NIC) Input() (int64, bool) {
	if v, ok := n.in.Pop(); ok {
		return v, true
	}
	n.idle.Store(true)
	time.Sleep(n.poll)
	return EmptyInput, true
}

// Output implements intcode.IO. Every third value completes a packet,
// which is queued for routing.
func (n *NIC) Output(v int64) {
	n.buf = append(n.buf, v)
	if len(n.buf) < 3 {
		return
	}
	n.out.push(Packet{Addr: n.buf[0], X: n.buf[1], Y: n.buf[2]})
	n.buf = n.buf[:0]
	n.sent.Add(1)
}

// deliver queues a packet's payload for n and clears its idle flag.
func (n *NIC) deliver(x, y int64) {
	n.in.Push(x, y)
	n.idle.Store(false)
	n.received.Add(1)
}

// NICStatus is a snapshot of a NIC, for display.
type NICStatus struct {
	Addr     int
	Idle     bool
	Halted   bool
	Queued   int // values waiting in the inbound queue
	Sent     int64
	Received int64
}

func (n *NIC) status() NICStatus {
	return NICStatus{
		Addr:     n.addr,
		Idle:     n.idle.Load(),
		Halted:   n.halted.Load(),
		Queued:   n.in.Len(),
		Sent:     n.sent.Load(),
		Received: n.received.Load(),
	}
}

// outbound is the queue shared by every NIC for packets awaiting routing.
type outbound struct {
	mu sync.Mutex
	ps []Packet
}

func (o *outbound) push(p Packet) {
	o.mu.Lock()
	o.ps = append(o.ps, p)
	o.mu.Unlock()
}

func (o *outbound) pop() (Packet, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.ps) == 0 {
		return Packet{}, false
	}
	p := o.ps[0]
	o.ps = o.ps[1:]
	return p, true
}

func (o *outbound) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ps)
}
