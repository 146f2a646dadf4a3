// Package network runs many Intcode machines concurrently, connected by
// packet queues, and detects when the whole network has gone quiet.
//
// Every machine runs on its own goroutine. Its first input is its own
// address; after that it reads (x, y) pairs delivered to it, and receives
// EmptyInput whenever nothing is waiting. Output values are grouped into
// packets of three: destination address, x and y.
//
// A single coordinator routes packets from the shared outbound queue.
// Packets for the monitor address are not delivered; the coordinator keeps
// the latest one. When every machine has been idle for a while and nothing
// is waiting to be routed, the coordinator re-sends the latest monitor
// payload to machine 0. The network has converged when two consecutive
// re-sends carry the same y value.
//
// Idleness is detected by polling: a machine counts as idle once it has
// found its queue empty, until the next packet is delivered to it.
// The two-sample check separated by Config.ConfirmDelay guards against
// packets that are in flight inside a machine, but it is a heuristic and
// not a proof of quiescence.
package network

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nf/intcode/intcode"
)

const (
	// MonitorAddr is the default reserved address for monitor packets.
	MonitorAddr = 255
	// EmptyInput is the value a machine reads when its queue is empty.
	EmptyInput = -1
)

// Packet is the unit of communication between machines.
type Packet struct {
	Addr, X, Y int64
}

func (p Packet) fields() logrus.Fields {
	return logrus.Fields{"addr": p.Addr, "x": p.X, "y": p.Y}
}

// Result describes a converged network.
type Result struct {
	First      Packet // first packet sent to the monitor
	Last       Packet // monitor packet whose payload repeated
	Recoveries int    // number of times machine 0 was woken by the coordinator
}

// Network is a set of machines running the same program.
type Network struct {
	cfg  Config
	log  logrus.FieldLogger
	nics []*NIC
	out  outbound

	// Metrics, if non-nil, records coordinator activity.
	Metrics *Metrics
}

// New returns a network of cfg.Size machines, each running its own copy
// of prog. If log is nil, nothing is logged.
func New(prog intcode.Memory, cfg Config, log logrus.FieldLogger) (*Network, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	n := &Network{cfg: cfg, log: log}
	for i := 0; i < cfg.Size; i++ {
		n.nics = append(n.nics, newNIC(i, prog, &n.out, cfg.PollInterval))
	}
	return n, nil
}

// NIC returns the NIC at addr.
func (n *Network) NIC(addr int) *NIC { return n.nics[addr] }

// Status returns a snapshot of every NIC, in address order.
func (n *Network) Status() []NICStatus {
	s := make([]NICStatus, len(n.nics))
	for i, nic := range n.nics {
		s[i] = nic.status()
	}
	return s
}

// Run starts every machine and coordinates the network until it
// converges, a machine faults, or ctx is done. All machines are
// stopped before Run returns.
func (n *Network) Run(ctx context.Context) (Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	for _, nic := range n.nics {
		nic := nic
		g.Go(func() error {
			defer nic.halted.Store(true)
			// A halted machine will never read again.
			defer nic.idle.Store(true)
			if _, err := nic.m.Run(); err != nil {
				n.log.WithField("nic", nic.addr).WithError(err).Error("machine fault")
				return fmt.Errorf("machine %d: %w", nic.addr, err)
			}
			return nil
		})
	}
	var res Result
	g.Go(func() (err error) {
		defer n.haltAll()
		res, err = n.coordinate(ctx)
		return err
	})
	err := g.Wait()
	return res, err
}

func (n *Network) haltAll() {
	for _, nic := range n.nics {
		nic.m.Halt()
	}
}

func (n *Network) coordinate(ctx context.Context) (Result, error) {
	var (
		res        Result
		monitor    Packet
		seen       bool // a monitor packet has been recorded
		recovered  bool // a recovery packet has been sent
		lastY      int64
		warnedIdle bool
	)
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if p, ok := n.out.pop(); ok {
			switch {
			case p.Addr == n.cfg.MonitorAddr:
				if !seen {
					res.First = p
					seen = true
					n.log.WithFields(p.fields()).Info("first monitor packet")
				}
				monitor = p
				n.Metrics.incMonitor()
			case p.Addr >= 0 && p.Addr < int64(len(n.nics)):
				n.nics[p.Addr].deliver(p.X, p.Y)
				n.Metrics.incRouted()
				n.log.WithFields(p.fields()).Debug("route")
			default:
				n.Metrics.incDropped()
				n.log.WithFields(p.fields()).Warn("dropping packet for unknown address")
			}
			continue
		}

		if !n.quiet() {
			if err := sleep(ctx, n.cfg.PollInterval); err != nil {
				return res, err
			}
			continue
		}
		if err := sleep(ctx, n.cfg.ConfirmDelay); err != nil {
			return res, err
		}
		if !n.quiet() {
			continue
		}
		if !seen {
			if !warnedIdle {
				n.log.Warn("network idle before any monitor packet")
				warnedIdle = true
			}
			if err := sleep(ctx, n.cfg.PollInterval); err != nil {
				return res, err
			}
			continue
		}

		n.nics[0].deliver(monitor.X, monitor.Y)
		res.Recoveries++
		n.Metrics.incRecoveries()
		n.log.WithFields(monitor.fields()).Info("network idle, waking machine 0")
		if recovered && monitor.Y == lastY {
			res.Last = monitor
			n.log.WithFields(logrus.Fields{
				"first_y":    res.First.Y,
				"last_y":     res.Last.Y,
				"recoveries": res.Recoveries,
			}).Info("network converged")
			return res, nil
		}
		recovered, lastY = true, monitor.Y
	}
}

// quiet reports whether nothing is waiting to be routed and every
// machine is idle.
func (n *Network) quiet() bool {
	idle := 0
	for _, nic := range n.nics {
		if nic.Idle() {
			idle++
		}
	}
	n.Metrics.setIdle(idle)
	return idle == len(n.nics) && n.out.len() == 0
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
