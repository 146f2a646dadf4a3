package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/intcode/network"
)

// monitor is a terminal view of a running network: one row per machine,
// the log underneath and a status line at the bottom.
type monitor struct {
	n *network.Network

	table *tview.Table
	log   *tview.TextView
	state *tview.TextView
	rows  *tview.Flex
	app   *tview.Application
}

var monitorColumns = []string{"addr", "state", "queued", "sent", "recv"}

func newMonitor(n *network.Network) *monitor {
	m := &monitor{
		n: n,
		table: tview.NewTable().
			SetFixed(1, 0),
		log: tview.NewTextView().
			SetMaxLines(1000),
		state: tview.NewTextView().
			SetWrap(false),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	m.log.SetChangedFunc(func() { m.app.Draw() })
	m.state.SetBackgroundColor(tcell.ColorDarkGrey)
	m.state.SetText("running (q to quit)")
	for c, h := range monitorColumns {
		m.table.SetCell(0, c, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}
	m.rows.
		AddItem(m.table, 0, 2, false).
		AddItem(m.log, 0, 1, false).
		AddItem(m.state, 1, 0, false)
	m.app.SetRoot(m.rows, true)
	m.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyRune && ev.Rune() == 'q' {
			m.app.Stop()
			return nil
		}
		return ev
	})
	return m
}

// Run shows the monitor until the user quits or ctx is done.
func (m *monitor) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				st := m.n.Status()
				m.app.QueueUpdateDraw(func() { m.update(st) })
			case <-ctx.Done():
				m.app.Stop()
				return
			case <-done:
				return
			}
		}
	}()
	return m.app.Run()
}

func (m *monitor) update(st []network.NICStatus) {
	for i, s := range st {
		var (
			state = "busy"
			color = tcell.ColorGreen
		)
		switch {
		case s.Halted:
			state, color = "halted", tcell.ColorDarkGrey
		case s.Idle:
			state, color = "idle", tcell.ColorYellow
		}
		row := []string{
			strconv.Itoa(s.Addr),
			state,
			strconv.Itoa(s.Queued),
			strconv.FormatInt(s.Sent, 10),
			strconv.FormatInt(s.Received, 10),
		}
		for c, v := range row {
			cell := tview.NewTableCell(v).SetAlign(tview.AlignRight)
			if c == 1 {
				cell.SetTextColor(color).SetAlign(tview.AlignLeft)
			}
			m.table.SetCell(i+1, c, cell)
		}
	}
}

// Finished reports the outcome of the network run in the status line.
func (m *monitor) Finished(res network.Result, err error) {
	st := m.n.Status()
	m.app.QueueUpdateDraw(func() {
		m.update(st)
		if err != nil {
			m.state.SetTextColor(tcell.ColorWhite)
			m.state.SetBackgroundColor(tcell.ColorDarkRed)
			m.state.SetText(fmt.Sprintf("stopped: %v (q to quit)", err))
			return
		}
		m.state.SetTextColor(tcell.ColorBlack)
		m.state.SetBackgroundColor(tcell.ColorGreen)
		m.state.SetText(fmt.Sprintf("converged: first y %d, repeated y %d after %d recoveries (q to quit)",
			res.First.Y, res.Last.Y, res.Recoveries))
	})
}
