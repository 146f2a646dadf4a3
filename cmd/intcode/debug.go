package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"

	"github.com/nf/intcode/intcode"
)

var debugCmd = &cobra.Command{
	Use:   "debug <program>",
	Short: "Step through a program in a terminal debugger",
	Long: `Commands:
  s, step         execute one instruction
  c, continue     run until halt, input wait, fault or break
  b, break ADDR   break before executing ADDR (no ADDR clears it)
  w, watch ADDR   show the value at ADDR
  i, input V...   queue input values
  l, line TEXT    queue TEXT and a newline as ASCII input
  exit            leave the debugger`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseInputs(inputFlag)
		if err != nil {
			return err
		}
		mem, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		d := newDebugger(mem)
		d.in.PushInput(inputs...)
		log.SetOutput(d.log)
		defer log.SetOutput(os.Stderr)
		return d.Run()
	},
}

func init() {
	debugCmd.Flags().StringVarP(&inputFlag, "input", "i", "", "comma-separated input `values`")
	rootCmd.AddCommand(debugCmd)
}

type debugger struct {
	in *intcode.Interactive

	log   *tview.TextView
	watch *tview.TextView
	state *tview.TextView
	input *tview.InputField
	cols  *tview.Flex
	rows  *tview.Flex
	app   *tview.Application

	mu      sync.Mutex
	brk     int64 // -1 for none
	watches []int64
	last    intcode.State
	fault   error
}

func newDebugger(mem intcode.Memory) *debugger {
	d := &debugger{
		in:  intcode.NewInteractive(mem),
		brk: -1,
		log: tview.NewTextView().
			SetMaxLines(1000),
		watch: tview.NewTextView().
			SetWrap(false).
			SetTextAlign(tview.AlignRight),
		state: tview.NewTextView().
			SetWrap(false),
		input: tview.NewInputField(),
		cols:  tview.NewFlex(),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
		app: tview.NewApplication(),
	}
	// The log is only written from the input handler; the app
	// redraws after each event.
	d.watch.SetBackgroundColor(tcell.ColorDarkBlue)
	d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	d.cols.
		AddItem(d.watch, 0, 1, false).
		AddItem(d.log, 0, 2, false)
	d.rows.
		AddItem(d.cols, 0, 1, false).
		AddItem(d.state, 3, 0, false).
		AddItem(d.input, 1, 0, true)
	d.app.SetRoot(d.rows, true)

	d.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := d.input.GetText()
		d.input.SetText("")
		if cmd == "exit" {
			d.app.Stop()
			return
		}
		if err := d.command(cmd); err != nil {
			log.Print(err)
		}
		d.refresh()
	})
	d.refresh()
	return d
}

func (d *debugger) Run() error { return d.app.Run() }

// command executes one debugger command.
func (d *debugger) command(line string) error {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	d.mu.Lock()
	defer d.mu.Unlock()
	switch cmd {
	case "", "s", "step":
		d.step(1)
	case "c", "continue":
		d.step(-1)
	case "b", "break":
		if arg == "" {
			d.brk = -1
			log.Print("cleared break")
			return nil
		}
		addr, err := d.addr(arg)
		if err != nil {
			return err
		}
		d.brk = addr
		log.Printf("set break %.4d", addr)
	case "w", "watch":
		addr, err := d.addr(arg)
		if err != nil {
			return err
		}
		d.watches = append(d.watches, addr)
	case "i", "input":
		vs, err := parseInputs(strings.Join(strings.Fields(arg), ","))
		if err != nil {
			return err
		}
		d.in.PushInput(vs...)
	case "l", "line":
		d.in.PushLine(arg)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (d *debugger) addr(s string) (int64, error) {
	a, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || a < 0 || a >= int64(len(d.in.Machine().Mem)) {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return a, nil
}

// step executes up to n instructions, or until stopped if n is negative.
// It stops early at a breakpoint, an input wait, a halt or a fault.
func (d *debugger) step(n int) {
	m := d.in.Machine()
	if d.fault != nil {
		log.Printf("machine faulted: %v", d.fault)
		return
	}
	for i := 0; n < 0 || i < n; i++ {
		if i > 0 && m.IP == d.brk {
			d.last = intcode.Running
			log.Printf("break at %.4d", m.IP)
			break
		}
		s, err := m.Step()
		if err != nil {
			d.fault = err
			log.Print(err)
			break
		}
		d.last = s
		if s != intcode.Running {
			break
		}
	}
	text, other := d.in.FetchString()
	if text != "" {
		fmt.Fprint(d.log, text)
	}
	for _, v := range other {
		fmt.Fprintf(d.log, "%d\n", v)
	}
}

func (d *debugger) refresh() {
	d.mu.Lock()
	var (
		watch = d.watchContent()
		state = d.stateMsg()
		kind  = d.last
		fault = d.fault
	)
	d.mu.Unlock()
	d.watch.SetText(watch)
	d.state.SetText(state)
	switch {
	case fault != nil:
		d.state.SetTextColor(tcell.ColorWhite)
		d.state.SetBackgroundColor(tcell.ColorDarkRed)
	case kind == intcode.Suspended:
		d.state.SetTextColor(tcell.ColorYellow)
		d.state.SetBackgroundColor(tcell.ColorDarkBlue)
	case kind == intcode.Halted:
		d.state.SetTextColor(tcell.ColorWhite)
		d.state.SetBackgroundColor(tcell.ColorDarkBlue)
	default:
		d.state.SetTextColor(tcell.ColorBlack)
		d.state.SetBackgroundColor(tcell.ColorDarkGrey)
	}
}

func (d *debugger) stateMsg() string {
	m := d.in.Machine()
	op, _ := intcode.Disassemble(m.Mem, int(m.IP))
	kind := "       "
	switch {
	case d.fault != nil:
		kind = "[FAULT]"
	case d.last == intcode.Suspended:
		kind = "[input]"
	case d.last == intcode.Halted:
		kind = "[halt] "
	}
	return fmt.Sprintf("%.4d %-20s %s\npending input: %d\n",
		m.IP, op, kind, d.in.Pending())
}

func (d *debugger) watchContent() string {
	m := d.in.Machine()
	var b strings.Builder
	if d.brk >= 0 {
		fmt.Fprintf(&b, "[%.4d] brk!", d.brk)
	}
	for _, a := range d.watches {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%.4d] %d", a, m.Mem[a])
	}
	return b.String()
}
