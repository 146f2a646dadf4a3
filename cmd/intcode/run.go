package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nf/intcode/intcode"
)

var (
	inputFlag   string
	showMemFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run <program>",
	Short: "Run a program in batch mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseInputs(inputFlag)
		if err != nil {
			return err
		}
		mem, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		return runBatch(cmd.OutOrStdout(), mem, inputs)
	},
}

var devCmd = &cobra.Command{
	Use:   "dev <program>",
	Short: "Re-run a program in batch mode each time its file changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := parseInputs(inputFlag)
		if err != nil {
			return err
		}
		return devMode(cmd.OutOrStdout(), filepath.Clean(args[0]), inputs)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, devCmd} {
		c.Flags().StringVarP(&inputFlag, "input", "i", "", "comma-separated input `values`")
		c.Flags().BoolVar(&showMemFlag, "show-mem0", false, "print the final value at address 0")
		rootCmd.AddCommand(c)
	}
}

// runBatch runs mem to completion with the given inputs and prints its
// outputs. A program that asks for more input than given is an error.
func runBatch(w io.Writer, mem intcode.Memory, inputs []int64) error {
	b := intcode.NewBatch(inputs...)
	m := intcode.NewMachine(mem, b)
	m.Logf = traceFunc(log)
	s, err := m.Run()
	if err != nil {
		return err
	}
	if len(b.Outputs) > 0 {
		fmt.Fprintln(w, formatValues(b.Outputs))
	}
	if showMemFlag {
		fmt.Fprintf(w, "mem[0] = %d\n", m.Mem[0])
	}
	if s == intcode.Suspended {
		return fmt.Errorf("program wants more input at %d", m.IP)
	}
	return nil
}

func devMode(w io.Writer, file string, inputs []int64) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(file)); err != nil {
		return err
	}

	run := time.After(1 * time.Millisecond)
	for {
		select {
		case <-run:
			log.Infof("dev: run %s", filepath.Base(file))
			mem, err := loadProgram(file)
			if err != nil {
				log.Errorf("dev: %v", err)
				break
			}
			if err := runBatch(w, mem, inputs); err != nil {
				log.Errorf("dev: %v", err)
			}
		case ev := <-watcher.Event:
			if ev.Name == file && !ev.IsAttrib() {
				run = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Errorf("dev: watcher: %v", err)
		}
	}
}
