package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nf/intcode/intcode"
)

var asciiCmd = &cobra.Command{
	Use:   "ascii <program>",
	Short: "Talk to a program that speaks the ASCII line protocol",
	Long: `Runs the program interactively. Output values 0-255 are printed as
text and any other value is printed as a number on its own line. Each time
the program waits for input a line is read from standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mem, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		return asciiSession(cmd.InOrStdin(), cmd.OutOrStdout(), mem)
	},
}

func init() {
	rootCmd.AddCommand(asciiCmd)
}

var errInputClosed = errors.New("program wants input but input is closed")

func asciiSession(r io.Reader, w io.Writer, mem intcode.Memory) error {
	var (
		in = bufio.NewScanner(r)
		i  = intcode.NewInteractive(mem)
	)
	i.Machine().Logf = traceFunc(log)
	for {
		s, err := i.Run()
		text, other := i.FetchString()
		io.WriteString(w, text)
		for _, v := range other {
			fmt.Fprintln(w, v)
		}
		if err != nil {
			return err
		}
		if s == intcode.Halted {
			return nil
		}
		if !in.Scan() {
			if err := in.Err(); err != nil {
				return err
			}
			return errInputClosed
		}
		log.WithField("line", in.Text()).Debug("ascii: input")
		i.PushLine(in.Text())
	}
}
