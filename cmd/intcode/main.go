// Command intcode executes Intcode programs, alone or as a network.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nf/intcode/intcode"
)

var (
	log = logrus.New()

	logLevel string
	trace    bool
)

var rootCmd = &cobra.Command{
	Use:           "intcode",
	Short:         "Execute Intcode programs",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if trace {
			log.SetLevel(logrus.TraceLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log `level` (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&trace, "trace", false, "log every executed instruction")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// loadProgram reads an Intcode program from file.
func loadProgram(file string) (intcode.Memory, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	mem, err := intcode.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return mem, nil
}

// parseInputs parses a comma-separated list of input values.
func parseInputs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var vs []int64
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q: %w", f, err)
		}
		vs = append(vs, v)
	}
	return vs, nil
}

// traceFunc returns a Machine.Logf that logs at trace level,
// or nil if tracing is disabled.
func traceFunc(l logrus.Ext1FieldLogger) func(string, ...any) {
	if !trace {
		return nil
	}
	return func(format string, args ...any) {
		l.Tracef(format, args...)
	}
}

func formatValues(vs []int64) string {
	ss := make([]string, len(vs))
	for i, v := range vs {
		ss[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(ss, ",")
}
