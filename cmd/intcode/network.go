package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nf/intcode/network"
)

var (
	configFlag  string
	sizeFlag    int
	monitorFlag bool
	metricsFlag string
)

var networkCmd = &cobra.Command{
	Use:   "network <program>",
	Short: "Run a network of machines until it converges",
	Long: `Runs one copy of the program per network address. Each machine first
reads its own address, then reads (x, y) packets addressed to it, or -1 when
none are waiting. Output values are sent in groups of three: address, x, y.

Packets sent to the monitor address (255 by default) are kept by the
coordinator. When the whole network is idle, the latest monitor packet is
sent to machine 0. The command prints the y value of the first monitor
packet and the y value that was sent to machine 0 twice in a row.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := network.DefaultConfig()
		if configFlag != "" {
			var err error
			if cfg, err = network.LoadConfig(configFlag); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("size") {
			cfg.Size = sizeFlag
		}
		mem, err := loadProgram(args[0])
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runNetwork(ctx, cmd, mem, cfg)
	},
}

func init() {
	networkCmd.Flags().StringVarP(&configFlag, "config", "c", "", "network configuration `file` (YAML)")
	networkCmd.Flags().IntVar(&sizeFlag, "size", network.DefaultConfig().Size, "number of machines")
	networkCmd.Flags().BoolVar(&monitorFlag, "monitor", false, "show a live view of the network")
	networkCmd.Flags().StringVar(&metricsFlag, "metrics-addr", "", "serve Prometheus metrics on `addr`")
	rootCmd.AddCommand(networkCmd)
}

func runNetwork(ctx context.Context, cmd *cobra.Command, mem []int64, cfg network.Config) error {
	log.WithFields(map[string]any{
		"size":          cfg.Size,
		"poll_interval": cfg.PollInterval.String(),
		"confirm_delay": cfg.ConfirmDelay.String(),
		"monitor_addr":  cfg.MonitorAddr,
	}).Debug("config")

	n, err := network.New(mem, cfg, log)
	if err != nil {
		return err
	}
	if trace {
		for i := 0; i < cfg.Size; i++ {
			n.NIC(i).Machine().Logf = traceFunc(log.WithField("nic", i))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	var mon *monitor
	if monitorFlag {
		mon = newMonitor(n)
		log.SetOutput(mon.log)
		defer log.SetOutput(os.Stderr)
		g.Go(func() error {
			defer cancel()
			return mon.Run(gCtx)
		})
	}

	if metricsFlag != "" {
		reg := prometheus.NewRegistry()
		n.Metrics = network.NewMetrics(reg)
		server := &http.Server{
			Addr:    metricsFlag,
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		log.Infof("serving metrics @ %s", metricsFlag)
		g.Go(func() error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			return server.Shutdown(context.Background())
		})
	}

	var res network.Result
	g.Go(func() error {
		var err error
		res, err = n.Run(gCtx)
		if mon != nil {
			mon.Finished(res, err)
		} else {
			cancel()
		}
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("network stopped before converging")
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "first monitor y: %d\nrepeated y: %d\n", res.First.Y, res.Last.Y)
	return nil
}
