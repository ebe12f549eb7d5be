package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/metrics"
	"github.com/moffa90/go-autoprog/programmer"
	"github.com/moffa90/go-autoprog/simulator"
	"github.com/moffa90/go-autoprog/target"
)

func newRunCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run",
		Short: "Program targets, one session per attempt",
		Long: `Run programming sessions against a target, one after another, the way the
programmer's firmware loop does on a bench.

The ISP side is simulated (--simulate gives the signature the simulated chip
reports). With --power-pin the target supply and the status LED are driven
through real GPIO pins, which makes the command a bench check of the power
switch and indicator wiring.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}

	c.Flags().StringP("config", "c", "", "YAML bench configuration file")
	c.Flags().String("simulate", "", "Signature of the simulated target, ie 0x9507")
	c.Flags().String("power-pin", "", "GPIO pin switching the target supply, ie GPIO17")
	c.Flags().String("led-pin", "", "GPIO pin driving the status LED")
	c.Flags().Bool("power-active-low", false, "Drive the power pin low to switch the target on")
	c.Flags().Duration("power-settle", 0, "Delay after switching the supply")
	c.Flags().Duration("timeout", 0, "Timeout for every hardware call (overrides the individual timeouts)")
	c.Flags().Duration("page-timeout", 0, "Timeout for each flash page write")
	c.Flags().IntP("attempts", "n", 0, "Number of sessions to run")
	c.Flags().Duration("interval", 0, "Pause between sessions")
	c.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, ie :9101")
	c.Flags().Bool("no-progress", false, "Do not draw a progress bar")
	return c
}

// applyRunFlags overrides cfg with the flags given on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *benchConfig) {
	flags := cmd.Flags()
	if flags.Changed("simulate") {
		cfg.Simulate, _ = flags.GetString("simulate")
	}
	if flags.Changed("power-pin") {
		cfg.PowerPin, _ = flags.GetString("power-pin")
	}
	if flags.Changed("led-pin") {
		cfg.LEDPin, _ = flags.GetString("led-pin")
	}
	if flags.Changed("power-active-low") {
		cfg.PowerActiveLow, _ = flags.GetBool("power-active-low")
	}
	if flags.Changed("power-settle") {
		cfg.PowerSettle, _ = flags.GetDuration("power-settle")
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.PowerTimeout, cfg.CommandTimeout, cfg.PageTimeout = d, d, d
	}
	if flags.Changed("page-timeout") {
		cfg.PageTimeout, _ = flags.GetDuration("page-timeout")
	}
	if flags.Changed("attempts") {
		cfg.Attempts, _ = flags.GetInt("attempts")
	}
	if flags.Changed("interval") {
		cfg.Interval, _ = flags.GetDuration("interval")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	cfg, err := loadBenchConfig(configPath)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, &cfg)
	if err := cfg.validate(); err != nil {
		return err
	}

	sig, err := parseSignature(cfg.Simulate)
	if err != nil {
		return err
	}
	sim := simulator.New(sig)

	device, err := openDevice(cfg, sim)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, reg)
		defer srv.Close()
	}

	bar := &progressBar{out: cmd.ErrOrStderr(), enabled: !noProgress}
	ctrl := programmer.New(device, catalog.Builtin(),
		programmer.WithLogger(glogLogger{}),
		programmer.WithProgressCallback(func(p programmer.Progress) {
			rec.Progress(p)
			bar.update(p)
		}),
		programmer.WithResultCallback(rec.Observe),
		programmer.WithPowerTimeout(cfg.PowerTimeout),
		programmer.WithCommandTimeout(cfg.CommandTimeout),
		programmer.WithFlashTimeout(cfg.PageTimeout),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runAttempts(ctx, cmd.OutOrStdout(), ctrl, cfg)
}

// runAttempts runs cfg.Attempts sessions. An interrupt stops the loop between
// sessions; a session that already powered the target runs to completion.
func runAttempts(ctx context.Context, out io.Writer, ctrl *programmer.Controller, cfg benchConfig) error {
	failed := 0
	ran := 0

	for i := 1; i <= cfg.Attempts; i++ {
		if i > 1 && cfg.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.Interval):
			}
		}

		result, err := ctrl.Run(ctx)
		if result == nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintf(out, "interrupted after %d sessions\n", ran)
				break
			}
			return err
		}

		ran++
		printResult(out, i, result)
		if !result.Succeeded() {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, ran)
	}
	return nil
}

func printResult(out io.Writer, attempt int, r *programmer.Result) {
	chip := fmt.Sprintf("0x%04X", r.Signature)
	if r.Profile != nil {
		chip = fmt.Sprintf("%s (0x%04X)", r.Profile.Name, r.Signature)
		if r.Alias != nil {
			chip = fmt.Sprintf("%s as %s (0x%04X)", r.Alias.Name, r.Profile.Name, r.Signature)
		}
	}

	if !r.Succeeded() {
		fmt.Fprintf(out, "#%d %s: FAILED %v\n", attempt, chip, r.Err)
		return
	}

	fmt.Fprintf(out, "#%d %s: programmed %d pages, %d bytes in %s\n",
		attempt, chip, r.Flash.Pages, r.Flash.Bytes, r.Duration.Round(time.Millisecond))
	if r.Warning != nil {
		fmt.Fprintf(out, "#%d warning: %v\n", attempt, r.Warning)
	}
}

func parseSignature(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid signature %q: want a 16-bit value such as 0x9507", s)
	}
	return uint16(v), nil
}

// openDevice returns sim itself, or a GPIO board using sim as its ISP link
// when a power pin is configured.
func openDevice(cfg benchConfig, sim *simulator.Target) (target.Device, error) {
	if cfg.PowerPin == "" {
		return sim, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initialize GPIO host: %w", err)
	}

	power := gpioreg.ByName(cfg.PowerPin)
	if power == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", cfg.PowerPin)
	}

	var led gpio.PinOut
	if cfg.LEDPin != "" {
		p := gpioreg.ByName(cfg.LEDPin)
		if p == nil {
			return nil, fmt.Errorf("no GPIO pin named %q", cfg.LEDPin)
		}
		led = p
	}

	opts := []target.BoardOption{
		target.WithPowerSettle(cfg.PowerSettle),
		target.WithBlinkTiming(cfg.BlinkTick, 4*cfg.BlinkTick),
	}
	if cfg.PowerActiveLow {
		opts = append(opts, target.WithPowerActiveLow())
	}

	glog.Infof("bench pins: power=%s led=%s", power, cfg.LEDPin)
	return target.NewBoard(sim, power, led, opts...), nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("metrics server: %v", err)
		}
	}()
	glog.Infof("serving metrics on %s/metrics", addr)
	return srv
}
