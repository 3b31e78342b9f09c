package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/weegigs/wee-counter-go/client"
	"github.com/weegigs/wee-counter-go/display"
	"github.com/weegigs/wee-counter-go/simulator"
	"github.com/weegigs/wee-counter-go/support"
)

type options struct {
	url         string
	host        string
	timeout     time.Duration
	simulate    string
	delay       time.Duration
	failureRate float64
	logFile     string
}

func newRootCommand(cfg support.Config) *cobra.Command {
	opts := &options{
		url:         cfg.Client.APIURL,
		host:        cfg.Client.Host,
		timeout:     cfg.Client.Timeout,
		simulate:    "none",
		failureRate: -1,
		delay:       -1,
	}

	root := &cobra.Command{
		Use:          "counter",
		Short:        "Show and increment a remote count",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisplay(cmd, opts, cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.url, "url", opts.url, "count endpoint, relative urls resolve against --host")
	flags.StringVar(&opts.host, "host", opts.host, "host for relative endpoints")
	flags.DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")
	flags.StringVar(&opts.simulate, "simulate", opts.simulate, "serve requests from a simulator (none, counter, random)")
	flags.DurationVar(&opts.delay, "delay", opts.delay, "simulated latency, negative keeps the simulator default")
	flags.Float64Var(&opts.failureRate, "failure-rate", opts.failureRate, "simulated failure rate, negative keeps the simulator default")
	root.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file while the display runs")

	root.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGet(cmd, opts, cfg)
			},
		},
		&cobra.Command{
			Use:   "increment",
			Short: "Increment the count and print the result",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runIncrement(cmd, opts, cfg)
			},
		},
	)

	return root
}

func (o *options) faults(nominal time.Duration, rate float64) simulator.Faults {
	faults := simulator.Faults{Delay: nominal, FailureRate: rate}
	if o.delay >= 0 {
		faults.Delay = o.delay
	}
	if o.failureRate >= 0 {
		faults.FailureRate = o.failureRate
	}

	return faults
}

func (o *options) backend() (simulator.Backend, error) {
	switch o.simulate {
	case "", "none":
		return nil, nil
	case "counter":
		return simulator.NewCounter(
			simulator.WithReadFaults(o.faults(simulator.DefaultReadDelay, 0)),
			simulator.WithIncrementFaults(o.faults(simulator.DefaultIncrementDelay, simulator.DefaultIncrementFailure)),
		), nil
	case "random":
		return simulator.NewRandom(
			simulator.WithFaults(o.faults(simulator.DefaultRandomDelay, simulator.DefaultRandomFailure)),
		), nil
	default:
		return nil, errors.Errorf("unknown simulator %q", o.simulate)
	}
}

func (o *options) controller(log zerolog.Logger) (*client.Controller, error) {
	if o.failureRate > 1 {
		return nil, errors.Errorf("failure rate must be within [0, 1], got %v", o.failureRate)
	}

	backend, err := o.backend()
	if err != nil {
		return nil, err
	}

	settings := []client.Option{
		client.WithHost(o.host),
		client.WithTimeout(o.timeout),
		client.WithLogger(log),
	}
	if backend != nil {
		settings = append(settings, client.WithTransport(simulator.NewTransport(backend)))
	}

	return client.NewController(o.url, settings...), nil
}

func ready(ctx context.Context, controller *client.Controller) (client.State, error) {
	select {
	case <-controller.Ready():
		return controller.State(), nil
	case <-ctx.Done():
		return client.State{}, ctx.Err()
	}
}

func runGet(cmd *cobra.Command, opts *options, cfg support.Config) error {
	log, err := support.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	controller, err := opts.controller(log)
	if err != nil {
		return err
	}
	defer controller.Close()

	state, err := ready(cmd.Context(), controller)
	if err != nil {
		return err
	}
	if state.Failed() {
		return errors.New(state.Error)
	}

	count, _ := state.Count()
	_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
	return err
}

func runIncrement(cmd *cobra.Command, opts *options, cfg support.Config) error {
	log, err := support.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	controller, err := opts.controller(log)
	if err != nil {
		return err
	}
	defer controller.Close()

	if _, err := ready(cmd.Context(), controller); err != nil {
		return err
	}

	state, err := controller.IncrementCount(cmd.Context())
	if err != nil {
		return err
	}

	count, _ := state.Count()
	_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
	return err
}

func runDisplay(cmd *cobra.Command, opts *options, cfg support.Config) error {
	log := zerolog.Nop()
	if opts.logFile != "" {
		file, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "failed to open log file")
		}
		defer file.Close()

		if log, err = support.NewLoggerTo(cfg.Logging, file); err != nil {
			return err
		}
	}

	controller, err := opts.controller(log)
	if err != nil {
		return err
	}
	defer controller.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := display.New(ctx, controller, display.WithLogger(log), display.WithTitle(controller.BaseURL()))
	defer model.Close()

	_, err = tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "display failed")
	}

	return nil
}
