package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"go.dedis.ch/incidents/gui/httpnode/controller"
	"go.dedis.ch/incidents/internal/logging"
	"go.dedis.ch/incidents/internal/metrics"
	"go.dedis.ch/incidents/internal/params"
	"go.dedis.ch/incidents/internal/simulation"
	"go.dedis.ch/incidents/peer"
	"golang.org/x/xerrors"
)

var paramsFlag = &cli.StringFlag{
	Name:    "params",
	Aliases: []string{"p"},
	Usage:   "parameter file, one key=value per line",
}

var setFlag = &cli.StringSliceFlag{
	Name:  "set",
	Usage: "overrides a parameter, as key=value",
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "incidentsim",
		Usage:     "simulate reputation based incident validation",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
				Usage: "one of trace, debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:  "console",
				Usage: "human readable logs",
			},
		},
		Before: func(c *cli.Context) error {
			_, err := logging.Setup(logging.Options{
				Level:   c.String("log-level"),
				Console: c.Bool("console"),
			})
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run a simulation",
				Flags: []cli.Flag{
					paramsFlag,
					setFlag,
					&cli.BoolFlag{
						Name:    "interactive",
						Aliases: []string{"i"},
						Usage:   "ask for the main parameters",
					},
					&cli.StringFlag{
						Name:  "http",
						Usage: "address to serve the metrics and the reputations on",
					},
				},
				Action: runAction,
			},
			{
				Name:   "check",
				Usage:  "validate the parameters and print the population",
				Flags:  []cli.Flag{paramsFlag, setFlag},
				Action: checkAction,
			},
			{
				Name:  "keys",
				Usage: "list the parameter keys",
				Action: func(c *cli.Context) error {
					for _, key := range params.Keys() {
						fmt.Fprintln(c.App.Writer, key)
					}
					return nil
				},
			},
		},
	}
}

// loads the parameter file, if any, and applies the overrides
func loadParameters(c *cli.Context) (params.Parameters, error) {
	p := params.Default()

	if c.String("params") != "" {
		var err error
		p, err = params.Load(c.String("params"))
		if err != nil {
			return p, err
		}
	}

	for _, override := range c.StringSlice("set") {
		key, value, found := strings.Cut(override, "=")
		if !found {
			return p, xerrors.Errorf("override %q is not key=value", override)
		}

		err := p.Set(key, value)
		if err != nil {
			return p, err
		}
	}

	return p, nil
}

func checkAction(c *cli.Context) error {
	p, err := loadParameters(c)
	if err != nil {
		return err
	}

	err = p.Validate()
	if err != nil {
		return err
	}

	groups := simulation.NewGroups(p)
	protocol := p.Protocol()

	fmt.Fprintf(c.App.Writer, "nodes: %d selfish, %d altruistic, %d malicious, %d random\n",
		groups.Selfish, groups.Altruistic, groups.Malicious, groups.Random)
	fmt.Fprintf(c.App.Writer, "validation: %s mode, %s weights, thresholds %g/%g/%g\n",
		protocol.Mode, protocol.WeightFunction, protocol.ConfirmationThreshold,
		protocol.FalseIncidentThreshold, protocol.ReputationThreshold)
	fmt.Fprintf(c.App.Writer, "duration: %s, one incident every %s\n",
		p.Duration, p.GenerationInterval)

	return nil
}

func runAction(c *cli.Context) error {
	p, err := loadParameters(c)
	if err != nil {
		return err
	}

	if c.Bool("interactive") {
		err = askParameters(&p)
		if err != nil {
			return xerrors.Errorf("failed to ask parameters: %v", err)
		}
	}

	var opts []simulation.Option

	if p.EventListFile != "" {
		events, err := simulation.LoadEvents(p.EventListFile)
		if err != nil {
			return err
		}
		opts = append(opts, simulation.WithEvents(events))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// the simulation closes the sinks once created, until then they are
	// closed here
	var sinks []simulation.TraceSink
	defer func() {
		if sinks != nil {
			closeSinks(sinks)
		}
	}()

	if p.ReputationTraceFile != "" {
		sink, err := simulation.CreateCSVSink(p.ReputationTraceFile)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		opts = append(opts, simulation.WithSink(sink))
	}

	if p.FirestoreCredentials != "" {
		sink, err := simulation.NewFirestoreSink(ctx, p.FirestoreCredentials, p.FirestoreCollection)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		log.Info().Str("run", sink.Run()).Msg("storing samples in firestore")
		opts = append(opts, simulation.WithSink(sink))
	}

	var collector *metrics.Collector
	if c.String("http") != "" {
		collector = metrics.NewCollector()
		opts = append(opts, simulation.WithObserver(func(profile peer.Profile, before, after peer.ReputationState) {
			collector.ObserveReputation(profile, before, after)
		}))
	}

	sim, err := simulation.New(p, opts...)
	if err != nil {
		return err
	}

	sinks = nil

	if collector != nil {
		collector.WatchGenerated(sim.Generated)

		stop := serveHTTP(c.String("http"), collector, sim)
		defer stop()
	}

	report, err := sim.Run(ctx)
	if err != nil && !xerrors.Is(err, context.Canceled) {
		return err
	}

	return report.WriteSummary(c.App.Writer)
}

// serves the metrics and the controllers until the returned function is
// called
func serveHTTP(addr string, collector *metrics.Collector, sim *simulation.Simulation) func() {
	logger := log.With().Str("component", "http").Logger()

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/reputations", controller.NewReputationCtrl(sim.Nodes, &logger).ReputationHandler())
	mux.Handle("/incident", controller.NewIncidentCtrl(sim.Nodes, &logger).IncidentHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Err(err).Msg("server failed")
		}
	}()

	logger.Info().Str("addr", addr).Msg("serving")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := server.Shutdown(ctx)
		if err != nil {
			logger.Err(err).Msg("failed to shutdown")
		}
	}
}

func closeSinks(sinks []simulation.TraceSink) {
	for _, sink := range sinks {
		err := sink.Close()
		if err != nil {
			log.Err(err).Msg("failed to close sink")
		}
	}
}
