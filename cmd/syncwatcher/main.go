// Command syncwatcher follows the events of a sync contract and stores them
// in an event database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dz0nda/quartz-tezos-contracts/contracts/sync"
	"github.com/dz0nda/quartz-tezos-contracts/executor"
	"github.com/dz0nda/quartz-tezos-contracts/rpc"
	"github.com/dz0nda/quartz-tezos-contracts/scenario"
	"github.com/dz0nda/quartz-tezos-contracts/state"
	"github.com/dz0nda/quartz-tezos-contracts/store"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/dz0nda/quartz-tezos-contracts/watcher"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
)

var Version = "development"

func main() {
	var cfg Config

	flag.StringVar(&cfg.NodeURL, "node", "http://localhost:20000", "tezos node rpc url")
	flag.StringVar(&cfg.SyncContract, "contract", "", "sync contract address, defaults to the one recorded in the persistency file")

	flag.StringVar(&cfg.PersistencyFile, "persistency", "./state.json", "file where last seen level and deployed contracts are stored")
	flag.StringVar(&cfg.DBPath, "db", "./events.db", "event database")
	flag.Int64Var(&cfg.RescanFromLevel, "rescanLevel", 0, "if provided, the watcher will rescan all events from the given level")
	flag.StringVar(&cfg.MetricsAddress, "metrics", "", "address to serve prometheus metrics on, e.g. :9100")
	version := flag.Bool("version", false, "Print the version and exit")
	var debug bool
	flag.BoolVar(&debug, "debug", false, "sets debug level log output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s (version %s):\n", os.Args[0], Version)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("version", Version).Msg("starting syncwatcher")
	log.Info().Str("url", cfg.NodeURL).Msg("Tezos node")

	client, err := rpc.NewClient(cfg.NodeURL, nil)
	if err != nil {
		panic(err)
	}
	blockPersistency := state.NewChainPersistency(cfg.PersistencyFile)
	contract, err := syncContract(cfg, blockPersistency)
	if err != nil {
		panic(err)
	}
	log.Info().Str("contract", contract.String()).Msg("watching sync contract")

	events, err := store.Open(cfg.DBPath)
	if err != nil {
		panic(err)
	}
	defer events.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := sync.New(executor.New(client), nil)
	s.Attach(contract)
	w := watcher.New(client, blockPersistency)
	// events are stored before the watcher records their level
	if err = newEventStorer(ctx, contract, events).register(s, w); err != nil {
		panic(err)
	}

	if cfg.MetricsAddress != "" {
		prometheus.MustRegister(watcher.PromCollectors...)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	go func() {
		err := w.Start(ctx, cfg.RescanFromLevel)
		if err != nil && !errors.Is(err, context.Canceled) {
			panic(err)
		}
	}()

	sigs := make(chan os.Signal, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("awaiting signal")
	sig := <-sigs
	log.Info().Str("signal", sig.String()).Msg("signal")
	cancel()
	log.Info().Msg("exiting")
}

func syncContract(cfg Config, p *state.ChainPersistency) (tezos.Address, error) {
	if cfg.SyncContract != "" {
		return tezos.ParseAddress(cfg.SyncContract)
	}
	addr, ok, err := p.GetContract(scenario.NameSync)
	if err != nil {
		return addr, err
	}
	if !ok {
		return addr, fmt.Errorf("no sync contract recorded in %s", cfg.PersistencyFile)
	}
	return addr, nil
}
