// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/insolar/insconfig"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/nigdaemon/truffle/configuration"
	"github.com/nigdaemon/truffle/genealogy"
	"github.com/nigdaemon/truffle/instrumentation/inslogger"
	"github.com/nigdaemon/truffle/resolution"
	"github.com/nigdaemon/truffle/storage"
)

const (
	configFlag = "config"
	chainFlag  = "chain"
)

func migrateCommand(configPath *string) *cobra.Command {
	var chainID string
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Resolve and persist the network genealogy of one chain",
		Long: `Reads the configured artifact directory, resolves how the networks observed
there relate to each other and to previously-known networks, and persists the
resulting genealogy links.`,
		Run: func(cmd *cobra.Command, args []string) {
			runMigrate(*configPath, genealogy.ChainID(chainID))
		},
	}
	c.Flags().StringVar(&chainID, chainFlag, "", "chain identifier to resolve")
	c.MarkFlagRequired(chainFlag) // nolint
	return c
}

func networksCommand(configPath *string) *cobra.Command {
	c := &cobra.Command{
		Use:   "networks",
		Short: "Manage known networks in the genealogy store",
	}
	c.AddCommand(networksAddCommand(configPath))
	return c
}

func networksAddCommand(configPath *string) *cobra.Command {
	var (
		id      string
		name    string
		chainID string
		height  uint64
		hash    string
	)
	c := &cobra.Command{
		Use:   "add",
		Short: "Register a known network for relation queries",
		Run: func(cmd *cobra.Command, args []string) {
			runNetworksAdd(*configPath, genealogy.Network{
				ID:      genealogy.NetworkID(id),
				Name:    name,
				ChainID: genealogy.ChainID(chainID),
				Block: genealogy.HistoricBlock{
					Hash:   genealogy.BlockHash(hash),
					Height: height,
				},
			})
		},
	}
	c.Flags().StringVar(&id, "id", "", "network identifier")
	c.Flags().StringVar(&name, "name", "", "network display name")
	c.Flags().StringVar(&chainID, chainFlag, "", "chain identifier")
	c.Flags().Uint64Var(&height, "height", 0, "historic block height")
	c.Flags().StringVar(&hash, "hash", "", "historic block hash")
	c.MarkFlagRequired("id")      // nolint
	c.MarkFlagRequired(chainFlag) // nolint
	c.MarkFlagRequired("hash")    // nolint
	return c
}

type configPathGetter struct {
	path string
}

func (g configPathGetter) GetConfigPath() string {
	return g.path
}

func readConfig(configPath string) configuration.Configuration {
	cfg := configuration.NewConfiguration()
	if configPath == "" {
		return cfg
	}
	jww.SetStdoutThreshold(jww.LevelError)
	insConfigurator := insconfig.New(insconfig.Params{
		EnvPrefix:        cmdName,
		ConfigPathGetter: configPathGetter{path: configPath},
	})
	if err := insConfigurator.Load(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration from file:", err)
		os.Exit(1)
	}
	return cfg
}

func setup(configPath string) (context.Context, context.CancelFunc, zerolog.Logger, configuration.Configuration) {
	cfg := readConfig(configPath)

	ctx, cancel := context.WithCancel(context.Background())
	ctx, logger, err := inslogger.InitNodeLogger(ctx, cfg.Log, cmdName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to configure logging:", err)
		os.Exit(1)
	}

	signChan := make(chan os.Signal, 1)
	signal.Notify(signChan, os.Interrupt, syscall.SIGTERM)
	go stopper(cancel, signChan)

	return ctx, cancel, logger, cfg
}

func stopper(cancel context.CancelFunc, signChan chan os.Signal) {
	sig := <-signChan
	cancel()
	fmt.Println("caught sig:", sig)
}

func runMigrate(configPath string, chainID genealogy.ChainID) {
	ctx, cancel, logger, cfg := setup(configPath)
	defer cancel()
	fmt.Printf("Starts with configuration:\n%s\n", configuration.ToString(&cfg))

	svc := resolution.NewService(ctx, cfg)
	if err := svc.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to init resolution service")
	}
	defer func() {
		if err := svc.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to stop resolution service")
		}
	}()

	events, err := svc.Subscribe(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe to resolution events")
	}
	go func() {
		for msg := range events {
			logger.Info().Str("payload", string(msg.Payload)).Msg("genealogy resolved")
			msg.Ack()
		}
	}()

	ids, err := svc.ResolveChain(ctx, chainID)
	if err != nil {
		logger.Error().Err(err).Str("chain", string(chainID)).Msg("resolution failed")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func runNetworksAdd(configPath string, network genealogy.Network) {
	ctx, cancel, logger, cfg := setup(configPath)
	defer cancel()

	store := storage.NewStore(cfg.Storage)
	if err := store.Init(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to open genealogy store")
	}
	defer func() {
		if err := store.Stop(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to close genealogy store")
		}
	}()

	if err := store.AddNetwork(ctx, network); err != nil {
		logger.Error().Err(err).Str("network", string(network.ID)).Msg("failed to register network")
		return
	}
	fmt.Println("registered network", network.ID)
}
