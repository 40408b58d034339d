package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/depixswap/swapd/api"
	"github.com/depixswap/swapd/daemon"
	"github.com/depixswap/swapd/database"
	"github.com/depixswap/swapd/database/models"
	"github.com/depixswap/swapd/swap"
	"github.com/depixswap/swapd/wallet"
	"github.com/depixswap/swapd/wallet/electrum"
	"github.com/depixswap/swapd/wallet/elements"

	_ "github.com/depixswap/swapd/logging"
	_ "github.com/lib/pq"
)

func validatePort(port int64) (uint32, error) {
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port number %d is invalid: must be between 0 and 65535", port)
	}

	return uint32(port), nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info("Received signal, shutting down")
		cancel()

		// Wait for the daemon to shutdown
	}()

	app := &cli.Command{
		Name:  "swapd",
		Usage: "A CLI for the swapd atomic swap daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db-host",
				Usage: "Database host",
				Value: "embedded",
			},
			&cli.StringFlag{
				Name:  "db-user",
				Usage: "Database username",
				Value: "myuser",
			},
			&cli.StringFlag{
				Name:  "db-password",
				Usage: "Database password",
				Value: "mypassword",
			},
			&cli.StringFlag{
				Name:  "db-name",
				Usage: "Database name",
				Value: "postgres",
			},
			&cli.IntFlag{
				Name:  "db-port",
				Usage: "Database port",
				Value: 5433,
			},
			&cli.StringFlag{
				Name:  "db-data-path",
				Usage: "Database path",
				Value: "./.data",
			},
			&cli.BoolFlag{
				Name:  "db-keep-alive",
				Usage: "Keep the database running after the daemon stops for embedded databases",
				Value: false,
			},
			&apiPort,
			&testnet,
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start the swapd daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "electrum-bin",
						Usage: "Path to the electrum executable",
						Value: "electrum",
					},
					&cli.StringFlag{
						Name:  "electrum-wallet",
						Usage: "Path to the electrum wallet file",
					},
					&cli.StringFlag{
						Name:    "electrum-password",
						Usage:   "Electrum wallet password",
						Sources: cli.EnvVars("ELECTRUM_PASSWORD"),
					},
					&cli.StringFlag{
						Name:  "electrum-dir",
						Usage: "Electrum data directory",
					},
					&cli.StringFlag{
						Name:  "elementd-host",
						Usage: "Elements node RPC host",
						Value: "localhost",
					},
					&cli.IntFlag{
						Name:  "elementd-port",
						Usage: "Elements node RPC port",
						Value: 18884,
					},
					&cli.StringFlag{
						Name:    "elementd-user",
						Usage:   "Elements node RPC username",
						Sources: cli.EnvVars("ELEMENTD_RPC_USER"),
					},
					&cli.StringFlag{
						Name:    "elementd-password",
						Usage:   "Elements node RPC password",
						Sources: cli.EnvVars("ELEMENTD_RPC_PASSWORD"),
					},
					&cli.StringFlag{
						Name:  "elementd-wallet",
						Usage: "Elements wallet name",
					},
					&cli.StringFlag{
						Name:  "depix-asset-id",
						Usage: "Asset id of Depix on the Liquid network",
					},
					&cli.DurationFlag{
						Name:  "initiator-timelock",
						Usage: "Duration of the initiator's timelock",
						Value: swap.DefaultInitiatorTimelock,
					},
					&cli.DurationFlag{
						Name:  "acceptor-timelock",
						Usage: "Duration of the acceptor's timelock, must be shorter than the initiator's",
						Value: swap.DefaultAcceptorTimelock,
					},
					&cli.DurationFlag{
						Name:  "monitor-interval",
						Usage: "How often the refund monitor scans for expired locks",
						Value: daemon.DefaultMonitorInterval,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					apiPort, err := validatePort(c.Int("api-port"))
					if err != nil {
						return err
					}

					db, closeDb, err := StartDatabase(c)
					if err != nil {
						return fmt.Errorf("❌ Could not connect to database: %w", err)
					}
					defer func() {
						if err := closeDb(); err != nil {
							log.Errorf("❌ Could not close database: %v", err)
						}
					}()

					if c.String("db-host") == "embedded" {
						dbErr := db.MigrateDatabase()
						if dbErr != nil {
							return dbErr
						}
					} else {
						log.Info("🔍 Skipping database migration")
					}

					wallets, err := buildWallets(c)
					if err != nil {
						return err
					}

					coordinator, err := swap.NewCoordinator(swap.Config{
						Store:             db,
						Wallets:           wallets,
						InitiatorTimelock: c.Duration("initiator-timelock"),
						AcceptorTimelock:  c.Duration("acceptor-timelock"),
					})
					if err != nil {
						return err
					}

					server := api.NewServer(coordinator, apiPort)

					return daemon.Start(ctx, server, coordinator, c.Duration("monitor-interval"))
				},
			},
			{
				Name:  "database",
				Usage: "Database operations",
				Commands: []*cli.Command{
					{
						Name:  "migrate",
						Usage: "Migrate the database",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.MigrateDatabase()
						},
					},
					{
						Name:  "rollback",
						Usage: "Rollback the database",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.Rollback()
						},
					},
					{
						Name:  "reset",
						Usage: "Reset the database",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.Reset()
						},
					},
				},
			},
			{
				Name:  "help",
				Usage: "Show help",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := cli.ShowAppHelp(cmd); err != nil {
						return err
					}

					return nil
				},
			},
		},
	}

	app_err := app.Run(ctx, os.Args)
	if app_err != nil {
		log.Fatal(app_err)
	}
}

var testnet = cli.BoolFlag{
	Name:  "testnet",
	Usage: "Use testnet network",
}

var apiPort = cli.IntFlag{
	Name:  "api-port",
	Usage: "HTTP port for client to daemon communication",
	Value: 8080,
}

func buildWallets(cmd *cli.Command) (map[models.Asset]wallet.Wallet, error) {
	var electrumOpts []electrum.Option
	if password := cmd.String("electrum-password"); password != "" {
		electrumOpts = append(electrumOpts, electrum.WithPassword(password))
	}
	if dir := cmd.String("electrum-dir"); dir != "" {
		electrumOpts = append(electrumOpts, electrum.WithElectrumDir(dir))
	}
	if cmd.Bool("testnet") {
		electrumOpts = append(electrumOpts, electrum.WithTestnet())
	}

	btcWallet, err := electrum.New(cmd.String("electrum-bin"), cmd.String("electrum-wallet"), electrumOpts...)
	if err != nil {
		return nil, fmt.Errorf("❌ Could not set up the bitcoin wallet: %w", err)
	}

	elementdPort, err := validatePort(cmd.Int("elementd-port"))
	if err != nil {
		return nil, err
	}

	var elementsOpts []elements.Option
	if name := cmd.String("elementd-wallet"); name != "" {
		elementsOpts = append(elementsOpts, elements.WithWallet(name))
	}
	if assetID := cmd.String("depix-asset-id"); assetID != "" {
		elementsOpts = append(elementsOpts, elements.WithAssetID(assetID))
	}

	depixWallet := elements.New(
		cmd.String("elementd-host"),
		elementdPort,
		cmd.String("elementd-user"),
		cmd.String("elementd-password"),
		elementsOpts...,
	)

	return map[models.Asset]wallet.Wallet{
		models.AssetBitcoin: btcWallet,
		models.AssetDepix:   depixWallet,
	}, nil
}

func StartDatabase(cmd *cli.Command) (*database.Database, func() error, error) {
	port, err := validatePort(cmd.Int("db-port"))
	if err != nil {
		return nil, nil, err
	}

	db, closeDb, err := database.NewDatabase(
		cmd.String("db-user"),
		cmd.String("db-password"),
		cmd.String("db-name"),
		port,
		cmd.String("db-data-path"),
		cmd.String("db-host"),
		cmd.Bool("db-keep-alive"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("❌ Could not connect to database: %w", err)
	}

	return db, closeDb, nil
}
