package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"
	"time"

	"solana-wallet-monitor/config"
	"solana-wallet-monitor/pkg/firebase"
	cloudmessaging "solana-wallet-monitor/pkg/firebase/cloud-messaging"
	"solana-wallet-monitor/pkg/logger"
	"solana-wallet-monitor/pkg/mongodb"
	"solana-wallet-monitor/services/health"
	"solana-wallet-monitor/services/history"
	"solana-wallet-monitor/services/migration"
	"solana-wallet-monitor/services/monitor"
	"solana-wallet-monitor/services/notifier"
	"solana-wallet-monitor/services/presenter"
	"solana-wallet-monitor/services/resolver"
	"solana-wallet-monitor/services/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	archiveWriteTimeout = 5 * time.Second
	pushSendTimeout     = 10 * time.Second
	shutdownTimeout     = 5 * time.Second
)

type options struct {
	address string
	max     int
	network string
}

func newRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "solana-wallet-monitor",
		Short: "Watch a Solana wallet for new transactions",
		Long: `Subscribe to the logs of a Solana wallet and print a summary of every new
transaction until the requested number of transactions was seen, the stream
closes or the process is interrupted.

Example:
  solana-wallet-monitor --address 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM --max 5
  solana-wallet-monitor --network mainnet`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.GetConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if cmd.Flags().Changed("network") {
				if err := cfg.UseNetwork(opts.network); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("address") {
				opts.address = cfg.WalletAddress
			}
			if !cmd.Flags().Changed("max") {
				opts.max = cfg.MaxTransactions
			}

			p := newPrompter(bufio.NewReader(in), out)
			if opts.address == "" {
				if opts.address, err = p.address(); err != nil {
					return err
				}
				if !cmd.Flags().Changed("max") && cfg.MaxTransactions == 0 {
					if opts.max, err = p.max(); err != nil {
						return err
					}
				}
			}
			if opts.max < 0 {
				return errors.New("max must not be negative")
			}

			return run(cmd.Context(), cfg, opts, out)
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "wallet address to monitor (WALLET_ADDRESS)")
	cmd.Flags().IntVarP(&opts.max, "max", "m", 0, "stop after this many unique transactions, 0 watches until interrupted (MAX_TRANSACTIONS)")
	cmd.Flags().StringVarP(&opts.network, "network", "n", config.DEVNET, "devnet, testnet, mainnet or local (NETWORK)")

	cmd.SetIn(in)
	cmd.SetOut(out)

	return cmd
}

func run(parent context.Context, cfg *config.Config, opts *options, out io.Writer) error {
	// Init logger
	newLogger, err := logger.NewLogger(cfg.Environment, "monitor")
	if err != nil {
		return fmt.Errorf("can't create logger: %w", err)
	}

	zapLogger, err := newLogger.SetupZapLogger()
	if err != nil {
		return fmt.Errorf("can't setup zap logger: %w", err)
	}
	defer func(zapLogger *zap.SugaredLogger) {
		err := zapLogger.Sync()
		if err != nil && !errors.Is(err, syscall.ENOTTY) && !errors.Is(err, syscall.EINVAL) {
			log.Printf("can't sync zap logger: %v", err)
		}
	}(zapLogger)

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Resolver
	txResolver, err := resolver.NewResolver(resolver.Options{
		Endpoint:       cfg.RpcUrl,
		Commitment:     cfg.Commitment,
		RateLimitDelay: cfg.RateLimitDelay,
		RequestTimeout: cfg.RequestTimeout,
	}, zapLogger.Named("resolver"))
	if err != nil {
		return fmt.Errorf("failed to create resolver - %w", err)
	}

	// Sinks
	console, err := presenter.NewConsole(out, txResolver, cfg.Network)
	if err != nil {
		return fmt.Errorf("failed to create console presenter - %w", err)
	}
	sinks := monitor.FanOut{console}
	checks := map[string]health.Check{}
	var handlers []routes

	if cfg.PersistenceEnabled() {
		db, err := connectMongo(ctx, cfg, zapLogger)
		if err != nil {
			return err
		}
		defer func() {
			if err := mongodb.Close(context.Background(), db); err != nil {
				zapLogger.Errorf("failed to disconnect from mongodb: %v", err)
			}
		}()

		repository, err := history.NewRepository(db, cfg.MongoDbName, zapLogger.Named("history"))
		if err != nil {
			return fmt.Errorf("failed to create history repository - %w", err)
		}

		archive, err := history.NewArchive(repository, archiveWriteTimeout, zapLogger.Named("history"))
		if err != nil {
			return fmt.Errorf("failed to create history archive - %w", err)
		}

		historyHandler, err := history.NewHandler(repository)
		if err != nil {
			return fmt.Errorf("failed to create history handler - %w", err)
		}

		sinks = append(sinks, archive)
		handlers = append(handlers, historyHandler)
		checks["mongodb"] = func(ctx context.Context) error { return mongodb.Ping(ctx, db) }
	}

	if cfg.PushEnabled() {
		push, err := newNotifier(ctx, cfg, zapLogger)
		if err != nil {
			return err
		}
		sinks = append(sinks, push)
	}

	// Services
	newSubscriber := func() (stream.Subscriber, error) {
		return stream.NewSubscriber(stream.Options{
			Endpoint:    cfg.WsUrl,
			Commitment:  cfg.Commitment,
			DialTimeout: cfg.DialTimeout,
			IdleTimeout: cfg.IdleTimeout,
		}, zapLogger.Named("stream"))
	}

	monitorService, err := monitor.NewService(newSubscriber, txResolver, sinks, monitor.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Target:      cfg.MaxTransactions,
		Pacing:      cfg.Pacing,
	}, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to create monitor service - %w", err)
	}

	// Handlers
	monitorHandler, err := monitor.NewHandler(monitorService)
	if err != nil {
		return fmt.Errorf("failed to create monitor handler - %w", err)
	}

	app := newServer(append([]routes{health.NewHandler(checks), monitorHandler}, handlers...)...)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zapLogger.Errorf("status server stopped: %v", err)
		}
	}()
	zapLogger.Infof("status server started on port %v", cfg.Port)

	defer func() {
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			zapLogger.Errorf("failed to stop status server: %v", err)
		}
	}()

	console.Start(opts.address, opts.max)

	report, err := monitorService.Watch(ctx, monitor.WatchRequest{Address: opts.address, Max: opts.max})
	if err != nil {
		return err
	}
	if report.State == monitor.Cancelled {
		zapLogger.Info("monitoring stopped by user")
	}

	return nil
}

func connectMongo(ctx context.Context, cfg *config.Config, zapLogger *zap.SugaredLogger) (*mongo.Client, error) {
	db, err := mongodb.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := mongodb.Ping(ctx, db); err != nil {
		_ = mongodb.Close(context.Background(), db)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	zapLogger.Info("DB connected successfully")

	if err := migration.RunMigrations(ctx, db, cfg.MongoDbName, zapLogger.Named("migration")); err != nil {
		_ = mongodb.Close(context.Background(), db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, zapLogger *zap.SugaredLogger) (*notifier.Notifier, error) {
	firebaseClient, err := firebase.NewClient(cfg.Firebase.CredPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase messaging client - %w", err)
	}

	cloudMessagingClient, err := firebaseClient.CreateCloudMessagingClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase cloud messaging client - %w", err)
	}

	cloudMessagingService, err := cloudmessaging.NewCloudMessagingService(cloudMessagingClient, cfg.Firebase.AndroidChannelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase message service - %w", err)
	}

	return notifier.NewNotifier(cloudMessagingService, cfg.Firebase.PushToken, pushSendTimeout, zapLogger.Named("notifier"))
}

type routes interface {
	SetupRoutes(router fiber.Router)
}

func newServer(handlers ...routes) *fiber.App {
	app := fiber.New(fiber.Config{
		ServerHeader:          "Solana-Wallet-Monitor",
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, OPTIONS",
	}))

	app.Route("/api/v1", func(router fiber.Router) {
		for _, h := range handlers {
			h.SetupRoutes(router)
		}
	})

	// Handle 404 page
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(map[string]string{"error": "page not found"})
	})

	return app
}
