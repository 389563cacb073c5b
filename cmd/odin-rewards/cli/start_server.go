package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vikingheim/odin-rewards/internal/clients/chainclient"
	"github.com/vikingheim/odin-rewards/internal/clients/discordclient"
	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/internal/db"
	dbmodel "github.com/vikingheim/odin-rewards/internal/db/model"
	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
	"github.com/vikingheim/odin-rewards/internal/observability/tracing"
	"github.com/vikingheim/odin-rewards/internal/queue"
	"github.com/vikingheim/odin-rewards/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the rewards service",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up rewards db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	queueManager, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}
	defer queueManager.Shutdown()

	chainClient, err := chainclient.New(ctx, &cfg.Chain)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating chain client")
	}

	discordClient := discordclient.NewClient(&cfg.Discord)

	service := services.NewService(cfg, dbClient, discordClient, chainClient, queueManager)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	accrualPoller := service.StartAccrualPoller(ctx)
	defer accrualPoller.Stop()
	statsPoller := service.StartStatsPoller(ctx)
	defer statsPoller.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-signals:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-ctx.Done():
	}

	return nil
}
