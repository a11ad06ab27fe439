package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"globetrotter/internal/app"
	"globetrotter/internal/config"
	"globetrotter/internal/dataset"
	"globetrotter/internal/infra/memory"
	pgstore "globetrotter/internal/infra/postgres"
	redisstore "globetrotter/internal/infra/redis"
	"globetrotter/internal/quiz"
	transport "globetrotter/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServer(cmd.Context(), cfg, logger, *port)
		},
	}
}

type backends struct {
	destinations app.DestinationSource
	rounds       app.RoundRepository
	profiles     app.ProfileRepository
	close        func()
}

// openBackends picks Postgres for durable data when configured, Redis for
// caching and rounds when configured, and memory for anything left.
func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (backends, error) {
	var closers []func()
	b := backends{}
	b.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return b, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return b, err
		}
		closers = append(closers, pool.Close)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	roundTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	poolTTL := config.TTLDuration(cfg.Game.PoolTTL, 5*time.Minute)

	var loader app.DestinationSource
	if pool != nil {
		loader = pgstore.NewDestinationLoader(pool)
	} else {
		destinations, err := dataset.Default()
		if err != nil {
			b.close()
			return b, err
		}
		loader = memory.NewStaticDestinationSource(destinations)
	}

	switch {
	case redisClient != nil:
		b.destinations = redisstore.NewPoolCache(redisClient, loader, poolTTL)
		b.rounds = redisstore.NewRoundStore(redisClient, roundTTL)
	default:
		b.destinations = memory.NewPoolCache(loader, poolTTL)
		b.rounds = memory.NewRoundStore(roundTTL)
	}

	switch {
	case pool != nil:
		b.profiles = pgstore.NewProfileStore(pool)
	case redisClient != nil:
		b.profiles = redisstore.NewProfileStore(redisClient)
	default:
		b.profiles = memory.NewProfileStore()
	}

	logger.Info("backends ready",
		zap.Bool("postgres", pool != nil),
		zap.Bool("redis", redisClient != nil),
	)
	return b, nil
}

func runServer(ctx context.Context, cfg config.Config, logger *zap.Logger, portFlag string) error {
	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithDistractorCount(cfg.Game.Distractors),
		app.WithLeaderboardSize(cfg.Game.LeaderboardSize),
	}
	if cfg.Game.DisableReset {
		opts = append(opts, app.WithResetDisabled())
	}
	service := app.NewGameService(b.destinations, b.rounds, b.profiles, quiz.NewPicker(quiz.NewLockedSource()), opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, cfg.Game.ShareBaseURL),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting globetrotter", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
