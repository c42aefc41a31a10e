package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"toohak-quiz-service/internal/app"
	"toohak-quiz-service/internal/config"
	filestore "toohak-quiz-service/internal/infra/file"
	"toohak-quiz-service/internal/infra/memory"
	"toohak-quiz-service/internal/infra/postgres"
	redisstore "toohak-quiz-service/internal/infra/redis"
	transport "toohak-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}

	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:" + finalPort
	}
	csvDir := cfg.Server.CSVDir
	if csvDir == "" {
		csvDir = "csv_files"
	}
	imageDir := cfg.Server.ImageDir
	if imageDir == "" {
		imageDir = "images"
	}

	service := app.NewService(store, app.Options{
		Countdown: config.Duration(cfg.Session.Countdown, 0),
		BaseURL:   baseURL,
		CSVDir:    csvDir,
		ImageDir:  imageDir,
	})
	router := transport.NewRouter(service, csvDir, imageDir)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s (store=%s)", finalPort, cfg.Store.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStore wires the configured snapshot backend. Postgres backends get
// their migrations applied on boot.
func buildStore(ctx context.Context, cfg config.Config) (app.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ttl := config.Duration(cfg.Redis.TTL, 0)
		return redisstore.NewStore(client, cfg.Redis.Key, ttl), nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return postgres.NewStore(pool), nil
	case "file":
		path := cfg.Store.Path
		if path == "" {
			path = "snapshot.json"
		}
		return filestore.NewStore(path), nil
	default:
		return memory.NewStore(), nil
	}
}
