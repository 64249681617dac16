package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/monu322/ai-job-applier-app/internal/config"
	"github.com/monu322/ai-job-applier-app/internal/db"
	"github.com/monu322/ai-job-applier-app/internal/llm"
	"github.com/monu322/ai-job-applier-app/internal/logging"
	"github.com/monu322/ai-job-applier-app/internal/persona"
	"github.com/monu322/ai-job-applier-app/internal/pipeline"
	"github.com/monu322/ai-job-applier-app/internal/server"
	"github.com/monu322/ai-job-applier-app/internal/server/ratelimit"
	"github.com/monu322/ai-job-applier-app/internal/storage"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing auth, persona and CV parsing endpoints. Settings are read from the environment.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending database migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if serveMigrate {
		if err := applyMigrations(ctx, database, logger); err != nil {
			return err
		}
	}

	client, err := llm.NewClient(ctx, llmConfig(cfg.LLM), cfg.LLM.APIKey())
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}
	defer func() { _ = client.Close() }()

	extractor, err := pipeline.NewExtractor(client, extractorConfig(cfg), pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	blobs, err := blobStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	jwtService := server.NewJWTService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpirationHours)*time.Hour)

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.Extraction.MaxBytes,
	}, server.Deps{
		Personas: persona.NewService(database, extractor, blobs, logger),
		Identity: identityProvider(cfg.Auth, database, jwtService),
		JWT:      jwtService,
		Limiter:  ratelimit.NewLimiter(ratelimit.FromServerConfig(cfg.RateLimit)),
		Database: database,
		Logger:   logger,
	})

	logger.Info().
		Str("llm_provider", cfg.LLM.Provider).
		Str("auth_provider", cfg.Auth.Provider).
		Bool("storage", cfg.Storage.Enabled()).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("configuration loaded")

	return srv.Run(ctx)
}

// llmConfig applies the configured provider, endpoint and model override.
func llmConfig(cfg config.LLMConfig) *llm.Config {
	c := llm.ConfigForProvider(llm.Provider(cfg.Provider))
	if cfg.OpenAIBaseURL != "" {
		c.BaseURL = cfg.OpenAIBaseURL
	}
	if cfg.Model != "" {
		c = c.WithModel(llm.TierStandard, cfg.Model)
	}
	return c
}

func extractorConfig(cfg *config.ServerConfig) pipeline.Config {
	return pipeline.Config{
		MaxInputBytes:   cfg.Extraction.MaxBytes,
		Tier:            llm.TierStandard,
		Temperature:     cfg.Extraction.Temperature,
		MaxOutputTokens: cfg.Extraction.MaxOutputTokens,
	}
}

// blobStore returns nil when no storage endpoint is configured; CVs are
// then parsed and saved without keeping the file.
func blobStore(ctx context.Context, cfg config.StorageConfig, logger zerolog.Logger) (storage.CVStore, error) {
	if !cfg.Enabled() {
		logger.Warn().Msg("STORAGE_ENDPOINT not set, uploaded CV files will not be stored")
		return nil, nil
	}
	store, err := storage.NewMinIOStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func identityProvider(cfg config.AuthConfig, users server.UserStore, jwtService *server.JWTService) server.IdentityProvider {
	if cfg.Provider == config.AuthProviderLocal {
		return server.NewLocalProvider(users, cfg.Password, jwtService)
	}
	return server.NewGoTrueProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, nil)
}
