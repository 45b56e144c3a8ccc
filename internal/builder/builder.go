package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/urlchat-backend/internal/api"
	chatapi "github.com/futig/urlchat-backend/internal/api/chat"
	groupapi "github.com/futig/urlchat-backend/internal/api/group"
	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/integration/gemini"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
	"github.com/futig/urlchat-backend/internal/pkg/formatter"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/futig/urlchat-backend/internal/repository"
	"github.com/futig/urlchat-backend/internal/telegram"
	chatuc "github.com/futig/urlchat-backend/internal/usecase/chat"
	groupuc "github.com/futig/urlchat-backend/internal/usecase/group"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// components bundles everything both entrypoints share: repositories wired
// to Postgres, the generation connector and the two use cases.
type components struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	validator *validator.Validator
	groupUC   *groupuc.GroupUsecase
	chatUC    *chatuc.ChatUsecase
}

func Build() (*App, error) {
	c, err := buildComponents()
	if err != nil {
		return nil, err
	}

	// Setup API handlers
	groupHandler := groupapi.NewHandler(c.groupUC)
	chatHandler := chatapi.NewHandler(c.chatUC, c.cfg.FileUploadCfg, c.validator)
	c.logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(groupHandler, chatHandler, c.logger)
	c.logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         c.cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second, // must outlive the generation timeout
		IdleTimeout:  60 * time.Second,
	}

	c.logger.Info("Application built successfully",
		zap.String("environment", c.cfg.Environment),
	)

	return &App{
		server: server,
		db:     c.db,
		logger: c.logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot entrypoint.
func BuildTelegramBot() (*telegram.Bot, *zap.Logger, error) {
	c, err := buildComponents()
	if err != nil {
		return nil, nil, err
	}

	bot, err := telegram.NewBot(&c.cfg.TelegramCfg, c.groupUC, c.chatUC, c.logger)
	if err != nil {
		c.db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	c.logger.Info("Telegram bot built successfully",
		zap.String("environment", c.cfg.Environment),
	)

	return bot, c.logger, nil
}

func buildComponents() (*components, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	groupRepo := repository.NewGroupPostgres(db)
	messageRepo := repository.NewMessagePostgres(db)
	contextRepo := repository.NewContextPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize generation connector (with mock support)
	var generator chatuc.GenerationConnector
	if cfg.EnableMocks {
		logger.Info("Using mock generation connector")
		generator = gemini.NewMockConnector(logger)
	} else {
		generator = gemini.NewConnector(cfg.GeminiCfg, logger)
		if cfg.GeminiCfg.APIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set; questions will be answered with a configuration notice")
		}
	}

	v := validator.NewValidator(cfg.FileUploadCfg)
	aggregator := extract.NewAggregator(cfg.FileUploadCfg.MaxContextChars, logger)
	suggestions := cache.New(cfg.SuggestionCacheTTL, 2*cfg.SuggestionCacheTTL)

	// Initialize use cases
	groupUC := groupuc.NewUsecase(groupRepo, messageRepo, contextRepo, v, suggestions, logger)
	chatUC := chatuc.NewUsecase(
		groupRepo,
		messageRepo,
		contextRepo,
		generator,
		aggregator,
		v,
		formatter.NewFactory(),
		suggestions,
		logger,
	)
	logger.Info("Use cases initialized")

	// Guarantee a usable starting state: one group exists and is active.
	if err := groupUC.Bootstrap(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap groups: %w", err)
	}

	return &components{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		validator: v,
		groupUC:   groupUC,
		chatUC:    chatUC,
	}, nil
}
