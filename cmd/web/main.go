package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/scenevalidator/internal/ai"
	"github.com/myrjola/scenevalidator/internal/envstruct"
	"github.com/myrjola/scenevalidator/internal/errors"
	"github.com/myrjola/scenevalidator/internal/logging"
	"github.com/myrjola/scenevalidator/internal/models"
	"github.com/myrjola/scenevalidator/internal/pprofserver"
	"github.com/myrjola/scenevalidator/internal/repositories"
	"github.com/myrjola/scenevalidator/internal/sqlite"
	"github.com/myrjola/scenevalidator/internal/validator"
)

type application struct {
	logger         *slog.Logger
	validator      *validator.Validator
	validations    *repositories.ValidationRepository
	advisorTimeout time.Duration
}

type config struct {
	Addr                  string `env:"SCENEVALIDATOR_ADDR" envDefault:"localhost:4000"`
	SQLiteURL             string `env:"SCENEVALIDATOR_SQLITE_URL" envDefault:"./scenevalidator.sqlite"`
	DefaultLevel          string `env:"SCENEVALIDATOR_DEFAULT_LEVEL" envDefault:"standard"`
	MaxScenesPerBatch     string `env:"SCENEVALIDATOR_MAX_SCENES_PER_BATCH" envDefault:"50"`
	AdvisorTimeoutSeconds string `env:"SCENEVALIDATOR_ADVISOR_TIMEOUT_SECONDS" envDefault:"120"`
	AdvisorModel          string `env:"SCENEVALIDATOR_ADVISOR_MODEL" envDefault:"gpt-4o-mini"`
	AdvisorBaseURL        string `env:"SCENEVALIDATOR_ADVISOR_BASE_URL" envDefault:""`
	AdvisorAPIKey         string `env:"SCENEVALIDATOR_ADVISOR_API_KEY" envDefault:""`
}

func main() {
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}))
	logger := slog.New(loggerHandler)

	// The .env file is optional in production deployments.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error(err.Error())
		os.Exit(1)
	}

	// Initialise pprof listening on localhost so that it's not open to the world.
	pprofPort, ok := os.LookupEnv("SCENEVALIDATOR_PPROF_PORT")
	if !ok {
		pprofPort = ":6060"
	}
	pprofserver.Launch(pprofPort, logger)

	ctx := context.Background()
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server failed", errors.SlogError(err))
		os.Exit(1)
	}
}

// run wires up the application and starts the server. It is separated from
// main so that tests can start the whole server with an injected environment
// and logger.
func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	defaultLevel, err := models.ParseLevel(cfg.DefaultLevel)
	if err != nil {
		return errors.Wrap(err, "parse default validation level", slog.String("level", cfg.DefaultLevel))
	}
	maxScenesPerBatch, err := strconv.Atoi(cfg.MaxScenesPerBatch)
	if err != nil || maxScenesPerBatch <= 0 {
		return errors.New("max scenes per batch must be a positive integer",
			slog.String("value", cfg.MaxScenesPerBatch))
	}
	advisorTimeoutSeconds, err := strconv.Atoi(cfg.AdvisorTimeoutSeconds)
	if err != nil || advisorTimeoutSeconds <= 0 {
		return errors.New("advisor timeout must be a positive integer",
			slog.String("value", cfg.AdvisorTimeoutSeconds))
	}
	advisorTimeout := time.Duration(advisorTimeoutSeconds) * time.Second

	db, err := sqlite.NewDatabase(ctx, cfg.SQLiteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open database", slog.String("url", cfg.SQLiteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to database", slog.String("url", cfg.SQLiteURL))

	var advisor ai.Advisor
	if cfg.AdvisorAPIKey != "" {
		advisor = ai.NewClient(cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorBaseURL)
		logger.LogAttrs(ctx, slog.LevelInfo, "continuity advisor enabled",
			slog.String("model", cfg.AdvisorModel))
	} else {
		logger.LogAttrs(ctx, slog.LevelInfo,
			"continuity advisor disabled, thorough level behaves like standard")
	}

	app := application{
		logger: logger,
		validator: validator.New(logger, advisor, validator.Config{
			DefaultLevel:      defaultLevel,
			MaxScenesPerBatch: maxScenesPerBatch,
			AdvisorTimeout:    advisorTimeout,
		}),
		validations:    repositories.NewValidationRepository(db, logger),
		advisorTimeout: advisorTimeout,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}
