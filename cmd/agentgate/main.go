package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/api"
	"github.com/agentgate-org/agentgate/pkg/api/service"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/config"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/entity"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/llm/factory"
	"github.com/agentgate-org/agentgate/pkg/permission"
	"github.com/agentgate-org/agentgate/pkg/secret"
	"github.com/agentgate-org/agentgate/pkg/store"
	"github.com/agentgate-org/agentgate/pkg/usage"

	_ "github.com/agentgate-org/agentgate/docs" // Swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		logger.Error("agentgate exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	logger := slog.Default()

	flagSet := flag.NewFlagSet("agentgate", flag.ContinueOnError)
	configPath := flagSet.String("config", "", "Path to configuration file")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	remaining := flagSet.Args()
	mode := ""
	if len(remaining) > 0 {
		mode = remaining[0]
	}

	if mode == "clean" {
		return cmdClean(logger)
	}

	return cmdServe(ctx, logger, *configPath)
}

func cmdClean(logger *slog.Logger) error {
	workingDir, _ := os.Getwd()
	dataDir := filepath.Join(workingDir, ".runtime")
	logger.Info("cleaning runtime data", "path", dataDir)
	if err := os.RemoveAll(dataDir); err != nil {
		return fmt.Errorf("clean runtime data: %w", err)
	}
	logger.Info("cleanup complete")
	return nil
}

func cmdServe(ctx context.Context, logger *slog.Logger, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var sealer secret.Sealer
	if cfg.Storage.SealerKeyHex != "" {
		sealer, err = secret.NewAESGCMSealerHex(cfg.Storage.SealerKeyHex)
		if err != nil {
			return fmt.Errorf("init sealer: %w", err)
		}
	} else {
		logger.Warn("no sealer key configured, stored credentials disabled")
	}

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("load action catalog: %w", err)
		}
	}

	resolver := credential.NewResolver(st, sealer, cfg.Platform, logger)
	ledger := usage.NewLedger(st, cfg.Quota.FreeDailyRequests, logger)
	perms := permission.NewService(st, cat, ledger, logger)

	models := llm.NewModelCatalog(nil)
	router := llm.NewRouter(models, factory.New(), cfg.Models, logger)

	registry := entity.NewRegistry(entity.NewRecordMutator(st, logger))
	if cfg.Stripe.APIKey != "" {
		stripeMut, err := entity.NewStripeMutator(cfg.Stripe.APIKey, logger)
		if err != nil {
			return fmt.Errorf("init stripe: %w", err)
		}
		registry.Register(stripeMut)
		logger.Info("stripe payments enabled")
	}

	executor := action.NewExecutor(st, perms, cat, registry, logger)
	chatSvc := service.NewChatService(resolver, router, ledger, executor, cat, logger)

	server := api.NewServer(api.Config{
		Addr:              cfg.HTTP.Addr,
		DevMode:           cfg.DevMode,
		JWTSecret:         cfg.Auth.JWTSecret,
		DevUserHeader:     cfg.Auth.DevUserHeader,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, api.Deps{
		Chat:     chatSvc,
		Perms:    perms,
		Executor: executor,
		Resolver: resolver,
		Catalog:  cat,
		Models:   models,
	}, logger)

	logger.Info("agentgate starting", "addr", server.Addr())
	return server.Run(ctx)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "VERBOSE":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
