package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"washboard/internal/api"
	"washboard/internal/config"
	"washboard/internal/domain"
	"washboard/internal/events"
	"washboard/internal/export"
	"washboard/internal/google"
	"washboard/internal/journal"
	"washboard/internal/logging"
	"washboard/internal/metrics"
	"washboard/internal/models"
	"washboard/internal/notify"
	"washboard/internal/pipeline"
	"washboard/internal/repository"
	"washboard/internal/schedule"
	"washboard/internal/service"
	"washboard/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	yamlv2 "gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	services, err := loadServicesCatalog(cfg, &logger)
	if err != nil {
		return err
	}
	if len(services) > 0 {
		logger.Info().Int("count", len(services)).Msg("service catalog loaded")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	jrnl, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Journal.Path).Msg("open journal")
		return err
	}
	defer jrnl.Close()

	client := api.NewClient(cfg.API)
	if redisClient != nil {
		client.UseRedisCache(redisClient, time.Duration(cfg.API.CacheTTLSeconds)*time.Second)
	}

	boardLogger := logger.With().Str("component", "board").Logger()
	board := pipeline.NewBoard(client, &boardLogger)
	executor := pipeline.NewExecutor(board, client, &boardLogger)

	eventBus := events.NewEventBus()
	notifier := initNotifier(cfg, &logger)
	sheetsService := initGoogleSheets(cfg, &logger)
	stateRepo := initStateRepository(redisClient, &logger)

	var syncWorker domain.SyncWorker
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sheetsService != nil {
		workerLogger := logger.With().Str("component", "schedule-worker").Logger()
		sw := worker.NewScheduleWorker(sheetsService, board, redisClient, worker.DefaultRetryPolicy, &workerLogger)
		go sw.Run(ctx)
		syncWorker = sw
	}

	// Уведомления и синхронизация расписания слушают шину событий
	service.RegisterSubscribers(eventBus, notifier, syncWorker, &logger)

	boardService := service.NewBoardService(board, executor, client, client, eventBus, jrnl, stateRepo, &logger)

	startMetrics(ctx, cfg, &logger)

	resolver := schedule.NewResolver(cfg.Business.RolloverHour, nil)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	return runLoop(ctx, cfg, boardService, board, jrnl, exporter, resolver, &logger)
}

// runLoop keeps the board in sync with the server for the current business
// date and writes the shift report when the day rolls over.
func runLoop(
	ctx context.Context,
	cfg *config.Config,
	boardService *service.BoardService,
	board *pipeline.Board,
	jrnl *journal.Journal,
	exporter *export.Exporter,
	resolver *schedule.Resolver,
	logger *zerolog.Logger,
) error {
	currentDate := resolver.CurrentBusinessDate()

	// Восстанавливаем сессию прошлого запуска: открытый ящик
	// completed/cancelled наполняется заново
	if prev := boardService.RestoreSession(ctx); prev != nil {
		logger.Info().Str("business_date", prev.BusinessDate).Bool("drawer_open", prev.DrawerOpen).
			Msg("previous session restored")
		if prev.DrawerOpen {
			if _, _, err := boardService.Drawer(ctx, currentDate); err != nil {
				logger.Warn().Err(err).Msg("restore drawer contents")
			}
		}
	}

	reload(ctx, boardService, currentDate, logger)

	ticker := time.NewTicker(time.Duration(cfg.Business.ReloadIntervalSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return nil
		case <-ticker.C:
			date := resolver.CurrentBusinessDate()
			if !date.Equal(currentDate) {
				// Смена закончилась, пишем отчет за прошедший день
				writeShiftReport(ctx, board, jrnl, exporter, currentDate, logger)
				currentDate = date
			}
			reload(ctx, boardService, date, logger)
		}
	}
}

func reload(ctx context.Context, boardService *service.BoardService, date time.Time, logger *zerolog.Logger) {
	if failures := boardService.Reload(ctx, date); failures != nil {
		for status, err := range failures {
			logger.Warn().Err(err).Str("status", status).Msg("stage collection failed to load")
		}
	}
	logger.Debug().Interface("counts", boardService.Counts()).Msg("board reloaded")
}

func writeShiftReport(
	ctx context.Context,
	board *pipeline.Board,
	jrnl *journal.Journal,
	exporter *export.Exporter,
	date time.Time,
	logger *zerolog.Logger,
) {
	outcomes, err := jrnl.CountByOutcome(ctx, date, date.AddDate(0, 0, 1))
	if err != nil {
		logger.Error().Err(err).Msg("aggregate journal for shift report")
		outcomes = map[string]int{}
	}
	if _, err := exporter.DailyReport(date, board.Snapshot(), outcomes); err != nil {
		logger.Error().Err(err).Msg("write shift report")
	}
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "dashboard-main").Logger()

	return cfg, logger, closer, nil
}

// loadServicesCatalog reads the optional local services file. The backend
// catalog endpoint stays the source of truth; the file only seeds offline
// validation of config.
func loadServicesCatalog(cfg *config.Config, logger *zerolog.Logger) ([]models.Service, error) {
	if len(cfg.Services) > 0 {
		return cfg.Services, nil
	}

	servicesPath := os.Getenv("SERVICES_PATH")
	if servicesPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(servicesPath)
	if err != nil {
		logger.Error().Err(err).Str("services_path", servicesPath).Msg("read services")
		return nil, err
	}

	var catalog struct {
		Services []models.Service `yaml:"services"`
	}
	if err := yamlv2.Unmarshal(data, &catalog); err != nil {
		logger.Error().Err(err).Str("services_path", servicesPath).Msg("parse services")
		return nil, err
	}

	if err := config.ValidateServices(catalog.Services); err != nil {
		return nil, err
	}
	return catalog.Services, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initStateRepository строит хранилище сессии: Redis с памятью как запасным
// вариантом, либо только память, когда Redis не настроен.
func initStateRepository(redisClient *redis.Client, logger *zerolog.Logger) domain.StateRepository {
	memory := repository.NewMemoryStateRepository(models.DefaultStateTTL * time.Second)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisStateRepository(redisClient, models.DefaultStateTTL*time.Second)
	repoLogger := logger.With().Str("component", "state-repository").Logger()
	return repository.NewFailoverStateRepository(primary, memory, &repoLogger)
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		return nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return nil
	}

	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram connected")
	notifyLogger := logger.With().Str("component", "notify").Logger()
	return notify.NewTelegramNotifier(bot, cfg.Telegram.ManagerChatID, &notifyLogger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.ScheduleSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.ScheduleSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
