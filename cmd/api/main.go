package main

import (
	"context"
	"os/signal"
	"syscall"

	"typeb/pkg/translator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dbadapter "typeb/internal/adapter/db"
	httpadapter "typeb/internal/adapter/http"
	"typeb/internal/adapter/http/handlers"
	httpmiddleware "typeb/internal/adapter/http/middleware"
	"typeb/internal/adapter/notify"
	"typeb/internal/app/events"
	"typeb/internal/app/recurrence"
	appscheduler "typeb/internal/app/scheduler"
	appservice "typeb/internal/app/service"
	"typeb/internal/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	// Make zap available to packages that log through zap.L().
	zap.ReplaceGlobals(logger)
	defer func() {
		if err := logger.Sync(); err != nil {
			zap.L().Debug("failed to sync logger", zap.Error(err))
		}
	}()

	translator.InitTranslator(translator.Config{
		TranslationFolder:  "pkg/translator/translation",
		SupportedLanguages: []string{translator.LanguageFr, translator.LanguageEn},
	})

	cfg := config.LoadConfig()
	db, err := dbadapter.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("failed to connect to mysql", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close mysql connection", zap.Error(err))
		}
	}()

	taskRepository := dbadapter.NewTaskRepository(db)
	templateRepository := dbadapter.NewTemplateRepository(db)
	memberRepository := dbadapter.NewMemberRepository(db)
	pointsLedger := dbadapter.NewPointsLedger(db)

	bus := events.NewBus()
	engine := recurrence.NewEngine(templateRepository, taskRepository)
	engine.Subscribe(bus)

	taskService := appservice.NewTaskService(taskRepository, bus, pointsLedger, engine)
	validationService := appservice.NewValidationService(taskRepository, taskService, memberRepository, pointsLedger)

	reminders := appscheduler.New(taskRepository, memberRepository, notify.NewLogNotifier(), engine, appscheduler.Options{
		TickInterval:   cfg.SchedulerTick,
		ReminderOffset: cfg.ReminderOffset,
		GracePeriod:    cfg.GracePeriod,
		MaxLevel:       cfg.MaxEscalationLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reminders.Run(ctx)

	r := gin.New()
	r.Use(gin.Recovery(), httpmiddleware.GinZapMiddleware(logger))
	healthHandler := handlers.NewHealthHandler(db)
	taskHandler := handlers.NewTaskHandler(taskService)
	validationHandler := handlers.NewValidationHandler(validationService)
	httpadapter.RegisterRoutes(r, healthHandler, taskHandler, validationHandler)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	addr := ":" + port
	logger.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("could not start server", zap.Error(err))
	}
}
