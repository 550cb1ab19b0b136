package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"parking-service/internal/auth"
	"parking-service/internal/client"
	"parking-service/internal/clock"
	"parking-service/internal/config"
	"parking-service/internal/db"
	httphandler "parking-service/internal/http"
	"parking-service/internal/http/middleware"
	"parking-service/internal/logger"
	"parking-service/internal/notify"
	"parking-service/internal/recognition"
	"parking-service/internal/repository"
	"parking-service/internal/scheduler"
	"parking-service/internal/service"
	"parking-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	ledger, err := store.NewFirebaseStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect booking store")
	}

	sysClock := clock.System()
	recognitionRepo := repository.NewRecognitionRepository(database, sysClock)
	mailer := notify.NewSMTPMailer(cfg)
	sms := notify.NewLogSMS(ledger, sysClock, appLogger)

	detector := client.NewDetectorClient(cfg)
	camera := client.NewCameraClient(cfg)
	ocr := recognition.NewTesseractEngine()
	pipeline := recognition.NewPipeline(detector, ocr, appLogger)
	cooldown := recognition.NewCooldown(cfg.Monitor.CooldownFrames)

	sessionService := service.NewSessionService(ledger, appLogger)
	pricingEngine := service.NewPricingEngine(sysClock, appLogger)
	paymentService := service.NewPaymentService(ledger, mailer, sms, sysClock, cfg.Payment.BaseURL, appLogger)

	monitor := service.NewMonitor(service.MonitorDeps{
		Frames:        camera,
		Pipeline:      pipeline,
		Cooldown:      cooldown,
		Sessions:      sessionService,
		Pricing:       pricingEngine,
		Payments:      paymentService,
		Store:         ledger,
		Events:        recognitionRepo,
		Clock:         sysClock,
		FrameInterval: cfg.Monitor.FrameInterval,
		LinkDelay:     cfg.Monitor.LinkDelay,
		Lifetime:      ctx,
	}, appLogger)

	reminder := scheduler.NewReminder(ledger, mailer, sms, sysClock,
		cfg.Scheduler.ReminderInterval, cfg.Scheduler.ReminderBackoff, appLogger)
	watcher := scheduler.NewBookingWatcher(ledger, mailer, sms, sysClock,
		cfg.Scheduler.WatcherInterval, cfg.Scheduler.WatcherBackoff, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(monitor, sessionService, pricingEngine, paymentService,
		ledger, recognitionRepo, sysClock, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	var wg sync.WaitGroup
	for _, worker := range []func(context.Context){monitor.Run, reminder.Run, watcher.Run} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(ctx)
		}(worker)
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLogger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	appLogger.Info().Str("addr", addr).Msg("starting parking service")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLogger.Error().Err(err).Msg("failed to start server")
		stop()
	}

	wg.Wait()
	appLogger.Info().Msg("parking service stopped")
}
