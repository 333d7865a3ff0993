package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/sellmate/internal/config"
	"github.com/ariefcatur/sellmate/internal/forms"
	"github.com/ariefcatur/sellmate/internal/httpx"
	"github.com/ariefcatur/sellmate/internal/logger"
	"github.com/ariefcatur/sellmate/internal/platform"
	"github.com/ariefcatur/sellmate/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{}).Fatal("config", zap.Error(err))
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With(zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plat, err := platform.Initialize(ctx, cfg, log)
	if err != nil {
		log.Fatal("platform init", zap.Error(err))
	}
	plat.Start(ctx)

	// Per-session workspaces
	reg := session.NewRegistry(cfg.SessionTTL, cfg.SubmitDelay)
	go reg.Run(ctx, time.Minute, log.Named("sessions"))

	tracker := plat.Analytics()
	desk := forms.NewMiddlemanDesk(plat.Storage(), plat.Applications(), func(ctx context.Context, app forms.Application) {
		tracker.ApplicationSubmitted(ctx, app.ID, app.Expertise)
	})

	router := httpx.NewRouter(log, plat.Metrics(), plat.Ping)
	api := &httpx.API{
		Issuer:    plat.Auth(),
		Sessions:  reg,
		Store:     plat.DB(),
		Lister:    forms.NewProductLister(plat.DB()),
		Desk:      desk,
		Idem:      plat.Idempotency(),
		Reports:   plat.Reports(),
		Metrics:   plat.Metrics(),
		RateRPS:   cfg.RateLimitRPS,
		RateBurst: cfg.RateLimitBurst,
	}
	api.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	cancel()     // stop tracker, sweeper and producer loop
	plat.Close() // flush producer, close pools
}
