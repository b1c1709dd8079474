package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ptm/backend/internal/app"
	"ptm/backend/internal/config"
	"ptm/backend/internal/handler"
	"ptm/backend/internal/pomodoro"
	"ptm/backend/internal/router"
	"ptm/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	instance, err := app.Open(cfg, app.Options{
		Location: time.Local,
		Notifier: pomodoro.LogNotifier{Logger: log.Default()},
	})
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer func() {
		if err := instance.Close(); err != nil {
			log.Printf("close storage: %v", err)
		}
	}()

	authService := service.NewAuthService(instance.Gateway, cfg.JWTSecret, cfg.TokenTTL())
	pomodoroService := service.NewPomodoroService(instance.Pomodoro, instance.Tasks)
	backupService := service.NewBackupService(instance.App, cfg.CapacityBytes)

	engine := router.New(authService, cfg.AuthEnabled, router.Handlers{
		Auth:      handler.NewAuthHandler(authService, cfg.AuthEnabled),
		Tasks:     handler.NewTaskHandler(instance.Tasks),
		Projects:  handler.NewProjectHandler(instance.Projects),
		Tags:      handler.NewTagHandler(instance.Tags),
		Pomodoro:  handler.NewPomodoroHandler(pomodoroService),
		Backup:    handler.NewBackupHandler(backupService),
		Dashboard: handler.NewDashboardHandler(instance.App),
	}, cfg.CORSOrigins)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown server: %v", err)
		}
	}()

	log.Printf("backend listening on :%s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("run server: %v", err)
	}
}
