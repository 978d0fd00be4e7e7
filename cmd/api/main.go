package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/athebyme/gomarket-platform/harvester/config"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/api"
	"github.com/athebyme/gomarket-platform/harvester/internal/app"
	"github.com/athebyme/gomarket-platform/harvester/internal/domain/services"
	"github.com/athebyme/gomarket-platform/harvester/internal/security"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации или его имя")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	log.Info("Инициализация сервиса",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
	)

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("Ошибка инициализации", interfaces.LogField{Key: "error", Value: err.Error()})
	}

	routerOpts := api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
		RateBurst:      cfg.Server.RateBurst,
		Ready:          map[string]api.Pinger{},
	}
	if a.Snapshots != nil {
		routerOpts.Ready["postgres"] = a.Snapshots
	}
	if cfg.Security.Enabled {
		jwtManager, err := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration, cfg.Security.Issuer)
		if err != nil {
			log.Fatal("Ошибка инициализации JWT", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		routerOpts.Auth = jwtManager
	} else {
		log.Warn("Авторизация API отключена")
	}

	runner := services.NewRunner(a.Harvest, services.NewRunRegistry(cfg.Harvest.ReportTTL), log)
	router := api.SetupRouter(runner, log, routerOpts)
	log.Info("Маршрутизатор настроен")

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Сервер запущен", interfaces.LogField{Key: "address", Value: server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}()

	go func() {
		<-quit
		log.Info("Получен сигнал завершения, выполняется graceful shutdown...")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("Ошибка при graceful shutdown", interfaces.LogField{Key: "error", Value: err.Error()})
		}
		log.Info("HTTP сервер остановлен")

		if err := runner.Shutdown(ctx); err != nil {
			log.Error("Запуск сбора не завершился вовремя", interfaces.LogField{Key: "error", Value: err.Error()})
		}

		log.Info("Закрытие соединений с зависимостями...")
		_ = a.Close()

		close(done)
	}()

	// Ожидаем завершения работы
	<-done
	log.Info("Сервер корректно завершил работу")
	_ = log.Sync()
}
