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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athebyme/gomarket-platform/harvester/config"
	"github.com/athebyme/gomarket-platform/harvester/internal/adapters/logger"
	"github.com/athebyme/gomarket-platform/harvester/internal/app"
	"github.com/athebyme/gomarket-platform/harvester/internal/utils"
	"github.com/athebyme/gomarket-platform/harvester/pkg/interfaces"
)

func main() {
	configPath := flag.String("config", "", "путь к файлу конфигурации или его имя")
	outDir := flag.String("out", "", "каталог выгрузки (перекрывает export.dir)")
	runID := flag.String("run-id", "", "идентификатор запуска, по умолчанию UUID")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}

	log, err := logger.NewZapLogger(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}

	log.Info("Инициализация сборщика",
		interfaces.LogField{Key: "app_name", Value: cfg.AppName},
		interfaces.LogField{Key: "version", Value: cfg.Version},
		interfaces.LogField{Key: "env", Value: cfg.ENV},
		interfaces.LogField{Key: "dir", Value: cfg.Export.Dir},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// HTTP сервер для метрик на время запуска
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		})
		metricsServer = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}

		go func() {
			log.Info("Запуск HTTP сервера для метрик",
				interfaces.LogField{Key: "addr", Value: metricsServer.Addr})
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Ошибка запуска HTTP сервера для метрик",
					interfaces.LogField{Key: "error", Value: err.Error()})
			}
		}()
	}

	code := run(ctx, cfg, log, *runID, metricsServer)
	stop()
	_ = log.Sync()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, log interfaces.LoggerPort, runID string, metricsServer *http.Server) int {
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Error("Ошибка инициализации", interfaces.LogField{Key: "error", Value: err.Error()})
		return 1
	}
	defer a.Close()

	if metricsServer != nil {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(sctx)
		}()
	}

	report, err := a.Harvest.Run(ctx, runID)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Fprintln(os.Stderr, "Сбор прерван сигналом")
			return 130
		case errors.Is(err, utils.ErrRunInProgress):
			fmt.Fprintf(os.Stderr, "Сбор уже выполняется: %v\n", err)
			return 2
		default:
			fmt.Fprintf(os.Stderr, "Сбор завершился ошибкой: %v\n", err)
			return 1
		}
	}

	for _, f := range report.Files {
		fmt.Println(f)
	}
	return 0
}
