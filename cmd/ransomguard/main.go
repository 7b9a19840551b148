package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"ransomguard/config"
	"ransomguard/internal/correlation"
	"ransomguard/internal/ingest"
	inputredis "ransomguard/internal/input/redis"
	"ransomguard/internal/logger"
	"ransomguard/internal/pipeline"
	"ransomguard/internal/rules"
	"ransomguard/internal/scoring"
	"ransomguard/internal/server"
	"ransomguard/internal/store"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
		log.Printf("Warning: config file not found at %s, trying default locations", configArg)
	}

	if _, err := os.Stat("ransomguard.yml"); err == nil {
		return "ransomguard.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		path := filepath.Join(filepath.Dir(exePath), "ransomguard.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func applyDefaults(cfg *config.Config) {
	if cfg.RansomGuard.Server.Addr == "" {
		cfg.RansomGuard.Server.Addr = ":9004"
	}

	if cfg.RansomGuard.Input.Redis.Addr == "" {
		cfg.RansomGuard.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.RansomGuard.Input.Redis.Key == "" {
		cfg.RansomGuard.Input.Redis.Key = "ransomguard_events"
	}
	if cfg.RansomGuard.Input.Redis.BlockTimeout == 0 {
		cfg.RansomGuard.Input.Redis.BlockTimeout = 5 * time.Second
	}
	if cfg.RansomGuard.Input.Redis.Workers <= 0 {
		cfg.RansomGuard.Input.Redis.Workers = 4
	}

	if cfg.RansomGuard.Scoring.Window <= 0 {
		cfg.RansomGuard.Scoring.Window = 2 * time.Minute
	}

	if cfg.RansomGuard.Correlation.Window <= 0 {
		cfg.RansomGuard.Correlation.Window = 10 * time.Second
	}
	if cfg.RansomGuard.Correlation.Cooldown <= 0 {
		cfg.RansomGuard.Correlation.Cooldown = 20 * time.Second
	}
	if cfg.RansomGuard.Correlation.WarnThreshold <= 0 {
		cfg.RansomGuard.Correlation.WarnThreshold = 8
	}
	if cfg.RansomGuard.Correlation.HighThreshold <= 0 {
		cfg.RansomGuard.Correlation.HighThreshold = 12
	}
	if cfg.RansomGuard.Correlation.CriticalThreshold <= 0 {
		cfg.RansomGuard.Correlation.CriticalThreshold = 18
	}

	if cfg.RansomGuard.Logging.Level == "" {
		cfg.RansomGuard.Logging.Level = "info"
	}
}

func main() {
	configArg := flag.String("config", "", "Path to the YAML config file")
	flag.Parse()

	cfg := &config.Config{}
	if path := findConfigFile(*configArg); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("Config loaded from: %s", path)
	} else {
		cfg.RansomGuard.Logging.Enabled = true
		cfg.RansomGuard.Logging.Console = true
		log.Printf("No config file found, using defaults")
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.RansomGuard.Logging.Enabled, cfg.RansomGuard.Logging.Level,
		cfg.RansomGuard.Logging.File, cfg.RansomGuard.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("RansomGuard controller starting")

	devices := store.NewDeviceStore()
	events := store.NewEventStore()
	alerts := store.NewAlertStore()

	scorer := scoring.NewEngine(scoring.Config{
		Window: cfg.RansomGuard.Scoring.Window,
	})
	correlator := correlation.NewEngine(correlation.Config{
		Window:            cfg.RansomGuard.Correlation.Window,
		Cooldown:          cfg.RansomGuard.Correlation.Cooldown,
		WarnThreshold:     cfg.RansomGuard.Correlation.WarnThreshold,
		HighThreshold:     cfg.RansomGuard.Correlation.HighThreshold,
		CriticalThreshold: cfg.RansomGuard.Correlation.CriticalThreshold,
	})

	var ruleEngine rules.Engine
	if cfg.RansomGuard.Rules.Enabled {
		if strings.TrimSpace(cfg.RansomGuard.Rules.Path) == "" {
			logger.Warnf("Rules enabled but rules.path is empty; severity tagging disabled")
		} else {
			sigmaEngine, stats, err := rules.NewSigmaEngine(cfg.RansomGuard.Rules.Path)
			if err != nil {
				log.Fatalf("Failed to load Sigma rules: %v", err)
			}
			ruleEngine = sigmaEngine
			logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_invalid=%d files=%d",
				stats.Loaded, stats.SkippedComplex, stats.SkippedInvalid, stats.TotalFiles)
			if stats.Loaded == 0 {
				logger.Warnf("No compatible Sigma rules loaded; severity tagging is effectively disabled")
			}
		}
	}

	service := ingest.NewService(devices, events, alerts, scorer, correlator, ruleEngine)
	handler := server.NewHandler(service, devices, events, alerts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pipe *pipeline.RedisEventPipeline
	if cfg.RansomGuard.Input.Redis.Enabled {
		consumer, err := inputredis.NewConsumer(inputredis.Config{
			Addr:         cfg.RansomGuard.Input.Redis.Addr,
			Password:     cfg.RansomGuard.Input.Redis.Password,
			DB:           cfg.RansomGuard.Input.Redis.DB,
			Key:          cfg.RansomGuard.Input.Redis.Key,
			BlockTimeout: cfg.RansomGuard.Input.Redis.BlockTimeout,
		})
		if err != nil {
			log.Fatalf("Failed to create Redis consumer: %v", err)
		}
		pipe = pipeline.NewRedisEventPipeline(consumer, service, cfg.RansomGuard.Input.Redis.Workers)
		go func() {
			if err := pipe.Run(ctx); err != nil && err != context.Canceled {
				logger.Errorf("Pipeline error: %v", err)
			}
		}()
		logger.Infof("Redis intake enabled: %s key=%s",
			cfg.RansomGuard.Input.Redis.Addr, cfg.RansomGuard.Input.Redis.Key)
	}

	srv := &http.Server{
		Addr:    cfg.RansomGuard.Server.Addr,
		Handler: server.NewRouter(handler),
	}
	go func() {
		logger.Infof("HTTP API listening on %s", cfg.RansomGuard.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	if pipe != nil {
		if err := pipe.Close(); err != nil {
			logger.Errorf("Error closing pipeline: %v", err)
		}
	}

	logger.Infof("RansomGuard controller stopped")
}
